package batch

import (
	"fmt"
	"strings"

	"github.com/aretw0/selector/pkg/domain"
)

// MaxRepeat bounds the product of the multipliers of one batch.
const MaxRepeat = 10000

// RepeatCount returns the product of the multipliers. No multipliers means 1.
// A multiplier below 1 is a configuration mistake and is rejected, never clamped.
// A product above MaxRepeat is rejected the same way.
func RepeatCount(multipliers ...int) (int, error) {
	count := 1
	for i, m := range multipliers {
		if m < 1 {
			return 0, fmt.Errorf("%w: multiplier %d is %d", domain.ErrInvalidRepeat, i, m)
		}
		if m > MaxRepeat/count {
			return 0, fmt.Errorf("%w: multiplier %d is %d, product exceeds %d", domain.ErrInvalidRepeat, i, m, MaxRepeat)
		}
		count *= m
	}
	return count, nil
}

// Expand repeats every result RepeatCount times and builds the combined channel.
func Expand(results []domain.Result, multipliers ...int) (*domain.Batch, error) {
	count, err := RepeatCount(multipliers...)
	if err != nil {
		return nil, err
	}

	out := &domain.Batch{
		RepeatCount: count,
		Results:     append([]domain.Result(nil), results...),
		Segments:    make([][]string, len(results)),
		Indices:     make([][]int, len(results)),
		Combined:    repeat(Combine(results), count),
	}
	for i, r := range results {
		out.Segments[i] = repeat(r.Segment, count)
		out.Indices[i] = repeat(r.Index, count)
	}
	return out, nil
}

// Combine joins the non-empty segments with a single space.
func Combine(results []domain.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Segment != "" {
			parts = append(parts, r.Segment)
		}
	}
	return strings.Join(parts, " ")
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}
