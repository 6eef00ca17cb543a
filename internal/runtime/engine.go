package runtime

import (
	"fmt"
	"math/rand/v2"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/segment"
)

// RandFunc returns a uniformly distributed integer in [0, n). n is always > 0.
type RandFunc func(n int) int

// Engine is the core selection state machine.
// It is pure: it never loads or persists state, it only computes the next one.
type Engine struct {
	rand RandFunc
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithRandom replaces the process-wide random source.
func WithRandom(fn RandFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.rand = fn
		}
	}
}

// NewEngine creates a new engine with dependencies.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		rand: rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the result of one Step.
type Outcome struct {
	// Result is the segment returned to the host for this call.
	Result domain.Result

	// NextIndex is the index persisted for the following call.
	NextIndex int

	// Reset reports that the stored collection differed from the observed one.
	Reset bool

	// PreviousTotal is the length of the stored collection before a reset.
	PreviousTotal int

	// State is the record to persist. Never the same pointer as the input.
	State *domain.State
}

// Step computes this run's index and the state for the next run.
// state may be nil on first use of a key; it is never mutated.
// collection must be non-empty: the degenerate empty case is handled by the caller
// because it must not touch state at all.
func (e *Engine) Step(state *domain.State, collection []string, behavior domain.Behavior, startIndex int) (Outcome, error) {
	if !behavior.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", domain.ErrInvalidBehavior, behavior)
	}
	length := len(collection)
	if length == 0 {
		return Outcome{}, fmt.Errorf("step requires a non-empty collection")
	}

	start := Clamp(startIndex, length)

	next := state.Clone()
	if next == nil {
		next = domain.NewState()
	}

	out := Outcome{}

	// 1. Invalidate progress recorded against a different collection.
	if !segment.Equal(next.Collection, collection) {
		out.Reset = next.Initialized || len(next.Collection) > 0
		out.PreviousTotal = len(next.Collection)
		next.Collection = append([]string(nil), collection...)
		next.Initialized = false
	}

	// 2. First run against this collection.
	if !next.Initialized {
		next.CurrentIndex = start
		next.Direction = domain.DirectionForward
		next.Initialized = true
	}
	if next.Direction != domain.DirectionBackward {
		next.Direction = domain.DirectionForward
	}

	// 3. Index for THIS run.
	var run int
	switch behavior {
	case domain.BehaviorFix:
		run = start
	case domain.BehaviorRandom:
		run = e.rand(length)
	default:
		run = next.CurrentIndex
	}
	run = Clamp(run, length)

	// 4. Index for the NEXT run.
	var nextIndex int
	switch behavior {
	case domain.BehaviorFix:
		nextIndex = start
	case domain.BehaviorRandom:
		// Independent draw: the persisted index is not the one just returned.
		nextIndex = e.rand(length)
	case domain.BehaviorIncrement:
		nextIndex = (run + 1) % length
	case domain.BehaviorDecrement:
		nextIndex = (run - 1 + length) % length
	case domain.BehaviorPingPong:
		nextIndex, next.Direction = bounce(run, length, next.Direction)
	}
	nextIndex = Clamp(nextIndex, length)

	next.CurrentIndex = nextIndex

	out.NextIndex = nextIndex
	out.State = next
	out.Result = domain.Result{
		Segment: collection[run],
		Index:   run,
		Total:   length,
	}
	return out, nil
}

// bounce advances one step in the current direction, reversing at either end.
// A single-element collection cannot move.
func bounce(run, length, direction int) (int, int) {
	if length <= 1 {
		return run, direction
	}
	if run <= 0 && direction == domain.DirectionBackward {
		direction = domain.DirectionForward
	} else if run >= length-1 && direction == domain.DirectionForward {
		direction = domain.DirectionBackward
	}
	return run + direction, direction
}

// Clamp bounds i to [0, length-1]. length must be positive.
func Clamp(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length-1 {
		return length - 1
	}
	return i
}
