package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/internal/runtime"
	"github.com/aretw0/selector/pkg/adapters/memory"
	"github.com/aretw0/selector/pkg/batch"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/ports"
	"github.com/aretw0/selector/pkg/segment"
	"github.com/aretw0/selector/pkg/session"
)

// Engine is the high-level entry point for the selector library.
// It owns the load, compute, persist cycle around the pure runtime.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager

	store       ports.StateStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where selector state is kept. Defaults to an in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes keys across replicas sharing the same store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRandom replaces the process-wide random source used by the random behavior.
// fn must return a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRandom(fn))
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithLockTTL(eng.lockTTL),
	}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}

	eng.runtime = runtime.NewEngine(eng.runtimeOpts...)
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	return eng
}

// Select picks the segment for this call and persists the position for the next one.
//
// Input that yields no segments returns the zero Result without loading or saving state.
// A failed save is returned as an error wrapping domain.ErrPersistence.
func (e *Engine) Select(ctx context.Context, req domain.Request) (domain.Result, error) {
	key := keyOrDefault(req.Key)
	behavior, err := resolveBehavior(req.Behavior)
	if err != nil {
		return domain.Result{}, err
	}

	collection := segment.Split(req.Text, req.Delimiter)
	if len(collection) == 0 {
		e.logger.Debug("No segments in input, skipping", "key", key)
		return domain.Result{}, nil
	}

	var result domain.Result
	err = e.sessions.WithLock(ctx, key, func(ctx context.Context) error {
		previous := e.load(ctx, key)

		out, err := e.runtime.Step(previous, collection, behavior, req.StartIndex)
		if err != nil {
			return err
		}
		out.State.UpdatedAt = e.now().UTC()

		if out.Reset {
			e.logger.Debug("Collection changed, resetting progress",
				"key", key,
				"previous_total", out.PreviousTotal,
				"total", len(collection),
			)
			if e.hooks.OnReset != nil {
				e.hooks.OnReset(ctx, &domain.ResetEvent{
					EventBase:     e.event(domain.EventReset, key),
					PreviousTotal: out.PreviousTotal,
					Total:         len(collection),
				})
			}
		}

		e.logger.Debug("Segment selected",
			"key", key,
			"behavior", behavior,
			"index_before", indexBefore(previous),
			"run_index", out.Result.Index,
			"next_index", out.NextIndex,
			"total", out.Result.Total,
		)

		if err := e.sessions.Store().Save(ctx, key, out.State); err != nil {
			perr := fmt.Errorf("%w for key %q: %w", domain.ErrPersistence, key, err)
			e.logger.Error("Failed to persist selector state", "key", key, "err", err)
			if e.hooks.OnPersistError != nil {
				e.hooks.OnPersistError(ctx, &domain.PersistErrorEvent{
					EventBase: e.event(domain.EventPersistError, key),
					Err:       perr,
				})
			}
			return perr
		}

		if e.hooks.OnSelect != nil {
			e.hooks.OnSelect(ctx, &domain.SelectEvent{
				EventBase: e.event(domain.EventSelect, key),
				Behavior:  behavior,
				Index:     out.Result.Index,
				NextIndex: out.NextIndex,
				Total:     out.Result.Total,
				Segment:   out.Result.Segment,
			})
		}
		result = out.Result
		return nil
	})
	if err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

// Batch evaluates every item once and repeats the results by the product of their multipliers.
// Multipliers are validated before any selection runs, so a bad configuration mutates nothing.
func (e *Engine) Batch(ctx context.Context, items []domain.BatchItem) (*domain.Batch, error) {
	multipliers := make([]int, len(items))
	for i, item := range items {
		multipliers[i] = item.Repeat
	}
	if _, err := batch.RepeatCount(multipliers...); err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, err := resolveBehavior(item.Behavior); err != nil {
			return nil, err
		}
	}

	results := make([]domain.Result, len(items))
	for i, item := range items {
		res, err := e.Select(ctx, item.Request)
		if err != nil {
			return nil, fmt.Errorf("batch item %d (%s): %w", i, keyOrDefault(item.Key), err)
		}
		results[i] = res
	}
	return batch.Expand(results, multipliers...)
}

// Inspect returns the stored state for key, or domain.ErrStateNotFound.
func (e *Engine) Inspect(ctx context.Context, key string) (*domain.State, error) {
	return e.sessions.Load(ctx, keyOrDefault(key))
}

// Keys lists every selector key that has stored state.
func (e *Engine) Keys(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Reset discards the stored state for key; the next call starts from its start index.
func (e *Engine) Reset(ctx context.Context, key string) error {
	key = keyOrDefault(key)
	if err := e.sessions.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w for key %q: %w", domain.ErrPersistence, key, err)
	}
	e.logger.Debug("Selector state removed", "key", key)
	return nil
}

// load returns the stored state, or nil when there is none or it cannot be read.
// Unreadable state degrades to a fresh start instead of failing the call.
func (e *Engine) load(ctx context.Context, key string) *domain.State {
	state, err := e.sessions.Store().Load(ctx, key)
	if err == nil {
		return state
	}
	if !errors.Is(err, domain.ErrStateNotFound) {
		e.logger.Warn("Failed to load selector state, starting fresh", "key", key, "err", err)
	}
	return nil
}

func (e *Engine) event(t domain.EventType, key string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now().UTC(), Type: t, Key: key}
}

func keyOrDefault(key string) string {
	if key == "" {
		return domain.DefaultKey
	}
	return key
}

func resolveBehavior(b domain.Behavior) (domain.Behavior, error) {
	if b == "" {
		return domain.DefaultBehavior, nil
	}
	if b.Valid() {
		return b, nil
	}
	return domain.ParseBehavior(string(b))
}

func indexBefore(state *domain.State) any {
	if state == nil || !state.Initialized {
		return nil
	}
	return state.CurrentIndex
}

var _ ports.Selector = (*Engine)(nil)
