package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/internal/config"
	"github.com/aretw0/selector/pkg/adapters/document"
	"github.com/aretw0/selector/pkg/adapters/file"
	loamAdapter "github.com/aretw0/selector/pkg/adapters/loam"
	"github.com/aretw0/selector/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/selector/pkg/adapters/redis"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/persistence/middleware"
	"github.com/aretw0/selector/pkg/ports"
)

// Default directories for the backends that keep one record per key.
const (
	DefaultFileDir = ".selector/states"
	DefaultLoamDir = ".selector/loam"
)

// Closer releases the resources opened by a factory.
type Closer func() error

func nopCloser() error { return nil }

// OpenStore builds the state store described by cfg, wrapped in the encryption
// middleware when a key is configured. The returned locker is non-nil only when
// distributed locking is enabled.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.StateStore, ports.DistributedLocker, Closer, error) {
	var (
		store  ports.StateStore
		locker ports.DistributedLocker
		closer Closer = nopCloser
	)

	switch cfg.Store.Backend {
	case config.BackendDocument, "":
		path := cfg.Store.Path
		if path == "" {
			path = document.DefaultPath
		}
		doc, err := document.Open(ctx, path, document.WithLogger(logger))
		if err != nil {
			return nil, nil, nil, err
		}
		store = doc

	case config.BackendFile:
		store = file.New(dirOrDefault(cfg.Store.Path, DefaultFileDir))

	case config.BackendLoam:
		repo, err := loamAdapter.Open(dirOrDefault(cfg.Store.Path, DefaultLoamDir))
		if err != nil {
			return nil, nil, nil, err
		}
		store = repo

	case config.BackendRedis:
		rc := cfg.Store.Redis
		rs := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
			redisAdapter.WithPrefix(rc.Prefix),
			redisAdapter.WithTTL(rc.TTL),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", rc.Addr, err)
		}
		store = rs
		closer = rs.Close
		if cfg.Lock.Distributed {
			locker = redisAdapter.NewLocker(rs.Client(), rc.Prefix)
		}

	case config.BackendMemory:
		store = memory.NewStore()

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Encryption.Key != "" {
		mw, err := encryptionMiddleware(cfg.Encryption)
		if err != nil {
			_ = closer()
			return nil, nil, nil, err
		}
		store = middleware.Chain(store, mw)
	}

	logger.Debug("State store ready", "backend", cfg.Store.Backend, "encrypted", cfg.Encryption.Key != "")
	return store, locker, closer, nil
}

// NewEngine initializes a selector engine with standard CLI conventions.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...selector.Option) (*selector.Engine, Closer, error) {
	store, locker, closer, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing store: %w", err)
	}

	opts := []selector.Option{
		selector.WithStore(store),
		selector.WithLogger(logger),
		selector.WithLockTTL(cfg.Lock.TTL),
	}
	if locker != nil {
		opts = append(opts, selector.WithLocker(locker))
	}
	opts = append(opts, extra...)

	return selector.New(opts...), closer, nil
}

func encryptionMiddleware(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("encryption.key: %w", err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, raw := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec), nil
}

// dirOrDefault keeps the document file name from being used as a directory.
func dirOrDefault(path, fallback string) string {
	if path == "" || path == document.DefaultPath {
		return fallback
	}
	return path
}

// createDebugHooks logs every engine event at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSelect: func(ctx context.Context, e *domain.SelectEvent) {
			logger.Debug("Select", "key", e.Key, "behavior", e.Behavior, "index", e.Index, "next_index", e.NextIndex)
		},
		OnReset: func(ctx context.Context, e *domain.ResetEvent) {
			logger.Debug("Reset", "key", e.Key, "previous_total", e.PreviousTotal, "total", e.Total)
		},
		OnPersistError: func(ctx context.Context, e *domain.PersistErrorEvent) {
			logger.Debug("Persist Error", "key", e.Key, "err", e.Err)
		},
	}
}

// DebugHooks exposes createDebugHooks to the commands, merged after any other hooks.
func DebugHooks(logger *slog.Logger, others ...domain.LifecycleHooks) selector.Option {
	hooks := createDebugHooks(logger)
	for _, h := range others {
		hooks = h.Merge(hooks)
	}
	return selector.WithLifecycleHooks(hooks)
}
