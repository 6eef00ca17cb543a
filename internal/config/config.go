package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/adapters/document"
	"github.com/aretw0/selector/pkg/adapters/redis"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendDocument = "document"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendLoam     = "loam"
	BackendMemory   = "memory"
)

// EnvConfigPath names the config file when no --config flag is given.
const EnvConfigPath = "SELECTOR_CONFIG"

// Config is the full configuration of the CLI and its servers.
type Config struct {
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Lock       LockConfig       `mapstructure:"lock" yaml:"lock"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`
	Defaults   RequestDefaults  `mapstructure:"defaults" yaml:"defaults"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// StoreConfig selects and configures the state backend.
type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Path    string      `mapstructure:"path" yaml:"path"` // document file, or directory for file/loam
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LockConfig configures cross-replica locking. Only the redis backend supports it.
type LockConfig struct {
	Distributed bool          `mapstructure:"distributed" yaml:"distributed"`
	TTL         time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text | json
}

// EncryptionConfig enables the AES-GCM store middleware when Key is set.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key" yaml:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

// RequestDefaults fill in the parameters a host leaves empty.
type RequestDefaults struct {
	Key       string          `mapstructure:"key" yaml:"key"`
	Delimiter string          `mapstructure:"delimiter" yaml:"delimiter"`
	Behavior  domain.Behavior `mapstructure:"behavior" yaml:"behavior"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendDocument,
			Path:    document.DefaultPath,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: redis.DefaultPrefix,
			},
		},
		Lock: LockConfig{TTL: 30 * time.Second},
		Log:  LogConfig{Level: "info", Format: "text"},
		Defaults: RequestDefaults{
			Key:       domain.DefaultKey,
			Delimiter: domain.DefaultDelimiter,
			Behavior:  domain.DefaultBehavior,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
	}
}

// Load reads path (YAML or JSON) over the defaults. An empty path falls back to
// $SELECTOR_CONFIG, and to the plain defaults when that is unset too.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode merges a YAML (or JSON) document into cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Validate checks the values that cannot be caught by decoding.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendDocument, BackendFile, BackendLoam, BackendMemory:
		if c.Lock.Distributed {
			return fmt.Errorf("lock.distributed requires the %s backend", BackendRedis)
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the %s backend", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Defaults.Behavior != "" {
		b, err := domain.ParseBehavior(string(c.Defaults.Behavior))
		if err != nil {
			return err
		}
		c.Defaults.Behavior = b
	}
	return nil
}

// Apply fills the empty fields of req from the defaults.
// StartIndex is left alone: zero is a meaningful start index.
func (d RequestDefaults) Apply(req domain.Request) domain.Request {
	if req.Key == "" {
		req.Key = d.Key
	}
	if req.Delimiter == "" {
		req.Delimiter = d.Delimiter
	}
	if req.Behavior == "" {
		req.Behavior = d.Behavior
	}
	return req
}
