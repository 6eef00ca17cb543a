// Package document persists every selector key in one human-readable document.
//
// The document is a key→record mapping, written as indented JSON or as YAML
// depending on the file extension. It is read once when the store is opened and
// rewritten after every mutation.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the document name used when none is configured.
const DefaultPath = "dynamic_prompt_selector.state.json"

// Store implements ports.StateStore and ports.Snapshotter over a single document.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*domain.State
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for malformed-document warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates a store backed by the document at path and loads it once.
// A missing or malformed document starts the store empty.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		path:   path,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	states, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.states = states
	s.logger.Debug("Loaded selector states", "path", path, "count", len(states))
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadAll reads the document from disk.
// Only an unreadable file is an error; absent or malformed content yields an empty mapping.
func (s *Store) LoadAll(ctx context.Context) (map[string]*domain.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*domain.State{}, nil
		}
		s.logger.Warn("State document unreadable, starting empty", "path", s.path, "err", err)
		return map[string]*domain.State{}, nil
	}

	states := map[string]*domain.State{}
	if len(bytes.TrimSpace(data)) == 0 {
		return states, nil
	}

	if s.isYAML() {
		err = yaml.Unmarshal(data, &states)
	} else {
		err = json.Unmarshal(data, &states)
	}
	if err != nil {
		s.logger.Warn("State document malformed, starting empty", "path", s.path, "err", err)
		return map[string]*domain.State{}, nil
	}

	for k, v := range states {
		if v == nil {
			delete(states, k)
			continue
		}
		v.Normalize()
	}
	return states, nil
}

// SaveAll writes the whole mapping, replacing the document atomically.
func (s *Store) SaveAll(ctx context.Context, states map[string]*domain.State) error {
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(states)
	} else {
		data, err = json.MarshalIndent(states, "", "    ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal state document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.partial")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write state document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync state document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state document: %w", err)
	}
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(s.path); err == nil {
			if err := os.Remove(s.path); err != nil {
				return fmt.Errorf("failed to replace state document: %w", err)
			}
		}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename state document: %w", err)
	}
	return nil
}

// Save stores the record for key and rewrites the document.
// The in-memory mapping is only updated once the write succeeded.
func (s *Store) Save(ctx context.Context, key string, state *domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*domain.State, len(s.states)+1)
	for k, v := range s.states {
		next[k] = v
	}
	next[key] = state.Clone()

	if err := s.SaveAll(ctx, next); err != nil {
		return err
	}
	s.states = next
	return nil
}

// Load returns a copy of the record for key.
func (s *Store) Load(ctx context.Context, key string) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return state.Clone(), nil
}

// Delete removes the record for key and rewrites the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[key]; !ok {
		return nil
	}
	next := make(map[string]*domain.State, len(s.states))
	for k, v := range s.states {
		if k != key {
			next[k] = v
		}
	}
	if err := s.SaveAll(ctx, next); err != nil {
		return err
	}
	s.states = next
	return nil
}

// List returns every key in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
