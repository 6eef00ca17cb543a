package loam

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/selector/pkg/domain"
)

const ext = ".json"

// Store adapts a Loam document repository to ports.StateStore.
// Every selector key is one JSON document whose metadata is a Record.
type Store struct {
	root string
	repo *loam.TypedRepository[Record]
}

// Open initializes (or reuses) a Loam repository at root.
// Versioning is disabled: selector state changes on every call and is not worth a commit each.
func Open(root string) (*Store, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure loam directory: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return &Store{
		root: absPath,
		repo: loam.NewTypedRepository[Record](repo),
	}, nil
}

func docID(key string) string {
	return url.PathEscape(key) + ext
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.root, docID(key))
}

// Save writes the state document for key.
func (s *Store) Save(ctx context.Context, key string, state *domain.State) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	err := s.repo.Save(ctx, &loam.DocumentModel[Record]{
		ID:   docID(key),
		Data: toRecord(key, state),
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", key, err)
	}
	return nil
}

// Load reads the state document for key.
func (s *Store) Load(ctx context.Context, key string) (*domain.State, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if _, err := os.Stat(s.filePath(key)); errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrStateNotFound
	}

	doc, err := s.repo.Get(ctx, docID(key))
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", key, err)
	}
	return doc.Data.toState(), nil
}

// Delete removes the backing file. The repository is unversioned, so there is no index to update.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	err := os.Remove(s.filePath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete state document: %w", err)
	}
	return nil
}

// List returns every key with a state document, in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		key := doc.Data.Key
		if key == "" {
			raw := filepath.Base(filepath.ToSlash(doc.ID))
			if key, err = url.PathUnescape(strings.TrimSuffix(raw, filepath.Ext(raw))); err != nil {
				continue
			}
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
