/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/datastore/disk"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/storagemodels"
)

// Store dispatches table operations to the backend each alias is
// registered with. It is safe for concurrent use; lifecycle operations
// (New, Open, Close, Destroy, SaveAs) are serialized, entry operations go
// straight to the backend table.
type Store struct {
	lifecycle sync.Mutex
	registry  *registry.Registry
	backends  map[storagemodels.Kind]datastore.Backend
	config    config.Config
	logger    *slog.Logger
}

// StoreOption is a functional option for configuring a Store
type StoreOption func(*Store)

// WithRegistry makes the Store record its tables in reg.
func WithRegistry(reg *registry.Registry) StoreOption {
	return func(s *Store) {
		s.registry = reg
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithConfig sets the data directory and the default table options.
func WithConfig(cfg config.Config) StoreOption {
	return func(s *Store) {
		s.config = cfg
	}
}

// WithBackend replaces the engine used for the backend's kind.
func WithBackend(b datastore.Backend) StoreOption {
	return func(s *Store) {
		s.backends[b.Kind()] = b
	}
}

// NewStore creates a Store with a fresh registry and the built-in memory
// and disk engines.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		registry: registry.New(),
		backends: map[storagemodels.Kind]datastore.Backend{
			storagemodels.KindMemory: memory.New(),
			storagemodels.KindDisk:   disk.New(),
		},
		config: config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the Store records its tables in.
func (s *Store) Registry() *registry.Registry {
	return s.registry
}

// Config returns the Store configuration.
func (s *Store) Config() config.Config {
	return s.config
}

// Exists reports whether alias is registered. It never touches a backend.
func (s *Store) Exists(alias storagemodels.Alias) bool {
	return s.registry.Exists(alias)
}

// ShowTables returns a snapshot of every registered table.
func (s *Store) ShowTables() []registry.TableRecord {
	return s.registry.List()
}

func (s *Store) resolve(alias storagemodels.Alias) (registry.TableRecord, error) {
	rec, ok := s.registry.Lookup(alias)
	if !ok {
		return rec, errors.NewNotRegisteredError(string(alias))
	}
	return rec, nil
}

func (s *Store) backend(kind storagemodels.Kind) (datastore.Backend, error) {
	b, ok := s.backends[kind]
	if !ok {
		return nil, errors.NewValidationError("storage", fmt.Sprintf("no backend for %s tables", kind))
	}
	return b, nil
}

// options layers caller options over the configured defaults.
func (s *Store) options(opts ...storagemodels.Option) storagemodels.Options {
	return storagemodels.NewOptions(s.config.StoreOptions(), opts...)
}

// diskPath resolves path against the data directory and cleans it. The
// result is the handle the disk table is registered under.
func (s *Store) diskPath(path string) (string, error) {
	if path == "" {
		return "", errors.NewValidationError("path", "must not be empty")
	}
	if !filepath.IsAbs(path) && s.config.DataDir != "" {
		path = filepath.Join(s.config.DataDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewValidationError("path", err.Error())
	}
	return abs, nil
}

func joinErrors(errs []error) error {
	return stderrors.Join(errs...)
}
