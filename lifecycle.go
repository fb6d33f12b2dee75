/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/suparena/tablestore/datastore/disk"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/storagemodels"
)

// New creates a table and registers it under alias.
//
// For memory storage New is idempotent: an alias that is already registered
// is returned unchanged. For disk storage New only creates fresh tables; an
// existing file yields a CreationConflictError and must be opened with Open.
func (s *Store) New(ctx context.Context, alias storagemodels.Alias, storage storagemodels.Storage, opts ...storagemodels.Option) (storagemodels.Alias, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	o := s.options(opts...)
	switch storage.Kind {
	case storagemodels.KindMemory:
		return s.newMemory(ctx, alias, o)
	case storagemodels.KindDisk:
		return s.newDisk(ctx, alias, storage.Path, o)
	}
	return "", errors.NewValidationError("storage", fmt.Sprintf("unknown storage kind %s", storage.Kind))
}

// Open attaches to a table and registers it under alias.
//
// For memory storage Open is the same as New. For disk storage the file
// must exist and hold a valid table, unless WithCreate(true) is passed, in
// which case a missing file is created as New would.
func (s *Store) Open(ctx context.Context, alias storagemodels.Alias, storage storagemodels.Storage, opts ...storagemodels.Option) (storagemodels.Alias, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	o := s.options(opts...)
	switch storage.Kind {
	case storagemodels.KindMemory:
		return s.newMemory(ctx, alias, o)
	case storagemodels.KindDisk:
		return s.openDisk(ctx, alias, storage.Path, o)
	}
	return "", errors.NewValidationError("storage", fmt.Sprintf("unknown storage kind %s", storage.Kind))
}

func (s *Store) newMemory(ctx context.Context, alias storagemodels.Alias, o storagemodels.Options) (storagemodels.Alias, error) {
	if alias == "" {
		return "", errors.NewValidationError("alias", "must not be empty")
	}
	if rec, ok := s.registry.Lookup(alias); ok {
		s.logger.DebugContext(ctx, "table already registered", "alias", alias, "kind", rec.Kind)
		return alias, nil
	}

	b, err := s.backend(storagemodels.KindMemory)
	if err != nil {
		return "", err
	}

	handle := string(alias)
	if o.Unnamed {
		handle = uuid.NewString()
	}

	table, err := b.Create(ctx, handle, o)
	if err != nil {
		return "", err
	}

	s.registry.Register(alias, registry.TableRecord{
		Kind:      storagemodels.KindMemory,
		Handle:    handle,
		EntryType: o.EntryType,
		Options:   o,
		Table:     table,
		CreatedAt: strfmt.DateTime(time.Now()),
	})
	s.logger.DebugContext(ctx, "created table", "alias", alias, "kind", storagemodels.KindMemory, "type", o.EntryType)
	return alias, nil
}

func (s *Store) newDisk(ctx context.Context, alias storagemodels.Alias, path string, o storagemodels.Options) (storagemodels.Alias, error) {
	if alias == "" {
		return "", errors.NewValidationError("alias", "must not be empty")
	}
	path, err := s.diskPath(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return "", errors.NewCreationConflictError(path)
	}
	if rec, ok := s.registry.FindHandle(storagemodels.KindDisk, path); ok {
		return "", errors.NewFileConflictError(path, fmt.Sprintf("in use by table %s", rec.Alias))
	}
	if s.registry.Exists(alias) {
		return "", errors.NewAlreadyExistsError("table", string(alias))
	}

	b, err := s.backend(storagemodels.KindDisk)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.NewBackendError("disk", "create", err)
	}

	table, err := b.Create(ctx, path, o)
	if err != nil {
		return "", err
	}

	s.registry.Register(alias, registry.TableRecord{
		Kind:      storagemodels.KindDisk,
		Handle:    path,
		EntryType: table.EntryType(),
		Options:   o,
		Table:     table,
		CreatedAt: strfmt.DateTime(time.Now()),
	})
	s.logger.DebugContext(ctx, "created table", "alias", alias, "kind", storagemodels.KindDisk, "path", path, "type", o.EntryType)
	return alias, nil
}

func (s *Store) openDisk(ctx context.Context, alias storagemodels.Alias, path string, o storagemodels.Options) (storagemodels.Alias, error) {
	if alias == "" {
		return "", errors.NewValidationError("alias", "must not be empty")
	}
	path, err := s.diskPath(path)
	if err != nil {
		return "", err
	}

	if rec, ok := s.registry.FindHandle(storagemodels.KindDisk, path); ok {
		if rec.Alias == alias {
			s.logger.DebugContext(ctx, "table already open", "alias", alias, "path", path)
			return alias, nil
		}
		return "", errors.NewFileConflictError(path, fmt.Sprintf("in use by table %s", rec.Alias))
	}
	if s.registry.Exists(alias) {
		return "", errors.NewAlreadyExistsError("table", string(alias))
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return "", errors.NewBackendError("disk", "open", err)
		}
		if !o.Create {
			return "", errors.NewFileNotFoundError(path)
		}
		return s.newDisk(ctx, alias, path, o)
	}

	if err := disk.Validate(path); err != nil {
		return "", err
	}

	b, err := s.backend(storagemodels.KindDisk)
	if err != nil {
		return "", err
	}
	table, err := b.Open(ctx, path, o)
	if err != nil {
		return "", err
	}

	s.registry.Register(alias, registry.TableRecord{
		Kind:      storagemodels.KindDisk,
		Handle:    path,
		EntryType: table.EntryType(),
		Options:   o,
		Table:     table,
		CreatedAt: strfmt.DateTime(time.Now()),
	})
	s.logger.DebugContext(ctx, "opened table", "alias", alias, "path", path, "type", table.EntryType())
	return alias, nil
}

// Close releases the table registered as alias and unregisters it. Memory
// tables are dropped with their contents, as Destroy does. Disk tables are
// flushed and keep their file; Open them again to resume.
func (s *Store) Close(ctx context.Context, alias storagemodels.Alias) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	rec, err := s.resolve(alias)
	if err != nil {
		return err
	}
	if rec.Kind == storagemodels.KindMemory {
		return s.destroyLocked(ctx, rec)
	}

	if err := rec.Table.Sync(ctx); err != nil {
		return err
	}
	if err := rec.Table.Close(ctx); err != nil {
		return err
	}
	s.registry.Unregister(alias)
	s.logger.DebugContext(ctx, "closed table", "alias", alias, "path", rec.Handle)
	return nil
}

// Destroy drops the table registered as alias, removing the backing file of
// disk tables, and unregisters it.
func (s *Store) Destroy(ctx context.Context, alias storagemodels.Alias) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	rec, err := s.resolve(alias)
	if err != nil {
		return err
	}
	return s.destroyLocked(ctx, rec)
}

func (s *Store) destroyLocked(ctx context.Context, rec registry.TableRecord) error {
	if err := rec.Table.Close(ctx); err != nil {
		return err
	}
	if rec.Kind == storagemodels.KindDisk {
		if err := os.Remove(rec.Handle); err != nil && !os.IsNotExist(err) {
			return errors.NewBackendError("disk", "destroy", err)
		}
	}
	s.registry.Unregister(rec.Alias)
	s.logger.DebugContext(ctx, "destroyed table", "alias", rec.Alias, "kind", rec.Kind)
	return nil
}

// CloseAll closes every registered table and empties the registry. Errors
// from individual tables are joined; the remaining tables are still closed.
func (s *Store) CloseAll(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	var errs []error
	for _, rec := range s.registry.List() {
		if rec.Kind == storagemodels.KindDisk {
			if err := rec.Table.Sync(ctx); err != nil {
				errs = append(errs, fmt.Errorf("table %s: %w", rec.Alias, err))
			}
		}
		if err := rec.Table.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("table %s: %w", rec.Alias, err))
		}
	}
	s.registry.Flush()
	return joinErrors(errs)
}
