/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/datastore/disk"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/storagemodels"
)

// SaveAs writes the table registered as alias to the file at target.
//
// A disk table saved to its own file is just synced. A disk table saved
// elsewhere is closed, copied, and reopened at its original path. A memory
// table is written to a fresh disk table with the same entry type; bag
// multiplicity is preserved. The source stays registered either way.
//
// target must not back another open table, and must not exist unless
// WithOverwrite(true) is passed.
func (s *Store) SaveAs(ctx context.Context, alias storagemodels.Alias, target string, opts ...storagemodels.Option) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	rec, err := s.resolve(alias)
	if err != nil {
		return err
	}
	path, err := s.diskPath(target)
	if err != nil {
		return err
	}
	o := storagemodels.NewOptions(storagemodels.Options{}, opts...)

	if rec.Kind == storagemodels.KindDisk && rec.Handle == path {
		s.logger.DebugContext(ctx, "save to own file, syncing", "alias", alias, "path", path)
		return rec.Table.Sync(ctx)
	}
	if err := s.checkTarget(path, o.Overwrite); err != nil {
		return err
	}

	if rec.Kind == storagemodels.KindDisk {
		return s.copyDisk(ctx, rec, path)
	}
	return s.dumpMemory(ctx, rec, path, o.Overwrite)
}

func (s *Store) checkTarget(path string, overwrite bool) error {
	if other, ok := s.registry.FindHandle(storagemodels.KindDisk, path); ok {
		return errors.NewFileConflictError(path, fmt.Sprintf("in use by table %s", other.Alias))
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.NewFileConflictError(path, "file exists, pass WithOverwrite(true) to replace it")
	}
	return nil
}

// copyDisk releases the source handle for the duration of the copy, since a
// table file is held by one handle at a time.
func (s *Store) copyDisk(ctx context.Context, rec registry.TableRecord, path string) error {
	b, err := s.backend(storagemodels.KindDisk)
	if err != nil {
		return err
	}

	if err := rec.Table.Sync(ctx); err != nil {
		return err
	}
	if err := rec.Table.Close(ctx); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "copying table file", "alias", rec.Alias, "from", rec.Handle, "to", path)
	copyErr := disk.CopyFile(rec.Handle, path)

	table, err := b.Open(ctx, rec.Handle, rec.Options)
	if err != nil {
		s.registry.Unregister(rec.Alias)
		if copyErr != nil {
			return fmt.Errorf("copy failed: %w; reopen failed: %w", copyErr, err)
		}
		return fmt.Errorf("reopen %s: %w", rec.Handle, err)
	}
	rec.Table = table
	s.registry.Register(rec.Alias, rec)

	if copyErr != nil {
		return errors.NewBackendError("disk", "save_as", copyErr)
	}
	return nil
}

func (s *Store) dumpMemory(ctx context.Context, rec registry.TableRecord, path string, overwrite bool) error {
	b, err := s.backend(storagemodels.KindDisk)
	if err != nil {
		return err
	}

	objs, err := datastore.NewEntryCursor(rec.Table).Collect(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewBackendError("disk", "save_as", err)
	}

	// Build next to the target and rename over it once the table is
	// complete, so a failed write never costs the existing file.
	tmp := filepath.Join(filepath.Dir(path), ".tmp-"+uuid.NewString()+filepath.Ext(path))
	o := s.config.StoreOptions()
	o.EntryType = rec.EntryType
	table, err := b.Create(ctx, tmp, o)
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "writing memory table to disk", "alias", rec.Alias, "path", path, "objects", len(objs))
	fail := func(err error) error {
		table.Close(ctx)
		os.Remove(tmp)
		return err
	}
	if len(objs) > 0 {
		if err := table.Insert(ctx, objs...); err != nil {
			return fail(err)
		}
	}
	if err := table.Sync(ctx); err != nil {
		return fail(err)
	}
	if err := table.Close(ctx); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := s.checkTarget(path, overwrite); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.NewBackendError("disk", "save_as", err)
	}
	return nil
}

// Info returns the descriptor of the table: a *storagemodels.MemoryInfo or
// a *storagemodels.DiskInfo.
func (s *Store) Info(ctx context.Context, alias storagemodels.Alias) (storagemodels.Info, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return nil, err
	}
	return rec.Table.Info(ctx)
}

// InfoField returns one field of the table descriptor. Each backend accepts
// its own set of field names.
func (s *Store) InfoField(ctx context.Context, alias storagemodels.Alias, field string) (any, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return nil, err
	}
	return rec.Table.InfoField(ctx, field)
}
