/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// Predicate decides whether an entry matches in Filter and Reject.
type Predicate func(key string, value any) bool

// Keys returns every key of the table in iteration order.
func (s *Store) Keys(ctx context.Context, alias storagemodels.Alias) ([]string, error) {
	cursor, err := s.KeysStream(ctx, alias)
	if err != nil {
		return nil, err
	}
	return cursor.Collect(ctx)
}

// KeysStream returns a lazy cursor over the keys of the table.
func (s *Store) KeysStream(ctx context.Context, alias storagemodels.Alias) (*datastore.KeyCursor, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return nil, err
	}
	return datastore.NewKeyCursor(rec.Table), nil
}

// ToList returns every object of the table. An unregistered alias or a
// failed scan yields an empty list.
func (s *Store) ToList(ctx context.Context, alias storagemodels.Alias) []storagemodels.Object {
	rec, ok := s.registry.Lookup(alias)
	if !ok {
		return []storagemodels.Object{}
	}
	objs, err := datastore.NewEntryCursor(rec.Table).Collect(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "scan failed", "alias", alias, "error", err)
		return []storagemodels.Object{}
	}
	return objs
}

// ToMap folds the table into a map. Bag tables keep the last value scanned
// for each key. An unregistered alias yields an empty map.
func (s *Store) ToMap(ctx context.Context, alias storagemodels.Alias) map[string]any {
	objs := s.ToList(ctx, alias)
	m := make(map[string]any, len(objs))
	for _, obj := range objs {
		m[obj.Key] = obj.Value
	}
	return m
}

// ToStream returns a lazy cursor over the objects of the table.
func (s *Store) ToStream(ctx context.Context, alias storagemodels.Alias) (*datastore.EntryCursor, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return nil, err
	}
	return datastore.NewEntryCursor(rec.Table), nil
}

// Stream delivers the objects of the table on a channel that is closed when
// the scan ends, fails, or ctx is cancelled. Failures arrive as a result
// with Error set; an ErrorHandler returning true skips past them.
func (s *Store) Stream(ctx context.Context, alias storagemodels.Alias, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}

	cursor, err := s.ToStream(ctx, alias)
	if err != nil {
		// Nobody is receiving yet, so the single result needs room of its own.
		failed := make(chan storagemodels.StreamResult, 1)
		failed <- storagemodels.StreamResult{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}
		close(failed)
		return failed
	}

	out := make(chan storagemodels.StreamResult, options.BufferSize)

	go func() {
		defer close(out)

		progress := storagemodels.StreamProgress{StartTime: time.Now()}
		report := func() {
			if options.ProgressHandler == nil {
				return
			}
			if elapsed := time.Since(progress.StartTime).Seconds(); elapsed > 0 {
				progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
			}
			options.ProgressHandler(progress)
		}

		send := func(r storagemodels.StreamResult) bool {
			select {
			case out <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var index int64
		for {
			if cursor.Next(ctx) {
				obj := cursor.Object()
				if !send(storagemodels.StreamResult{
					Item: obj,
					Meta: storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
				}) {
					return
				}
				index++
				progress.ItemsProcessed++
				progress.LastKey = obj.Key
				if options.ProgressInterval > 0 && progress.ItemsProcessed%options.ProgressInterval == 0 {
					report()
				}
				continue
			}

			err := cursor.Err()
			if err == nil {
				report()
				return
			}
			progress.Errors = append(progress.Errors, err)
			if options.ErrorHandler != nil && options.ErrorHandler(err) && cursor.Skip() {
				continue
			}
			send(storagemodels.StreamResult{
				Error: err,
				Meta:  storagemodels.StreamMeta{Index: index, Timestamp: time.Now()},
			})
			report()
			return
		}
	}()
	return out
}

// Merge writes every object of source into the table, source values winning
// on key collisions. source may be an Alias, a map[string]any, a
// []storagemodels.Object, or a storagemodels.Source.
func (s *Store) Merge(ctx context.Context, alias storagemodels.Alias, source any) (storagemodels.Alias, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return alias, err
	}

	objs, err := s.sourceObjects(ctx, source)
	if err != nil {
		return alias, err
	}
	if len(objs) == 0 {
		return alias, nil
	}
	if err := rec.Table.Insert(ctx, objs...); err != nil {
		return alias, err
	}
	return alias, nil
}

func (s *Store) sourceObjects(ctx context.Context, source any) ([]storagemodels.Object, error) {
	switch src := source.(type) {
	case storagemodels.Alias:
		return s.sourceObjects(ctx, storagemodels.AliasSource{Alias: src})
	case map[string]any:
		return s.sourceObjects(ctx, storagemodels.MapSource(src))
	case []storagemodels.Object:
		return src, nil
	case storagemodels.AliasSource:
		rec, err := s.resolve(src.Alias)
		if err != nil {
			return nil, err
		}
		return datastore.NewEntryCursor(rec.Table).Collect(ctx)
	case storagemodels.MapSource:
		keys := make([]string, 0, len(src))
		for k := range src {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		objs := make([]storagemodels.Object, len(keys))
		for i, k := range keys {
			objs[i] = storagemodels.Object{Key: k, Value: src[k]}
		}
		return objs, nil
	case storagemodels.ObjectsSource:
		return src, nil
	}
	return nil, errors.NewValidationError("source", fmt.Sprintf("unsupported merge source %T", source))
}

// Filter keeps the entries pred accepts and deletes the rest.
func (s *Store) Filter(ctx context.Context, alias storagemodels.Alias, pred Predicate) error {
	return s.prune(ctx, alias, pred, true)
}

// Reject deletes the entries pred accepts.
func (s *Store) Reject(ctx context.Context, alias storagemodels.Alias, pred Predicate) error {
	return s.prune(ctx, alias, pred, false)
}

// prune scans the whole table first and only then deletes, since cursors
// do not tolerate mutation. Bag keys with mixed outcomes are rewritten with
// their surviving values.
func (s *Store) prune(ctx context.Context, alias storagemodels.Alias, pred Predicate, keep bool) error {
	rec, err := s.resolve(alias)
	if err != nil {
		return err
	}

	objs, err := datastore.NewEntryCursor(rec.Table).Collect(ctx)
	if err != nil {
		return err
	}

	var (
		order     []string
		survivors = make(map[string][]storagemodels.Object)
		dropped   = make(map[string]bool)
	)
	for _, obj := range objs {
		if _, seen := survivors[obj.Key]; !seen {
			order = append(order, obj.Key)
			survivors[obj.Key] = nil
		}
		if pred(obj.Key, obj.Value) == keep {
			survivors[obj.Key] = append(survivors[obj.Key], obj)
		} else {
			dropped[obj.Key] = true
		}
	}

	for _, key := range order {
		if !dropped[key] {
			continue
		}
		if err := rec.Table.Delete(ctx, key); err != nil {
			return err
		}
		if kept := survivors[key]; len(kept) > 0 {
			if err := rec.Table.Insert(ctx, kept...); err != nil {
				return err
			}
		}
	}
	return nil
}

// Truncate deletes every entry while keeping the table and its options.
func (s *Store) Truncate(ctx context.Context, alias storagemodels.Alias) (storagemodels.Alias, error) {
	rec, err := s.resolve(alias)
	if err != nil {
		return alias, err
	}
	if err := rec.Table.DeleteAll(ctx); err != nil {
		return alias, err
	}
	return alias, nil
}
