/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// Typed is a view of one table whose values all have type V. It adds type
// checks on the way out; the table itself is untyped.
type Typed[V any] struct {
	store *Store
	alias storagemodels.Alias
}

// NewTyped returns a typed view of the table registered as alias. The alias
// is resolved on every call, so the view survives Close and Open.
func NewTyped[V any](s *Store, alias storagemodels.Alias) *Typed[V] {
	return &Typed[V]{store: s, alias: alias}
}

// Alias returns the alias the view reads.
func (t *Typed[V]) Alias() storagemodels.Alias {
	return t.alias
}

// Get returns the first value under key and whether one was found.
func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	values, err := t.GetAll(ctx, key)
	if err != nil || len(values) == 0 {
		return zero, false, err
	}
	return values[0], true, nil
}

// GetAll returns every value under key, which for set tables is at most one.
func (t *Typed[V]) GetAll(ctx context.Context, key string) ([]V, error) {
	rec, err := t.store.resolve(t.alias)
	if err != nil {
		return nil, err
	}
	objs, err := rec.Table.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}

	values := make([]V, 0, len(objs))
	for _, obj := range objs {
		v, err := t.cast(obj)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Put stores v under key.
func (t *Typed[V]) Put(ctx context.Context, key string, v V) error {
	_, err := t.store.Put(ctx, t.alias, key, v)
	return err
}

// Delete removes every value under key.
func (t *Typed[V]) Delete(ctx context.Context, key string) error {
	_, err := t.store.Delete(ctx, t.alias, key)
	return err
}

// Each calls fn for every object in iteration order and stops at the first
// error fn returns.
func (t *Typed[V]) Each(ctx context.Context, fn func(key string, v V) error) error {
	cursor, err := t.store.ToStream(ctx, t.alias)
	if err != nil {
		return err
	}
	for cursor.Next(ctx) {
		v, err := t.cast(cursor.Object())
		if err != nil {
			return err
		}
		if err := fn(cursor.Key(), v); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// ToMap returns the table as a map of V. Bag tables keep the last value per
// key.
func (t *Typed[V]) ToMap(ctx context.Context) (map[string]V, error) {
	m := make(map[string]V)
	err := t.Each(ctx, func(key string, v V) error {
		m[key] = v
		return nil
	})
	return m, err
}

func (t *Typed[V]) cast(obj storagemodels.Object) (V, error) {
	v, ok := obj.Value.(V)
	if !ok {
		var zero V
		return zero, errors.NewValidationError("value", fmt.Sprintf("key %q of table %s holds %T, not %T", obj.Key, t.alias, obj.Value, zero))
	}
	return v, nil
}
