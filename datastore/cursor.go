/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// KeyCursor walks the keys of a table using only First and Next. Each call
// to Next issues one backend call. It holds no keys besides the current one,
// so it is safe on tables too large to enumerate eagerly. Mutating the table
// while a cursor is open is unsupported.
type KeyCursor struct {
	table   Table
	key     string
	started bool
	done    bool
	err     error
}

// NewKeyCursor returns a cursor positioned before the first key of t.
func NewKeyCursor(t Table) *KeyCursor {
	return &KeyCursor{table: t}
}

// Next advances the cursor. It returns false at the end of the table or on
// error; check Err to tell them apart.
func (c *KeyCursor) Next(ctx context.Context) bool {
	if c.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		c.done = true
		return false
	}

	var (
		key string
		err error
	)
	if !c.started {
		key, err = c.table.First(ctx)
		c.started = true
	} else {
		key, err = c.table.Next(ctx, c.key)
	}
	if err != nil {
		if !errors.IsEndOfTable(err) {
			c.err = err
		}
		c.done = true
		return false
	}
	c.key = key
	return true
}

// Key returns the key at the current position.
func (c *KeyCursor) Key() string {
	return c.key
}

// Err returns the first error other than end-of-table.
func (c *KeyCursor) Err() error {
	return c.err
}

// Reset rewinds the cursor to the start of the table.
func (c *KeyCursor) Reset() {
	c.key = ""
	c.started = false
	c.done = false
	c.err = nil
}

// Collect drains the cursor into a slice.
func (c *KeyCursor) Collect(ctx context.Context) ([]string, error) {
	var keys []string
	for c.Next(ctx) {
		keys = append(keys, c.Key())
	}
	return keys, c.Err()
}

// EntryCursor walks the objects of a table. Per key it issues one Next and
// one Lookup, then yields the objects stored under that key one at a time.
type EntryCursor struct {
	keys    *KeyCursor
	pending []storagemodels.Object
	current storagemodels.Object
	err     error
}

// NewEntryCursor returns a cursor positioned before the first object of t.
func NewEntryCursor(t Table) *EntryCursor {
	return &EntryCursor{keys: NewKeyCursor(t)}
}

// Next advances to the next object.
func (c *EntryCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	for len(c.pending) == 0 {
		if !c.keys.Next(ctx) {
			c.err = c.keys.Err()
			return false
		}
		objs, err := c.keys.table.Lookup(ctx, c.keys.Key())
		if err != nil {
			c.err = err
			return false
		}
		c.pending = objs
	}
	c.current = c.pending[0]
	c.pending = c.pending[1:]
	return true
}

// Object returns the object at the current position.
func (c *EntryCursor) Object() storagemodels.Object {
	return c.current
}

// Key returns the key of the current object.
func (c *EntryCursor) Key() string {
	return c.current.Key
}

// Value returns the value of the current object.
func (c *EntryCursor) Value() any {
	return c.current.Value
}

// Err returns the first error other than end-of-table.
func (c *EntryCursor) Err() error {
	return c.err
}

// Skip clears a lookup failure so that Next resumes at the following key.
// It returns false when the failure came from key traversal, which cannot
// resume.
func (c *EntryCursor) Skip() bool {
	if c.err == nil {
		return true
	}
	if c.keys.done {
		return false
	}
	c.err = nil
	return true
}

// Reset rewinds the cursor to the start of the table.
func (c *EntryCursor) Reset() {
	c.keys.Reset()
	c.pending = nil
	c.current = storagemodels.Object{}
	c.err = nil
}

// Collect drains the cursor into a slice.
func (c *EntryCursor) Collect(ctx context.Context) ([]storagemodels.Object, error) {
	var objs []storagemodels.Object
	for c.Next(ctx) {
		objs = append(objs, c.Object())
	}
	return objs, c.Err()
}
