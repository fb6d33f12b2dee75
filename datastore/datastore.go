/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/tablestore/storagemodels"
)

// Backend allocates and attaches tables of one storage kind.
// References (refs) are unique only within a backend.
type Backend interface {
	Kind() storagemodels.Kind

	// Create allocates a new empty table under ref.
	Create(ctx context.Context, ref string, opts storagemodels.Options) (Table, error)

	// Open attaches to an existing table under ref.
	Open(ctx context.Context, ref string, opts storagemodels.Options) (Table, error)
}

// Table is a handle on one backend table. Write semantics follow the
// table's entry type.
type Table interface {
	Ref() string

	EntryType() storagemodels.EntryType

	Insert(ctx context.Context, objs ...storagemodels.Object) error

	// Lookup returns every object stored under key; empty if absent.
	Lookup(ctx context.Context, key string) ([]storagemodels.Object, error)

	Member(ctx context.Context, key string) (bool, error)

	Delete(ctx context.Context, key string) error

	DeleteAll(ctx context.Context) error

	// First returns the first key, or errors.ErrEndOfTable.
	First(ctx context.Context) (string, error)

	// Next returns the key following key, or errors.ErrEndOfTable.
	Next(ctx context.Context, key string) (string, error)

	// Size returns the number of stored objects.
	Size(ctx context.Context) (int, error)

	Info(ctx context.Context) (storagemodels.Info, error)

	// InfoField returns one field of the descriptor. Fields outside the
	// backend's allow-list yield a validation error.
	InfoField(ctx context.Context, field string) (any, error)

	Sync(ctx context.Context) error

	// Close releases the handle. Memory tables are dropped with their
	// contents.
	Close(ctx context.Context) error
}
