/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides the in-memory table backend
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

const backendName = "memory"

// Backend owns the namespace of in-memory tables. Refs are unique per
// Backend instance.
type Backend struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// New creates a new memory Backend
func New() *Backend {
	return &Backend{
		tables: make(map[string]*Table),
	}
}

// Kind implements datastore.Backend
func (b *Backend) Kind() storagemodels.Kind {
	return storagemodels.KindMemory
}

// Create allocates an empty table under ref
func (b *Backend) Create(ctx context.Context, ref string, opts storagemodels.Options) (datastore.Table, error) {
	if ref == "" {
		return nil, errors.NewValidationError("ref", "must not be empty")
	}
	if !opts.EntryType.Valid() {
		return nil, errors.NewValidationError("entry_type", fmt.Sprintf("unknown entry type %d", int(opts.EntryType)))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.tables[ref]; exists {
		return nil, errors.NewAlreadyExistsError("memory table", ref)
	}

	t := &Table{
		backend:   b,
		ref:       ref,
		named:     !opts.Unnamed,
		entryType: opts.EntryType,
		data:      make(map[string][]any),
		index:     datastore.NewKeyIndex(),
		createdAt: time.Now(),
	}
	b.tables[ref] = t
	return t, nil
}

// Open attaches to a live table under ref
func (b *Backend) Open(ctx context.Context, ref string, opts storagemodels.Options) (datastore.Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, exists := b.tables[ref]
	if !exists {
		return nil, errors.NewNotFoundError("memory table", ref)
	}
	return t, nil
}

// Refs returns the refs of all live tables
func (b *Backend) Refs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	refs := make([]string, 0, len(b.tables))
	for ref := range b.tables {
		refs = append(refs, ref)
	}
	return refs
}

func (b *Backend) release(ref string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tables, ref)
}

// Table is an in-memory hash table. It is safe for concurrent readers and
// writers.
type Table struct {
	mu        sync.RWMutex
	backend   *Backend
	ref       string
	named     bool
	entryType storagemodels.EntryType
	data      map[string][]any
	index     *datastore.KeyIndex
	objects   int
	memory    int64
	createdAt time.Time
	closed    bool

	insertError error
	deleteError error
}

// WithInsertError makes Insert operations return an error
func (t *Table) WithInsertError(err error) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertError = err
	return t
}

// WithDeleteError makes Delete and DeleteAll operations return an error
func (t *Table) WithDeleteError(err error) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleteError = err
	return t
}

func (t *Table) Ref() string {
	return t.ref
}

func (t *Table) EntryType() storagemodels.EntryType {
	return t.entryType
}

// Insert stores objs according to the table's entry type
func (t *Table) Insert(ctx context.Context, objs ...storagemodels.Object) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "insert", errors.ErrClosed)
	}
	if t.insertError != nil {
		return errors.NewBackendError(backendName, "insert", t.insertError)
	}

	for _, obj := range objs {
		before := t.data[obj.Key]
		after, added := datastore.ApplyInsert(t.entryType, before, obj.Value)
		if !added && t.entryType == storagemodels.Set {
			t.memory -= approxSize(before[0])
		}
		if added || t.entryType == storagemodels.Set {
			t.memory += approxSize(obj.Value)
		}
		if len(before) == 0 {
			t.memory += int64(len(obj.Key))
			t.index.Insert(obj.Key)
		}
		if added {
			t.objects++
		}
		t.data[obj.Key] = after
	}
	return nil
}

// Lookup returns the objects stored under key
func (t *Table) Lookup(ctx context.Context, key string) ([]storagemodels.Object, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, errors.NewBackendError(backendName, "lookup", errors.ErrClosed)
	}

	values := t.data[key]
	objs := make([]storagemodels.Object, len(values))
	for i, v := range values {
		objs[i] = storagemodels.Object{Key: key, Value: v}
	}
	return objs, nil
}

func (t *Table) Member(ctx context.Context, key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return false, errors.NewBackendError(backendName, "member", errors.ErrClosed)
	}
	_, exists := t.data[key]
	return exists, nil
}

// Delete removes every object under key. Absent keys are not an error.
func (t *Table) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "delete", errors.ErrClosed)
	}
	if t.deleteError != nil {
		return errors.NewBackendError(backendName, "delete", t.deleteError)
	}

	values, exists := t.data[key]
	if !exists {
		return nil
	}
	for _, v := range values {
		t.memory -= approxSize(v)
	}
	t.memory -= int64(len(key))
	t.objects -= len(values)
	delete(t.data, key)
	t.index.Remove(key)
	return nil
}

func (t *Table) DeleteAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "delete_all", errors.ErrClosed)
	}
	if t.deleteError != nil {
		return errors.NewBackendError(backendName, "delete_all", t.deleteError)
	}

	t.data = make(map[string][]any)
	t.index.Clear()
	t.objects = 0
	t.memory = 0
	return nil
}

func (t *Table) First(ctx context.Context) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return "", errors.NewBackendError(backendName, "first", errors.ErrClosed)
	}
	key, ok := t.index.First()
	if !ok {
		return "", errors.ErrEndOfTable
	}
	return key, nil
}

func (t *Table) Next(ctx context.Context, key string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return "", errors.NewBackendError(backendName, "next", errors.ErrClosed)
	}
	next, ok := t.index.Next(key)
	if !ok {
		return "", errors.ErrEndOfTable
	}
	return next, nil
}

func (t *Table) Size(ctx context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, errors.NewBackendError(backendName, "size", errors.ErrClosed)
	}
	return t.objects, nil
}

// Info returns a *storagemodels.MemoryInfo
func (t *Table) Info(ctx context.Context) (storagemodels.Info, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, errors.NewBackendError(backendName, "info", errors.ErrClosed)
	}
	return &storagemodels.MemoryInfo{
		ID:        t.ref,
		Name:      t.ref,
		EntryType: t.entryType,
		Objects:   t.objects,
		Memory:    t.memory,
		Named:     t.named,
		CreatedAt: strfmt.DateTime(t.createdAt),
	}, nil
}

func (t *Table) InfoField(ctx context.Context, field string) (any, error) {
	if !storagemodels.HasInfoField(storagemodels.KindMemory, field) {
		return nil, errors.NewValidationError(field, "not a memory table info field")
	}
	info, err := t.Info(ctx)
	if err != nil {
		return nil, err
	}
	return info.Fields()[field], nil
}

// Sync is a no-op for memory tables
func (t *Table) Sync(ctx context.Context) error {
	return nil
}

// Close drops the table and its contents
func (t *Table) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.NewBackendError(backendName, "close", errors.ErrClosed)
	}
	t.closed = true
	t.data = nil
	t.index.Clear()
	t.objects = 0
	t.memory = 0
	t.mu.Unlock()

	t.backend.release(t.ref)
	return nil
}

// approxSize estimates the bytes held by v
func approxSize(v any) int64 {
	switch tv := v.(type) {
	case string:
		return int64(len(tv)) + 16
	case []byte:
		return int64(len(tv)) + 24
	case nil:
		return 0
	default:
		return 16
	}
}
