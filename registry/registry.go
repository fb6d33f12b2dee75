/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"sync"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/storagemodels"
)

// TableRecord binds an alias to its backend table and configuration.
type TableRecord struct {
	Alias     storagemodels.Alias
	Kind      storagemodels.Kind
	Handle    string // backend reference: alias, generated id, or absolute file path
	EntryType storagemodels.EntryType
	Options   storagemodels.Options
	Table     datastore.Table
	CreatedAt strfmt.DateTime
}

// Path returns the backing file of a disk table, or "" for memory tables.
func (r TableRecord) Path() string {
	if r.Kind == storagemodels.KindDisk {
		return r.Handle
	}
	return ""
}

// Registry maps aliases to table records. Every call is atomic with respect
// to the others; no call touches a backend.
type Registry struct {
	mu      sync.RWMutex
	records map[storagemodels.Alias]TableRecord
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		records: make(map[storagemodels.Alias]TableRecord),
	}
}

// Exists reports whether alias is registered.
func (r *Registry) Exists(alias storagemodels.Alias) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[alias]
	return ok
}

// Lookup returns the record for alias, if any.
func (r *Registry) Lookup(alias storagemodels.Alias) (TableRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[alias]
	return rec, ok
}

// Register stores rec under alias, replacing any previous record.
func (r *Registry) Register(alias storagemodels.Alias, rec TableRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Alias = alias
	r.records[alias] = rec
}

// Unregister removes alias. Absent aliases are ignored.
func (r *Registry) Unregister(alias storagemodels.Alias) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, alias)
}

// FindHandle returns the record of kind holding handle.
func (r *Registry) FindHandle(kind storagemodels.Kind, handle string) (TableRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.Kind == kind && rec.Handle == handle {
			return rec, true
		}
	}
	return TableRecord{}, false
}

// List returns a snapshot of all records ordered by alias.
func (r *Registry) List() []TableRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]TableRecord, 0, len(r.records))
	for _, rec := range r.records {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Alias < list[j].Alias
	})
	return list
}

// Len returns the number of registered aliases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Flush removes every record.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[storagemodels.Alias]TableRecord)
}
