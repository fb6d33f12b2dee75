/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"slices"

	"github.com/go-openapi/strfmt"
)

// Info is the normalized descriptor of a table. The concrete value is either
// *MemoryInfo or *DiskInfo.
type Info interface {
	Kind() Kind
	Type() EntryType
	Size() int
	// Fields returns the queryable fields of the descriptor, keyed by name.
	Fields() map[string]any
}

// Fields that may be queried on memory tables.
var MemoryInfoFields = []string{"id", "name", "type", "size", "memory", "named_table", "created_at"}

// Fields that may be queried on disk tables.
var DiskInfoFields = []string{"file_name", "type", "size", "no_keys", "no_objects", "file_size", "compression", "created_at", "modified_at"}

// HasInfoField reports whether field may be queried on tables of kind.
func HasInfoField(kind Kind, field string) bool {
	if kind == KindMemory {
		return slices.Contains(MemoryInfoFields, field)
	}
	return slices.Contains(DiskInfoFields, field)
}

// MemoryInfo describes an in-memory table.
type MemoryInfo struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	EntryType EntryType       `json:"type" yaml:"type"`
	Objects   int             `json:"size" yaml:"size"`
	Memory    int64           `json:"memory" yaml:"memory"` // approximate bytes held
	Named     bool            `json:"namedTable" yaml:"named_table"`
	CreatedAt strfmt.DateTime `json:"createdAt" yaml:"created_at"`
}

func (i *MemoryInfo) Kind() Kind      { return KindMemory }
func (i *MemoryInfo) Type() EntryType { return i.EntryType }
func (i *MemoryInfo) Size() int       { return i.Objects }

func (i *MemoryInfo) Fields() map[string]any {
	return map[string]any{
		"id":          i.ID,
		"name":        i.Name,
		"type":        i.EntryType,
		"size":        i.Objects,
		"memory":      i.Memory,
		"named_table": i.Named,
		"created_at":  i.CreatedAt,
	}
}

// DiskInfo describes a disk table.
type DiskInfo struct {
	FileName    string          `json:"fileName" yaml:"file_name"`
	EntryType   EntryType       `json:"type" yaml:"type"`
	Objects     int             `json:"size" yaml:"size"`
	Keys        int             `json:"noKeys" yaml:"no_keys"`
	FileSize    int64           `json:"fileSize" yaml:"file_size"`
	Compression Compression     `json:"compression" yaml:"compression"`
	CreatedAt   strfmt.DateTime `json:"createdAt" yaml:"created_at"`
	ModifiedAt  strfmt.DateTime `json:"modifiedAt" yaml:"modified_at"`
}

func (i *DiskInfo) Kind() Kind      { return KindDisk }
func (i *DiskInfo) Type() EntryType { return i.EntryType }
func (i *DiskInfo) Size() int       { return i.Objects }

func (i *DiskInfo) Fields() map[string]any {
	return map[string]any{
		"file_name":   i.FileName,
		"type":        i.EntryType,
		"size":        i.Objects,
		"no_keys":     i.Keys,
		"no_objects":  i.Objects,
		"file_size":   i.FileSize,
		"compression": i.Compression,
		"created_at":  i.CreatedAt,
		"modified_at": i.ModifiedAt,
	}
}
