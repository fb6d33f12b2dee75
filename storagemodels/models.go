/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// Alias is the caller-chosen name of a table.
type Alias string

func (a Alias) String() string {
	return string(a)
}

// Kind identifies the storage backend a table lives in.
type Kind int

const (
	// KindMemory tables live in process memory and vanish when closed.
	KindMemory Kind = iota
	// KindDisk tables are persisted to a single file.
	KindDisk
)

func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindDisk:
		return "disk"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// EntryType is the cardinality policy of a table.
type EntryType int

const (
	// Set tables hold one value per key.
	Set EntryType = iota
	// Bag tables hold many distinct values per key.
	Bag
	// DuplicateBag tables hold many values per key, duplicates allowed.
	DuplicateBag
)

func (t EntryType) String() string {
	switch t {
	case Set:
		return "set"
	case Bag:
		return "bag"
	case DuplicateBag:
		return "duplicate_bag"
	default:
		return fmt.Sprintf("entry_type(%d)", int(t))
	}
}

// IsBag reports whether the table keeps several values per key.
func (t EntryType) IsBag() bool {
	return t == Bag || t == DuplicateBag
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t >= Set && t <= DuplicateBag
}

// ParseEntryType parses the text form of an entry type.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "set":
		return Set, nil
	case "bag":
		return Bag, nil
	case "duplicate_bag", "duplicate-bag", "duplicatebag":
		return DuplicateBag, nil
	}
	return Set, fmt.Errorf("unknown entry type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t EntryType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown entry type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EntryType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntryType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Compression names the codec applied to values stored on disk.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionSnappy Compression = "snappy"
	CompressionLZ4    Compression = "lz4"
	CompressionZstd   Compression = "zstd"
)

// ParseCompression validates the text form of a compression codec.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompressionNone, nil
	case CompressionNone, CompressionSnappy, CompressionLZ4, CompressionZstd:
		return c, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", s)
}

// Object is a single stored entry.
type Object struct {
	Key   string
	Value any
}

// Storage says where a table lives: in memory, or in a file at Path.
type Storage struct {
	Kind Kind
	Path string
}

// InMemory returns the storage location for an in-memory table.
func InMemory() Storage {
	return Storage{Kind: KindMemory}
}

// OnDisk returns the storage location for a table persisted at path.
func OnDisk(path string) Storage {
	return Storage{Kind: KindDisk, Path: path}
}

// ParseStorage maps the symbolic value "memory" to InMemory and anything
// else to a disk path.
func ParseStorage(s string) Storage {
	if s == "memory" {
		return InMemory()
	}
	return OnDisk(s)
}

func (s Storage) String() string {
	if s.Kind == KindMemory {
		return "memory"
	}
	return s.Path
}
