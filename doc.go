/*
Package tablestore provides one key/value table interface over two storage
backends: an in-memory hash table and a disk-persisted hash table.

Callers name each table with an alias and issue the same get, put, delete,
merge and iterate operations whether the table lives in memory or in a file.
A Store keeps the alias registry and dispatches every call to the backend the
alias was registered with.

Key Features:
  - Memory and disk tables behind one API
  - Set, bag and duplicate bag entry types
  - Lazy key and entry cursors over tables of any size
  - Channel streaming with progress reporting
  - Disk tables with snappy, lz4 or zstd value compression
  - Semantic error types (see package errors)
  - YAML and environment configuration (see package config)

Basic Usage:

	store := tablestore.NewStore()

	// Memory tables
	store.New(ctx, "cache", storagemodels.InMemory())
	store.Put(ctx, "cache", "a", "Apple")
	v := store.Get(ctx, "cache", "a", nil) // "Apple"

	// Disk tables
	store.New(ctx, "events", storagemodels.OnDisk("/var/lib/app/events.tbl"),
	    storagemodels.WithEntryType(storagemodels.Bag),
	    storagemodels.WithCompression(storagemodels.CompressionZstd))
	store.Put(ctx, "events", "user-1", "login")
	store.Close(ctx, "events")

	// Persist a memory table and read it back
	store.SaveAs(ctx, "cache", "/var/lib/app/cache.tbl")
	store.Open(ctx, "reloaded", storagemodels.OnDisk("/var/lib/app/cache.tbl"))

Read conveniences (Get, HasKey, Size, Empty, ToList, ToMap) treat an
unregistered alias as an empty table. Every other operation returns an
error that satisfies errors.IsNotRegistered.
*/
package tablestore
