/*
Package storagemodels defines the data structures used throughout tablestore.

Key Types:

Storage:
Where a table lives:

	storagemodels.InMemory()
	storagemodels.OnDisk("/var/lib/app/users.tbl")
	storagemodels.ParseStorage("memory") // == InMemory()

EntryType:
Cardinality policy of a table: Set (one value per key), Bag (many distinct
values per key) or DuplicateBag (many values per key, duplicates allowed).
The text forms are "set", "bag" and "duplicate_bag".

Options:
Creation options built from functional options:

	opts := storagemodels.NewOptions(storagemodels.DefaultOptions(),
	    storagemodels.WithEntryType(storagemodels.Bag),
	    storagemodels.WithCompression(storagemodels.CompressionSnappy),
	)

Info:
Normalized table descriptors. A descriptor is either *MemoryInfo or *DiskInfo;
switch on the concrete type or on Kind():

	switch d := info.(type) {
	case *storagemodels.MemoryInfo:
	    fmt.Println(d.Name, d.Memory)
	case *storagemodels.DiskInfo:
	    fmt.Println(d.FileName, d.FileSize)
	}

StreamResult:
Results from channel streaming with metadata, configured by StreamOption
values such as WithBufferSize and WithProgressHandler.
*/
package storagemodels
