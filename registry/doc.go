/*
Package registry tracks which aliases name which tables.

A Registry maps each alias to a TableRecord holding the backend kind, the
backend handle, the entry type and the creation options:

	reg := registry.New()
	reg.Register("cache", registry.TableRecord{
	    Kind:      storagemodels.KindMemory,
	    Handle:    "cache",
	    EntryType: storagemodels.Set,
	    Table:     table,
	})

	rec, ok := reg.Lookup("cache")

Absence is a normal outcome of Lookup, never an error. Register overwrites,
Unregister of an unknown alias is a no-op, and List returns a copy the caller
owns.

The registry only holds metadata; it never performs backend I/O. It is an
explicit value rather than a package global so that each process, or each
test, owns its own instance.
*/
package registry
