/*
Package datastore defines the backend contract for tablestore tables and the
lazy iteration adapter built on top of it.

A Backend allocates tables of one storage kind; a Table is the handle the
dispatch core talks to:

	type Table interface {
	    Insert(ctx context.Context, objs ...storagemodels.Object) error
	    Lookup(ctx context.Context, key string) ([]storagemodels.Object, error)
	    Member(ctx context.Context, key string) (bool, error)
	    Delete(ctx context.Context, key string) error
	    DeleteAll(ctx context.Context) error
	    First(ctx context.Context) (string, error)
	    Next(ctx context.Context, key string) (string, error)
	    ...
	}

Implementations:
  - memory: in-process hash table, safe for concurrent readers and writers
  - disk: single-file append-only table with an in-memory key directory

Iteration:
KeyCursor and EntryCursor walk a table through First/Next only, one backend
call per step, ending on errors.ErrEndOfTable:

	cur := datastore.NewKeyCursor(table)
	for cur.Next(ctx) {
	    fmt.Println(cur.Key())
	}
	if err := cur.Err(); err != nil {
	    return err
	}

Backends must return results as plain (value, error) pairs; backend-specific
success markers never leave the adapter.
*/
package datastore
