/*
Package errors provides semantic error types for the tablestore library.

The package defines the table error taxonomy with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotRegistered    = errors.New("table not registered")
	    ErrBackendWrite     = errors.New("backend write failure")
	    ErrFileConflict     = errors.New("file conflict")
	    ErrInvalidFormat    = errors.New("invalid table file format")
	    ErrCreationConflict = errors.New("file already exists")
	    ErrEndOfTable       = errors.New("end of table")
	)

Usage:

	_, err := store.Put(ctx, "cache", "a", "Apple")
	if err != nil {
	    if errors.IsNotRegistered(err) {
	        // open the table first
	    }
	    return err
	}

	// Create typed errors
	err := errors.NewFileConflictError("/data/users.tbl", "in use by another table")
	err := errors.NewBackendError("disk", "insert", cause)

BackendError unwraps to the backend's own error, so callers can match both the
taxonomy sentinel and the underlying cause.
*/
package errors
