/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Options is the configuration a table is created with. It is read-only
// once the table exists.
type Options struct {
	EntryType   EntryType   // Cardinality policy (default: Set)
	Create      bool        // Open a missing disk file by creating it
	Overwrite   bool        // Allow save_as to replace an existing file
	Unnamed     bool        // Memory tables get a generated handle instead of the alias
	Compression Compression // Value codec for disk tables (default: none)
	SyncOnWrite bool        // Fsync disk tables after every write
}

// Option is a functional option for configuring table creation
type Option func(*Options)

// DefaultOptions returns default table options
func DefaultOptions() Options {
	return Options{
		EntryType:   Set,
		Compression: CompressionNone,
	}
}

// NewOptions applies opts on top of base.
func NewOptions(base Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&base)
	}
	if base.Compression == "" {
		base.Compression = CompressionNone
	}
	return base
}

// WithEntryType sets the table entry type
func WithEntryType(t EntryType) Option {
	return func(opts *Options) {
		opts.EntryType = t
	}
}

// WithCreate lets open create a missing disk file
func WithCreate(create bool) Option {
	return func(opts *Options) {
		opts.Create = create
	}
}

// WithOverwrite lets save_as replace an existing target file
func WithOverwrite(overwrite bool) Option {
	return func(opts *Options) {
		opts.Overwrite = overwrite
	}
}

// WithUnnamed gives a memory table a generated backend handle
func WithUnnamed() Option {
	return func(opts *Options) {
		opts.Unnamed = true
	}
}

// WithCompression sets the disk value codec
func WithCompression(c Compression) Option {
	return func(opts *Options) {
		opts.Compression = c
	}
}

// WithSyncOnWrite makes disk tables fsync after every write
func WithSyncOnWrite(sync bool) Option {
	return func(opts *Options) {
		opts.SyncOnWrite = sync
	}
}
