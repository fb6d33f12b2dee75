package storagemodels

import (
	"time"
)

// StreamResult represents a single object in a stream with metadata
type StreamResult struct {
	Item  Object     // The streamed object
	Error error      // Item-specific error, if any
	Meta  StreamMeta // Metadata about this item
}

// StreamMeta contains metadata about a streamed item
type StreamMeta struct {
	Index     int64     // Item index in stream (0-based)
	Timestamp time.Time // When item was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize       int                  // Channel buffer size (default: 100)
	ProgressInterval int64                // Report progress every N items (default: 1000)
	ProgressHandler  func(StreamProgress) // Optional progress callback
	ErrorHandler     func(error) bool     // Return true to continue, false to stop
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	ItemsProcessed int64     // Total items processed
	LastKey        string    // Last key read from the table
	Errors         []error   // Accumulated non-fatal errors
	StartTime      time.Time // When streaming started
	CurrentRate    float64   // Items per second
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize:       100,
		ProgressInterval: 1000,
	}
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithProgressInterval sets how many items pass between progress reports
func WithProgressInterval(n int64) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressInterval = n
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// WithErrorHandler sets an error handler that can decide whether to continue
func WithErrorHandler(handler func(error) bool) StreamOption {
	return func(opts *StreamOptions) {
		opts.ErrorHandler = handler
	}
}
