/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a key, table or file is not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when attempting to create a table whose reference is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotRegistered is returned when an alias has no registry entry
	ErrNotRegistered = errors.New("table not registered")

	// ErrBackendWrite is returned when a backend rejects an insert or delete
	ErrBackendWrite = errors.New("backend write failure")

	// ErrFileConflict is returned when a target path is in use or exists without overwrite
	ErrFileConflict = errors.New("file conflict")

	// ErrInvalidFormat is returned when a file is not a valid table file
	ErrInvalidFormat = errors.New("invalid table file format")

	// ErrCreationConflict is returned when creating a fresh table over an existing file
	ErrCreationConflict = errors.New("file already exists")

	// ErrEndOfTable signals that an iteration has no further keys
	ErrEndOfTable = errors.New("end of table")

	// ErrClosed is returned when operating on a table whose handle was released
	ErrClosed = errors.New("table closed")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FileNotFoundError is returned by open when the backing file is missing
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s (pass WithCreate(true) to create it)", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotRegisteredError is returned when an operation names an unknown alias
type NotRegisteredError struct {
	Alias string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("table %q is not registered", e.Alias)
}

func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// BackendError carries a failure reported by a storage backend.
// It matches ErrBackendWrite for write operations only.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	if target != ErrBackendWrite {
		return false
	}
	switch e.Op {
	case "insert", "delete", "delete_all", "sync", "close":
		return true
	}
	return false
}

// FileConflictError is returned when a target path cannot be written
type FileConflictError struct {
	Path   string
	Reason string
}

func (e *FileConflictError) Error() string {
	return fmt.Sprintf("file conflict on %s: %s", e.Path, e.Reason)
}

func (e *FileConflictError) Is(target error) bool {
	return target == ErrFileConflict
}

// InvalidFormatError is returned when a file fails table format validation
type InvalidFormatError struct {
	Path   string
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("%s is not a valid table file: %s", e.Path, e.Reason)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// CreationConflictError is returned when new is called against an existing file
type CreationConflictError struct {
	Path string
}

func (e *CreationConflictError) Error() string {
	return fmt.Sprintf("file already exists: %s (use open instead)", e.Path)
}

func (e *CreationConflictError) Is(target error) bool {
	return target == ErrCreationConflict
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewFileNotFoundError creates a new FileNotFoundError
func NewFileNotFoundError(path string) error {
	return &FileNotFoundError{Path: path}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewNotRegisteredError creates a new NotRegisteredError
func NewNotRegisteredError(alias string) error {
	return &NotRegisteredError{Alias: alias}
}

// NewBackendError wraps err as a failure of op on the named backend.
// A nil err yields nil.
func NewBackendError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Backend: backend, Op: op, Err: err}
}

// NewFileConflictError creates a new FileConflictError
func NewFileConflictError(path, reason string) error {
	return &FileConflictError{Path: path, Reason: reason}
}

// NewInvalidFormatError creates a new InvalidFormatError
func NewInvalidFormatError(path, reason string) error {
	return &InvalidFormatError{Path: path, Reason: reason}
}

// NewCreationConflictError creates a new CreationConflictError
func NewCreationConflictError(path string) error {
	return &CreationConflictError{Path: path}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotRegistered checks if an error reports an unknown alias
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsBackendWrite checks if an error is a backend write failure
func IsBackendWrite(err error) bool {
	return errors.Is(err, ErrBackendWrite)
}

// IsFileConflict checks if an error is a file conflict
func IsFileConflict(err error) bool {
	return errors.Is(err, ErrFileConflict)
}

// IsInvalidFormat checks if an error is an invalid format error
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsCreationConflict checks if an error is a creation conflict
func IsCreationConflict(err error) bool {
	return errors.Is(err, ErrCreationConflict)
}

// IsEndOfTable checks if an error is the end-of-table sentinel
func IsEndOfTable(err error) bool {
	return errors.Is(err, ErrEndOfTable)
}

// IsClosed checks if an error reports a released table handle
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
