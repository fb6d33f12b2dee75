/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package disk

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

const backendName = "disk"

// Backend opens and creates table files. A file may be held by at most one
// open Table per Backend.
type Backend struct {
	mu   sync.Mutex
	open map[string]*Table
}

// New creates a new disk Backend
func New() *Backend {
	return &Backend{
		open: make(map[string]*Table),
	}
}

// Kind implements datastore.Backend
func (b *Backend) Kind() storagemodels.Kind {
	return storagemodels.KindDisk
}

// Create writes a fresh table file at ref. It fails with a
// CreationConflictError when the file exists.
func (b *Backend) Create(ctx context.Context, ref string, opts storagemodels.Options) (datastore.Table, error) {
	if !opts.EntryType.Valid() {
		return nil, errors.NewValidationError("entry_type", fmt.Sprintf("unknown entry type %d", int(opts.EntryType)))
	}
	codec, err := newCompressor(opts.Compression)
	if err != nil {
		return nil, errors.NewValidationError("compression", err.Error())
	}

	f, err := os.OpenFile(ref, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.NewCreationConflictError(ref)
		}
		return nil, errors.NewBackendError(backendName, "create", err)
	}

	hdr := header{
		entryType:   opts.EntryType,
		compression: codec.Name(),
		createdAt:   time.Now(),
	}
	if _, err := f.Write(hdr.encode()); err != nil {
		f.Close()
		os.Remove(ref)
		return nil, errors.NewBackendError(backendName, "create", err)
	}

	t := newTable(b, ref, f, hdr, codec, opts)
	t.size = headerSize
	t.modifiedAt = hdr.createdAt

	if err := b.track(t); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// Open attaches to an existing table file, replaying its log. The entry
// type and compression recorded in the file win over opts.
func (b *Backend) Open(ctx context.Context, ref string, opts storagemodels.Options) (datastore.Table, error) {
	b.mu.Lock()
	_, busy := b.open[ref]
	b.mu.Unlock()
	if busy {
		return nil, errors.NewAlreadyExistsError("open disk table", ref)
	}

	f, err := os.OpenFile(ref, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(ref)
		}
		return nil, errors.NewBackendError(backendName, "open", err)
	}

	t, err := load(b, ref, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := b.track(t); err != nil {
		f.Close()
		return nil, err
	}
	return t, nil
}

// Paths returns the files currently held open
func (b *Backend) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, 0, len(b.open))
	for p := range b.open {
		paths = append(paths, p)
	}
	return paths
}

func (b *Backend) track(t *Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, busy := b.open[t.path]; busy {
		return errors.NewAlreadyExistsError("open disk table", t.path)
	}
	b.open[t.path] = t
	return nil
}

func (b *Backend) release(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, path)
}

type valueRef struct {
	offset int64
	size   uint32
}

// Table is a single-file disk table: an append-only log of put and delete
// records plus an in-memory key directory pointing at live values. It
// serializes all access; treat it as single-writer.
type Table struct {
	mu      sync.Mutex
	backend *Backend
	path    string
	file    *os.File
	writer  *bufio.Writer
	hdr     header
	codec   compressor

	keydir  map[string][]valueRef
	index   *datastore.KeyIndex
	objects int
	size    int64 // logical end of file, buffered bytes included
	dead    int64 // bytes held by superseded records

	syncOnWrite bool
	modifiedAt  time.Time
	closed      bool
}

func newTable(b *Backend, path string, f *os.File, hdr header, codec compressor, opts storagemodels.Options) *Table {
	return &Table{
		backend:     b,
		path:        path,
		file:        f,
		writer:      bufio.NewWriterSize(f, 64*1024),
		hdr:         hdr,
		codec:       codec,
		keydir:      make(map[string][]valueRef),
		index:       datastore.NewKeyIndex(),
		syncOnWrite: opts.SyncOnWrite,
	}
}

// load replays the log in f and positions the writer at its end. A torn
// trailing record is cut off.
func load(b *Backend, path string, f *os.File, opts storagemodels.Options) (*Table, error) {
	r := bufio.NewReader(f)
	hdr, err := readHeader(path, r)
	if err != nil {
		return nil, err
	}
	codec, err := newCompressor(hdr.compression)
	if err != nil {
		return nil, errors.NewInvalidFormatError(path, err.Error())
	}

	t := newTable(b, path, f, hdr, codec, opts)
	end, err := scanRecords(path, r, headerSize, func(rec record) error {
		t.apply(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		return nil, errors.NewBackendError(backendName, "open", err)
	}
	if st.Size() > end {
		if err := f.Truncate(end); err != nil {
			return nil, errors.NewBackendError(backendName, "open", err)
		}
	}
	if _, err := f.Seek(end, io.SeekStart); err != nil {
		return nil, errors.NewBackendError(backendName, "open", err)
	}
	t.writer.Reset(f)
	t.size = end
	t.modifiedAt = st.ModTime()
	return t, nil
}

// apply folds one log record into the key directory.
func (t *Table) apply(rec record) {
	switch rec.op {
	case opPut:
		ref := valueRef{offset: rec.offset, size: uint32(len(rec.value))}
		refs := t.keydir[rec.key]
		if len(refs) == 0 {
			t.index.Insert(rec.key)
		}
		if t.hdr.entryType == storagemodels.Set && len(refs) > 0 {
			t.dead += recordSize(rec.key, refs[0])
			t.keydir[rec.key] = []valueRef{ref}
			return
		}
		t.keydir[rec.key] = append(refs, ref)
		t.objects++
	case opDelete:
		t.dropKey(rec.key)
		t.dead += recordSize(rec.key, valueRef{})
	}
}

func (t *Table) dropKey(key string) {
	refs, ok := t.keydir[key]
	if !ok {
		return
	}
	for _, ref := range refs {
		t.dead += recordSize(key, ref)
	}
	t.objects -= len(refs)
	delete(t.keydir, key)
	t.index.Remove(key)
}

func recordSize(key string, ref valueRef) int64 {
	return valueOffset(key) + int64(ref.size)
}

// appendRecord writes a record and returns the ref of its value bytes.
func (t *Table) appendRecord(op byte, key string, value []byte) (valueRef, error) {
	buf := encodeRecord(op, key, value)
	if _, err := t.writer.Write(buf); err != nil {
		return valueRef{}, err
	}
	ref := valueRef{offset: t.size + valueOffset(key), size: uint32(len(value))}
	t.size += int64(len(buf))
	t.modifiedAt = time.Now()
	return ref, nil
}

func (t *Table) readValue(ref valueRef) (any, error) {
	if t.writer.Buffered() > 0 {
		if err := t.writer.Flush(); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, ref.size)
	if _, err := t.file.ReadAt(buf, ref.offset); err != nil {
		return nil, err
	}
	return decodeValue(t.codec, buf)
}

func (t *Table) values(key string) ([]any, error) {
	refs := t.keydir[key]
	values := make([]any, 0, len(refs))
	for _, ref := range refs {
		v, err := t.readValue(ref)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (t *Table) afterWrite() error {
	if t.syncOnWrite {
		return t.syncLocked()
	}
	return nil
}

func (t *Table) syncLocked() error {
	if err := t.writer.Flush(); err != nil {
		return err
	}
	return t.file.Sync()
}

func (t *Table) Ref() string {
	return t.path
}

func (t *Table) EntryType() storagemodels.EntryType {
	return t.hdr.entryType
}

// Insert appends objs according to the table's entry type. Values must be
// gob-encodable.
func (t *Table) Insert(ctx context.Context, objs ...storagemodels.Object) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "insert", errors.ErrClosed)
	}

	for _, obj := range objs {
		if t.hdr.entryType == storagemodels.Bag {
			existing, err := t.values(obj.Key)
			if err != nil {
				return errors.NewBackendError(backendName, "insert", err)
			}
			if _, added := datastore.ApplyInsert(t.hdr.entryType, existing, obj.Value); !added {
				continue
			}
		}

		data, err := encodeValue(t.codec, obj.Value)
		if err != nil {
			return errors.NewBackendError(backendName, "insert", err)
		}
		ref, err := t.appendRecord(opPut, obj.Key, data)
		if err != nil {
			return errors.NewBackendError(backendName, "insert", err)
		}

		refs := t.keydir[obj.Key]
		if len(refs) == 0 {
			t.index.Insert(obj.Key)
		}
		if t.hdr.entryType == storagemodels.Set && len(refs) > 0 {
			t.dead += recordSize(obj.Key, refs[0])
			t.keydir[obj.Key] = []valueRef{ref}
			continue
		}
		t.keydir[obj.Key] = append(refs, ref)
		t.objects++
	}

	if err := t.afterWrite(); err != nil {
		return errors.NewBackendError(backendName, "insert", err)
	}
	return nil
}

// Lookup returns the objects stored under key
func (t *Table) Lookup(ctx context.Context, key string) ([]storagemodels.Object, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errors.NewBackendError(backendName, "lookup", errors.ErrClosed)
	}

	values, err := t.values(key)
	if err != nil {
		return nil, errors.NewBackendError(backendName, "lookup", err)
	}
	objs := make([]storagemodels.Object, len(values))
	for i, v := range values {
		objs[i] = storagemodels.Object{Key: key, Value: v}
	}
	return objs, nil
}

func (t *Table) Member(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false, errors.NewBackendError(backendName, "member", errors.ErrClosed)
	}
	_, ok := t.keydir[key]
	return ok, nil
}

// Delete appends a tombstone for key. Absent keys write nothing.
func (t *Table) Delete(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "delete", errors.ErrClosed)
	}
	if _, ok := t.keydir[key]; !ok {
		return nil
	}

	if _, err := t.appendRecord(opDelete, key, nil); err != nil {
		return errors.NewBackendError(backendName, "delete", err)
	}
	t.dropKey(key)
	t.dead += recordSize(key, valueRef{})

	if err := t.afterWrite(); err != nil {
		return errors.NewBackendError(backendName, "delete", err)
	}
	return nil
}

// DeleteAll truncates the file back to its header
func (t *Table) DeleteAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "delete_all", errors.ErrClosed)
	}

	t.writer.Reset(t.file)
	if err := t.file.Truncate(headerSize); err != nil {
		return errors.NewBackendError(backendName, "delete_all", err)
	}
	if _, err := t.file.Seek(headerSize, io.SeekStart); err != nil {
		return errors.NewBackendError(backendName, "delete_all", err)
	}

	t.keydir = make(map[string][]valueRef)
	t.index.Clear()
	t.objects = 0
	t.size = headerSize
	t.dead = 0
	t.modifiedAt = time.Now()

	if err := t.afterWrite(); err != nil {
		return errors.NewBackendError(backendName, "delete_all", err)
	}
	return nil
}

func (t *Table) First(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", errors.NewBackendError(backendName, "first", errors.ErrClosed)
	}
	key, ok := t.index.First()
	if !ok {
		return "", errors.ErrEndOfTable
	}
	return key, nil
}

func (t *Table) Next(ctx context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return "", errors.NewBackendError(backendName, "next", errors.ErrClosed)
	}
	next, ok := t.index.Next(key)
	if !ok {
		return "", errors.ErrEndOfTable
	}
	return next, nil
}

func (t *Table) Size(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errors.NewBackendError(backendName, "size", errors.ErrClosed)
	}
	return t.objects, nil
}

// Info returns a *storagemodels.DiskInfo
func (t *Table) Info(ctx context.Context) (storagemodels.Info, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errors.NewBackendError(backendName, "info", errors.ErrClosed)
	}
	return &storagemodels.DiskInfo{
		FileName:    t.path,
		EntryType:   t.hdr.entryType,
		Objects:     t.objects,
		Keys:        len(t.keydir),
		FileSize:    t.size,
		Compression: t.hdr.compression,
		CreatedAt:   strfmt.DateTime(t.hdr.createdAt),
		ModifiedAt:  strfmt.DateTime(t.modifiedAt),
	}, nil
}

func (t *Table) InfoField(ctx context.Context, field string) (any, error) {
	if !storagemodels.HasInfoField(storagemodels.KindDisk, field) {
		return nil, errors.NewValidationError(field, "not a disk table info field")
	}
	info, err := t.Info(ctx)
	if err != nil {
		return nil, err
	}
	return info.Fields()[field], nil
}

// Sync flushes buffered writes and fsyncs the file
func (t *Table) Sync(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "sync", errors.ErrClosed)
	}
	if err := t.syncLocked(); err != nil {
		return errors.NewBackendError(backendName, "sync", err)
	}
	return nil
}

// Compact rewrites the file keeping only live records.
func (t *Table) Compact(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "compact", errors.ErrClosed)
	}
	if err := t.compactLocked(); err != nil {
		return errors.NewBackendError(backendName, "compact", err)
	}
	return nil
}

// DeadBytes returns the bytes held by superseded records.
func (t *Table) DeadBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dead
}

func (t *Table) compactLocked() error {
	if err := t.writer.Flush(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.path), ".compact-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}

	w := bufio.NewWriterSize(tmp, 64*1024)
	if _, err := w.Write(t.hdr.encode()); err != nil {
		return fail(err)
	}

	keydir := make(map[string][]valueRef, len(t.keydir))
	offset := int64(headerSize)
	for _, key := range t.index.Keys() {
		for _, ref := range t.keydir[key] {
			raw := make([]byte, ref.size)
			if _, err := t.file.ReadAt(raw, ref.offset); err != nil {
				return fail(err)
			}
			buf := encodeRecord(opPut, key, raw)
			if _, err := w.Write(buf); err != nil {
				return fail(err)
			}
			keydir[key] = append(keydir[key], valueRef{offset: offset + valueOffset(key), size: ref.size})
			offset += int64(len(buf))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, t.path); err != nil {
		return fail(err)
	}

	t.file.Close()
	t.file = tmp
	t.writer.Reset(tmp)
	t.keydir = keydir
	t.size = offset
	t.dead = 0
	return nil
}

// Close flushes, compacts when more than half the file is dead, and
// releases the file handle. The file stays on disk.
func (t *Table) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return errors.NewBackendError(backendName, "close", errors.ErrClosed)
	}

	var err error
	if t.dead > 0 && t.dead*2 > t.size-headerSize {
		err = t.compactLocked()
	}
	if err == nil {
		err = t.syncLocked()
	}
	if cerr := t.file.Close(); err == nil {
		err = cerr
	}
	if z, ok := t.codec.(*zstdCompressor); ok {
		z.Close()
	}
	t.closed = true
	t.backend.release(t.path)

	if err != nil {
		return errors.NewBackendError(backendName, "close", err)
	}
	return nil
}
