/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

func newTable(t *testing.T, et storagemodels.EntryType) datastore.Table {
	t.Helper()
	b := memory.New()
	tbl, err := b.Create(context.Background(), "t", storagemodels.NewOptions(storagemodels.DefaultOptions(), storagemodels.WithEntryType(et)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return tbl
}

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		tbl := newTable(t, storagemodels.Set)

		if err := tbl.Insert(ctx, storagemodels.Object{Key: "a", Value: "Apple"}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if err := tbl.Insert(ctx, storagemodels.Object{Key: "a", Value: "Apricot"}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		objs, err := tbl.Lookup(ctx, "a")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if len(objs) != 1 || objs[0].Value != "Apricot" {
			t.Fatalf("Expected single overwritten value, got %+v", objs)
		}

		if ok, _ := tbl.Member(ctx, "a"); !ok {
			t.Fatal("Expected a to be a member")
		}
		if err := tbl.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := tbl.Delete(ctx, "missing"); err != nil {
			t.Fatalf("Delete of missing key should succeed: %v", err)
		}
		if ok, _ := tbl.Member(ctx, "a"); ok {
			t.Fatal("Expected a to be gone")
		}
		objs, _ = tbl.Lookup(ctx, "a")
		if len(objs) != 0 {
			t.Fatalf("Expected empty lookup, got %+v", objs)
		}
	})

	t.Run("BagSemantics", func(t *testing.T) {
		bag := newTable(t, storagemodels.Bag)
		dup := newTable(t, storagemodels.DuplicateBag)

		for _, v := range []string{"x", "y", "x"} {
			bag.Insert(ctx, storagemodels.Object{Key: "k", Value: v})
			dup.Insert(ctx, storagemodels.Object{Key: "k", Value: v})
		}

		if n, _ := bag.Size(ctx); n != 2 {
			t.Errorf("Expected bag size 2, got %d", n)
		}
		if n, _ := dup.Size(ctx); n != 3 {
			t.Errorf("Expected duplicate bag size 3, got %d", n)
		}

		objs, _ := dup.Lookup(ctx, "k")
		got := []any{objs[0].Value, objs[1].Value, objs[2].Value}
		want := []any{"x", "y", "x"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Expected insertion order %v, got %v", want, got)
			}
		}
	})

	t.Run("Iteration", func(t *testing.T) {
		tbl := newTable(t, storagemodels.Set)
		for _, k := range []string{"c", "a", "b"} {
			tbl.Insert(ctx, storagemodels.Object{Key: k, Value: k})
		}

		key, err := tbl.First(ctx)
		if err != nil || key != "a" {
			t.Fatalf("Expected first key a, got %q (%v)", key, err)
		}
		key, _ = tbl.Next(ctx, key)
		key, _ = tbl.Next(ctx, key)
		if key != "c" {
			t.Fatalf("Expected c, got %q", key)
		}
		if _, err := tbl.Next(ctx, key); !errors.IsEndOfTable(err) {
			t.Fatalf("Expected end of table, got %v", err)
		}
	})

	t.Run("DuplicateRef", func(t *testing.T) {
		b := memory.New()
		if _, err := b.Create(ctx, "same", storagemodels.DefaultOptions()); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		_, err := b.Create(ctx, "same", storagemodels.DefaultOptions())
		if !errors.IsAlreadyExists(err) {
			t.Fatalf("Expected already exists, got %v", err)
		}
	})

	t.Run("CloseDropsTable", func(t *testing.T) {
		b := memory.New()
		tbl, _ := b.Create(ctx, "gone", storagemodels.DefaultOptions())
		tbl.Insert(ctx, storagemodels.Object{Key: "a", Value: 1})
		if refs := b.Refs(); len(refs) != 1 || refs[0] != "gone" {
			t.Fatalf("Expected [gone] as live refs, got %v", refs)
		}

		if err := tbl.Close(ctx); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := b.Open(ctx, "gone", storagemodels.DefaultOptions()); !errors.IsNotFound(err) {
			t.Fatalf("Expected not found after close, got %v", err)
		}
		if refs := b.Refs(); len(refs) != 0 {
			t.Fatalf("Expected no live refs after close, got %v", refs)
		}
		if _, err := tbl.Lookup(ctx, "a"); !errors.IsClosed(err) {
			t.Fatalf("Expected closed error, got %v", err)
		}
		if _, err := b.Create(ctx, "gone", storagemodels.DefaultOptions()); err != nil {
			t.Fatalf("ref should be reusable after close: %v", err)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		b := memory.New()
		raw, _ := b.Create(ctx, "faulty", storagemodels.DefaultOptions())
		tbl := raw.(*memory.Table)

		cause := errors.NewValidationError("value", "rejected")
		tbl.WithInsertError(cause)
		err := tbl.Insert(ctx, storagemodels.Object{Key: "a", Value: 1})
		if !errors.IsBackendWrite(err) || !errors.IsValidationError(err) {
			t.Fatalf("Expected wrapped backend write failure, got %v", err)
		}

		tbl.WithDeleteError(cause)
		if err := tbl.Delete(ctx, "a"); !errors.IsBackendWrite(err) {
			t.Fatalf("Expected backend write failure, got %v", err)
		}
	})

	t.Run("InfoFields", func(t *testing.T) {
		b := memory.New()
		tbl, _ := b.Create(ctx, "info", storagemodels.NewOptions(storagemodels.DefaultOptions(), storagemodels.WithEntryType(storagemodels.Bag)))
		tbl.Insert(ctx, storagemodels.Object{Key: "a", Value: "1"}, storagemodels.Object{Key: "a", Value: "2"})

		info, err := tbl.Info(ctx)
		if err != nil {
			t.Fatalf("Info failed: %v", err)
		}
		mi, ok := info.(*storagemodels.MemoryInfo)
		if !ok {
			t.Fatalf("Expected *MemoryInfo, got %T", info)
		}
		if mi.Objects != 2 || mi.EntryType != storagemodels.Bag || !mi.Named {
			t.Errorf("Unexpected info: %+v", mi)
		}

		v, err := tbl.InfoField(ctx, "size")
		if err != nil || v != 2 {
			t.Errorf("Expected size field 2, got %v (%v)", v, err)
		}
		if _, err := tbl.InfoField(ctx, "file_size"); !errors.IsValidationError(err) {
			t.Errorf("Expected validation error for disk-only field, got %v", err)
		}
	})
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	tbl := newTable(t, storagemodels.Set)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := string(rune('a'+w)) + string(rune('a'+i%26))
				tbl.Insert(ctx, storagemodels.Object{Key: key, Value: i})
				tbl.Lookup(ctx, key)
			}
		}(w)
	}
	wg.Wait()

	n, err := tbl.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if n != 8*26 {
		t.Fatalf("Expected %d objects, got %d", 8*26, n)
	}
}
