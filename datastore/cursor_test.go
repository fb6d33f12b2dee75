/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/datastore/memory"
	tserrors "github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// countingTable records how many backend calls a cursor issues
type countingTable struct {
	datastore.Table
	firsts, nexts, lookups int
	failNext               error
}

func (c *countingTable) First(ctx context.Context) (string, error) {
	c.firsts++
	return c.Table.First(ctx)
}

func (c *countingTable) Next(ctx context.Context, key string) (string, error) {
	c.nexts++
	if c.failNext != nil {
		return "", c.failNext
	}
	return c.Table.Next(ctx, key)
}

func (c *countingTable) Lookup(ctx context.Context, key string) ([]storagemodels.Object, error) {
	c.lookups++
	return c.Table.Lookup(ctx, key)
}

func seeded(t *testing.T, et storagemodels.EntryType, objs ...storagemodels.Object) *countingTable {
	t.Helper()
	tbl, err := memory.New().Create(context.Background(), "cursor", storagemodels.NewOptions(storagemodels.DefaultOptions(), storagemodels.WithEntryType(et)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := tbl.Insert(context.Background(), objs...); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return &countingTable{Table: tbl}
}

func TestKeyCursor(t *testing.T) {
	ctx := context.Background()

	t.Run("OneCallPerStep", func(t *testing.T) {
		tbl := seeded(t, storagemodels.Set,
			storagemodels.Object{Key: "b", Value: 2},
			storagemodels.Object{Key: "a", Value: 1},
			storagemodels.Object{Key: "c", Value: 3},
		)
		cur := datastore.NewKeyCursor(tbl)

		if !cur.Next(ctx) || cur.Key() != "a" {
			t.Fatalf("Expected first key a, got %q", cur.Key())
		}
		if tbl.firsts != 1 || tbl.nexts != 0 {
			t.Fatalf("Expected exactly one First call, got first=%d next=%d", tbl.firsts, tbl.nexts)
		}

		keys, err := cur.Collect(ctx)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if fmt.Sprint(keys) != "[b c]" {
			t.Fatalf("Expected remaining keys [b c], got %v", keys)
		}
		if tbl.nexts != 3 {
			t.Fatalf("Expected 3 Next calls including the terminating one, got %d", tbl.nexts)
		}
		if cur.Next(ctx) {
			t.Fatal("Exhausted cursor should stay exhausted")
		}
	})

	t.Run("Restartable", func(t *testing.T) {
		tbl := seeded(t, storagemodels.Set, storagemodels.Object{Key: "only", Value: true})
		cur := datastore.NewKeyCursor(tbl)

		first, _ := cur.Collect(ctx)
		cur.Reset()
		second, _ := cur.Collect(ctx)
		if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
			t.Fatalf("Expected identical passes, got %v and %v", first, second)
		}
	})

	t.Run("EmptyTable", func(t *testing.T) {
		cur := datastore.NewKeyCursor(seeded(t, storagemodels.Set))
		if cur.Next(ctx) {
			t.Fatal("Expected no keys")
		}
		if cur.Err() != nil {
			t.Fatalf("End of table must not surface as an error: %v", cur.Err())
		}
	})

	t.Run("BackendError", func(t *testing.T) {
		tbl := seeded(t, storagemodels.Set,
			storagemodels.Object{Key: "a", Value: 1},
			storagemodels.Object{Key: "b", Value: 2},
		)
		boom := errors.New("boom")
		tbl.failNext = boom

		keys, err := datastore.NewKeyCursor(tbl).Collect(ctx)
		if !errors.Is(err, boom) {
			t.Fatalf("Expected backend error, got %v", err)
		}
		if len(keys) != 1 {
			t.Fatalf("Expected keys read before the failure, got %v", keys)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		cur := datastore.NewKeyCursor(seeded(t, storagemodels.Set, storagemodels.Object{Key: "a", Value: 1}))
		if cur.Next(cctx) {
			t.Fatal("Expected cancelled cursor to stop")
		}
		if !errors.Is(cur.Err(), context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", cur.Err())
		}
	})
}

func TestEntryCursor(t *testing.T) {
	ctx := context.Background()

	tbl := seeded(t, storagemodels.DuplicateBag,
		storagemodels.Object{Key: "a", Value: 1},
		storagemodels.Object{Key: "a", Value: 1},
		storagemodels.Object{Key: "b", Value: 2},
	)
	cur := datastore.NewEntryCursor(tbl)

	objs, err := cur.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("Expected 3 objects, got %+v", objs)
	}
	if objs[0].Key != "a" || objs[2].Key != "b" {
		t.Fatalf("Expected key order a a b, got %+v", objs)
	}
	if tbl.lookups != 2 {
		t.Fatalf("Expected one lookup per key, got %d", tbl.lookups)
	}

	cur.Reset()
	if !cur.Next(ctx) || cur.Key() != "a" || cur.Value() != 1 {
		t.Fatalf("Expected reset cursor to restart at a, got %+v", cur.Object())
	}
	if tserrors.IsEndOfTable(cur.Err()) {
		t.Fatal("End of table must never be reported by Err")
	}
}
