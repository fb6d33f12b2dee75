/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/suparena/tablestore/datastore/disk"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

type TestUser struct {
	ID    string
	Name  string
	Email string
}

func init() {
	disk.RegisterType(TestUser{})
}

func TestTypedView(t *testing.T) {
	ctx := context.Background()

	storages(t, "users", nil, func(t *testing.T, store *Store) {
		users := NewTyped[TestUser](store, "users")

		if _, found, err := users.Get(ctx, "u1"); err != nil || found {
			t.Fatalf("Expected no user, got found=%v err=%v", found, err)
		}

		alice := TestUser{ID: "u1", Name: "Alice", Email: "alice@example.com"}
		bob := TestUser{ID: "u2", Name: "Bob", Email: "bob@example.com"}
		if err := users.Put(ctx, alice.ID, alice); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		users.Put(ctx, bob.ID, bob)

		got, found, err := users.Get(ctx, "u1")
		if err != nil || !found {
			t.Fatalf("Expected alice, got found=%v err=%v", found, err)
		}
		if got != alice {
			t.Fatalf("Expected %+v, got %+v", alice, got)
		}

		all, err := users.ToMap(ctx)
		if err != nil {
			t.Fatalf("ToMap failed: %v", err)
		}
		if !reflect.DeepEqual(all, map[string]TestUser{"u1": alice, "u2": bob}) {
			t.Fatalf("Unexpected map: %+v", all)
		}

		if err := users.Delete(ctx, "u2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if store.HasKey(ctx, "users", "u2") {
			t.Fatal("Expected u2 deleted")
		}
	})
}

func TestTypedViewMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.New(ctx, "mixed", storagemodels.InMemory())
	store.Put(ctx, "mixed", "n", 1)
	store.Put(ctx, "mixed", "s", "text")

	ints := NewTyped[int](store, "mixed")
	if v, found, err := ints.Get(ctx, "n"); err != nil || !found || v != 1 {
		t.Fatalf("Expected 1, got %v %v %v", v, found, err)
	}
	if _, _, err := ints.Get(ctx, "s"); !errors.IsValidationError(err) {
		t.Fatalf("Expected validation error for a string value, got %v", err)
	}

	visited := 0
	err := ints.Each(ctx, func(string, int) error {
		visited++
		return nil
	})
	if !errors.IsValidationError(err) {
		t.Fatalf("Each should stop at the mismatched value, got %v", err)
	}
	if visited != 1 {
		t.Fatalf("Expected one value before the mismatch, got %d", visited)
	}
}

func TestTypedViewSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	path := filepath.Join(t.TempDir(), "bags.tbl")
	store.New(ctx, "tags", storagemodels.OnDisk(path), storagemodels.WithEntryType(storagemodels.Bag))

	tags := NewTyped[string](store, "tags")
	tags.Put(ctx, "post-1", "go")
	tags.Put(ctx, "post-1", "storage")
	store.Close(ctx, "tags")

	if _, err := tags.GetAll(ctx, "post-1"); !errors.IsNotRegistered(err) {
		t.Fatalf("Expected not registered while closed, got %v", err)
	}

	store.Open(ctx, "tags", storagemodels.OnDisk(path))
	defer store.CloseAll(ctx)
	values, err := tags.GetAll(ctx, "post-1")
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if !reflect.DeepEqual(values, []string{"go", "storage"}) {
		t.Fatalf("Expected [go storage], got %v", values)
	}
}
