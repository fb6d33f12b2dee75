/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/suparena/tablestore/storagemodels"
)

func TestRegistry(t *testing.T) {
	t.Run("RegisterAndLookup", func(t *testing.T) {
		reg := New()

		if _, ok := reg.Lookup("missing"); ok {
			t.Fatal("Lookup of an unknown alias should report absence")
		}

		reg.Register("cache", TableRecord{Kind: storagemodels.KindMemory, Handle: "cache"})
		rec, ok := reg.Lookup("cache")
		if !ok {
			t.Fatal("Expected cache to be registered")
		}
		if rec.Alias != "cache" {
			t.Errorf("Register should stamp the alias, got %q", rec.Alias)
		}
		if !reg.Exists("cache") {
			t.Error("Exists should agree with Lookup")
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		reg := New()
		reg.Register("t", TableRecord{Handle: "first"})
		reg.Register("t", TableRecord{Handle: "second"})

		rec, _ := reg.Lookup("t")
		if rec.Handle != "second" {
			t.Fatalf("Expected second record, got %q", rec.Handle)
		}
		if reg.Len() != 1 {
			t.Fatalf("Expected one record, got %d", reg.Len())
		}
	})

	t.Run("UnregisterIsIdempotent", func(t *testing.T) {
		reg := New()
		reg.Register("t", TableRecord{})
		reg.Unregister("t")
		reg.Unregister("t")
		if reg.Exists("t") {
			t.Fatal("Expected t to be gone")
		}
	})

	t.Run("FindHandleIsPerKind", func(t *testing.T) {
		reg := New()
		reg.Register("mem", TableRecord{Kind: storagemodels.KindMemory, Handle: "/tmp/x.tbl"})
		reg.Register("dsk", TableRecord{Kind: storagemodels.KindDisk, Handle: "/tmp/x.tbl"})

		rec, ok := reg.FindHandle(storagemodels.KindDisk, "/tmp/x.tbl")
		if !ok || rec.Alias != "dsk" {
			t.Fatalf("Expected disk record, got %+v", rec)
		}
		if rec.Path() != "/tmp/x.tbl" {
			t.Errorf("Expected disk record path, got %q", rec.Path())
		}
		if mem, _ := reg.Lookup("mem"); mem.Path() != "" {
			t.Errorf("Memory records have no path, got %q", mem.Path())
		}
	})

	t.Run("ListIsASortedCopy", func(t *testing.T) {
		reg := New()
		reg.Register("b", TableRecord{})
		reg.Register("a", TableRecord{})

		list := reg.List()
		if len(list) != 2 || list[0].Alias != "a" || list[1].Alias != "b" {
			t.Fatalf("Expected [a b], got %+v", list)
		}
		list[0].Handle = "mutated"
		if rec, _ := reg.Lookup("a"); rec.Handle == "mutated" {
			t.Fatal("List must return a copy")
		}
	})

	t.Run("Flush", func(t *testing.T) {
		reg := New()
		reg.Register("a", TableRecord{})
		reg.Register("b", TableRecord{})
		reg.Flush()
		if reg.Len() != 0 || len(reg.List()) != 0 {
			t.Fatal("Expected empty registry after Flush")
		}
	})
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := New()

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				alias := storagemodels.Alias(fmt.Sprintf("t-%d-%d", w, i))
				reg.Register(alias, TableRecord{Handle: string(alias)})
				reg.Lookup(alias)
				reg.List()
				if i%2 == 0 {
					reg.Unregister(alias)
				}
			}
		}(w)
	}
	wg.Wait()

	if reg.Len() != 10*50 {
		t.Fatalf("Expected %d records, got %d", 10*50, reg.Len())
	}
}
