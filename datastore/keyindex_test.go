/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"
	"sort"
	"testing"

	"github.com/suparena/tablestore/storagemodels"
)

func TestKeyIndex(t *testing.T) {
	ix := NewKeyIndex()

	keys := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		k := fmt.Sprintf("key-%03d", (i*37)%500)
		keys = append(keys, k)
		if !ix.Insert(k) {
			t.Fatalf("Insert(%q) reported duplicate", k)
		}
	}
	if ix.Insert(keys[0]) {
		t.Fatal("Second Insert of the same key should report false")
	}
	if ix.Len() != 500 {
		t.Fatalf("Expected 500 keys, got %d", ix.Len())
	}

	sort.Strings(keys)
	got := ix.Keys()
	for i := range keys {
		if got[i] != keys[i] {
			t.Fatalf("Keys out of order at %d: %q != %q", i, got[i], keys[i])
		}
	}

	for i := 0; i < 500; i += 2 {
		if !ix.Remove(keys[i]) {
			t.Fatalf("Remove(%q) reported missing", keys[i])
		}
	}
	if ix.Remove(keys[0]) {
		t.Fatal("Removing an absent key should report false")
	}
	if ix.Len() != 250 {
		t.Fatalf("Expected 250 keys after removal, got %d", ix.Len())
	}

	first, ok := ix.First()
	if !ok || first != keys[1] {
		t.Fatalf("Expected first key %q, got %q", keys[1], first)
	}

	// Next works from a removed key as well as a present one.
	next, ok := ix.Next(keys[2])
	if !ok || next != keys[3] {
		t.Fatalf("Expected %q after removed %q, got %q", keys[3], keys[2], next)
	}
	if _, ok := ix.Next(keys[499]); ok {
		t.Fatal("Expected no key after the last one")
	}
	if !ix.Contains(keys[1]) || ix.Contains(keys[0]) {
		t.Fatal("Contains disagrees with removals")
	}

	ix.Clear()
	if _, ok := ix.First(); ok || ix.Len() != 0 {
		t.Fatal("Expected empty index after Clear")
	}
}

func TestApplyInsert(t *testing.T) {
	tests := []struct {
		name      string
		entryType storagemodels.EntryType
		values    []any
		value     any
		want      int
		added     bool
	}{
		{"set new", storagemodels.Set, nil, 1, 1, true},
		{"set replace", storagemodels.Set, []any{1}, 2, 1, false},
		{"bag new value", storagemodels.Bag, []any{1}, 2, 2, true},
		{"bag equal value", storagemodels.Bag, []any{[]string{"a"}}, []string{"a"}, 1, false},
		{"duplicate bag", storagemodels.DuplicateBag, []any{1}, 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added := ApplyInsert(tt.entryType, tt.values, tt.value)
			if len(got) != tt.want || added != tt.added {
				t.Errorf("ApplyInsert = %v, %v; want len %d, added %v", got, added, tt.want, tt.added)
			}
		})
	}
}
