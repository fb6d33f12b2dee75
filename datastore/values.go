/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"reflect"

	"github.com/suparena/tablestore/storagemodels"
)

// ApplyInsert returns the values stored under a key after inserting v into
// a table of type t. Set tables replace, bags skip a value equal to one
// already present, duplicate bags always append. added reports whether the
// object count grew.
func ApplyInsert(t storagemodels.EntryType, values []any, v any) (result []any, added bool) {
	switch t {
	case storagemodels.Bag:
		for _, existing := range values {
			if reflect.DeepEqual(existing, v) {
				return values, false
			}
		}
		return append(values, v), true
	case storagemodels.DuplicateBag:
		return append(values, v), true
	default:
		return []any{v}, len(values) == 0
	}
}
