/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Source is something a table can be merged from: another table, a map, or
// a list of objects.
type Source interface {
	isSource()
}

// AliasSource reads every object of a registered table.
type AliasSource struct {
	Alias Alias
}

// MapSource reads one object per map entry.
type MapSource map[string]any

// ObjectsSource reads the objects in order.
type ObjectsSource []Object

func (AliasSource) isSource()   {}
func (MapSource) isSource()     {}
func (ObjectsSource) isSource() {}

// FromAlias merges from the table registered as alias.
func FromAlias(alias Alias) Source {
	return AliasSource{Alias: alias}
}

// FromMap merges from m.
func FromMap(m map[string]any) Source {
	return MapSource(m)
}

// FromObjects merges from objs.
func FromObjects(objs ...Object) Source {
	return ObjectsSource(objs)
}
