/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

const (
	maxIndexLevel = 16
)

type indexNode struct {
	key     string
	forward []*indexNode
}

// KeyIndex is an ordered set of keys backed by a skip list. Backends use it
// to answer First/Next in O(log n). It is not safe for concurrent use; the
// owning table guards it.
type KeyIndex struct {
	head  *indexNode
	level int
	count int
	rng   uint64
}

// NewKeyIndex creates an empty KeyIndex.
func NewKeyIndex() *KeyIndex {
	return &KeyIndex{
		head: &indexNode{forward: make([]*indexNode, maxIndexLevel)},
		rng:  0x9E3779B97F4A7C15,
	}
}

// randomLevel draws a level with p = 1/4 using xorshift64.
func (ix *KeyIndex) randomLevel() int {
	level := 0
	for level < maxIndexLevel-1 {
		ix.rng ^= ix.rng << 13
		ix.rng ^= ix.rng >> 7
		ix.rng ^= ix.rng << 17
		if ix.rng&0x3 != 0 {
			break
		}
		level++
	}
	return level
}

// seek fills update with the rightmost node before key on every level and
// returns the node at level 0 that may hold key.
func (ix *KeyIndex) seek(key string, update []*indexNode) *indexNode {
	current := ix.head
	for i := ix.level; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].key < key {
			current = current.forward[i]
		}
		if update != nil {
			update[i] = current
		}
	}
	return current.forward[0]
}

// Insert adds key. It reports whether the key was new.
func (ix *KeyIndex) Insert(key string) bool {
	update := make([]*indexNode, maxIndexLevel)
	if n := ix.seek(key, update); n != nil && n.key == key {
		return false
	}

	level := ix.randomLevel()
	if level > ix.level {
		for i := ix.level + 1; i <= level; i++ {
			update[i] = ix.head
		}
		ix.level = level
	}

	node := &indexNode{key: key, forward: make([]*indexNode, level+1)}
	for i := 0; i <= level; i++ {
		node.forward[i] = update[i].forward[i]
		update[i].forward[i] = node
	}
	ix.count++
	return true
}

// Remove deletes key. It reports whether the key was present.
func (ix *KeyIndex) Remove(key string) bool {
	update := make([]*indexNode, maxIndexLevel)
	n := ix.seek(key, update)
	if n == nil || n.key != key {
		return false
	}
	for i := 0; i <= ix.level; i++ {
		if update[i].forward[i] != n {
			break
		}
		update[i].forward[i] = n.forward[i]
	}
	for ix.level > 0 && ix.head.forward[ix.level] == nil {
		ix.level--
	}
	ix.count--
	return true
}

// Contains reports whether key is present.
func (ix *KeyIndex) Contains(key string) bool {
	n := ix.seek(key, nil)
	return n != nil && n.key == key
}

// First returns the smallest key.
func (ix *KeyIndex) First() (string, bool) {
	n := ix.head.forward[0]
	if n == nil {
		return "", false
	}
	return n.key, true
}

// Next returns the smallest key strictly greater than key. key itself need
// not be present.
func (ix *KeyIndex) Next(key string) (string, bool) {
	n := ix.seek(key, nil)
	if n != nil && n.key == key {
		n = n.forward[0]
	}
	if n == nil {
		return "", false
	}
	return n.key, true
}

// Len returns the number of keys.
func (ix *KeyIndex) Len() int {
	return ix.count
}

// Clear removes every key.
func (ix *KeyIndex) Clear() {
	ix.head = &indexNode{forward: make([]*indexNode, maxIndexLevel)}
	ix.level = 0
	ix.count = 0
}

// Keys returns all keys in order.
func (ix *KeyIndex) Keys() []string {
	keys := make([]string, 0, ix.count)
	for n := ix.head.forward[0]; n != nil; n = n.forward[0] {
		keys = append(keys, n.key)
	}
	return keys
}
