// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"github.com/ava-labs/ledgerdb/keytrie"
	"github.com/ava-labs/ledgerdb/utils/maybe"
)

// KeyIndex tracks the keys staged in an overlay and yields them in canonical
// order. It is maintained in lock-step with the overlay's entry map so that
// prefix scans never have to visit the whole staged set.
type KeyIndex interface {
	Insert(Key)
	Remove(Key)
	Clear()
	Len() int

	// AscendPrefix calls [fn] for every tracked key equal to or nested under
	// [prefix], in canonical order, until [fn] returns false. The zero key
	// matches everything.
	AscendPrefix(prefix Key, fn func(Key) bool)
}

var _ KeyIndex = (*trieIndex)(nil)

// trieIndex is the default KeyIndex, backed by a path-segment trie.
type trieIndex struct {
	trie *keytrie.Trie
}

func newTrieIndex() *trieIndex {
	return &trieIndex{trie: keytrie.New()}
}

func (i *trieIndex) Insert(key Key) {
	i.trie.Insert(key.Segments())
}

func (i *trieIndex) Remove(key Key) {
	i.trie.Remove(key.Segments())
}

func (i *trieIndex) Clear() {
	i.trie.Clear()
}

func (i *trieIndex) Len() int {
	return i.trie.Len()
}

func (i *trieIndex) AscendPrefix(prefix Key, fn func(Key) bool) {
	i.trie.AscendPrefix(prefix.Segments(), func(segments []string) bool {
		// The trie reuses the segment slice; keys built from it must copy.
		copied := make([]string, len(segments))
		copy(copied, segments)
		return fn(Key{segments: copied})
	})
}

// overlay is one write-staging scope: a map from encoded key to its staged
// state, Some for a value and Nothing for a tombstone, plus a KeyIndex kept
// in lock-step for ordered iteration. Insertion order is irrelevant; only
// the final per-key state matters.
type overlay struct {
	entries map[string]maybe.Maybe[[]byte]
	index   KeyIndex
}

func newOverlay() *overlay {
	return &overlay{
		entries: make(map[string]maybe.Maybe[[]byte]),
		index:   newTrieIndex(),
	}
}

// get returns the staged state for [key] and whether the overlay holds one.
func (o *overlay) get(key Key) (maybe.Maybe[[]byte], bool) {
	entry, ok := o.entries[string(key.Bytes())]
	return entry, ok
}

// put stages [state] for [key], replacing any earlier staged state.
func (o *overlay) put(key Key, state maybe.Maybe[[]byte]) {
	encoded := string(key.Bytes())
	if _, exists := o.entries[encoded]; !exists {
		o.index.Insert(key)
	}
	o.entries[encoded] = state
}

// mergeInto folds this overlay into [dst] with last-write-wins semantics.
// Tombstones override earlier values for the same key.
func (o *overlay) mergeInto(dst *overlay) {
	o.index.AscendPrefix(Key{}, func(key Key) bool {
		dst.put(key, o.entries[string(key.Bytes())])
		return true
	})
}

func (o *overlay) clear() {
	clear(o.entries)
	o.index.Clear()
}

func (o *overlay) len() int {
	return len(o.entries)
}

// ascendPrefix calls [fn] for every staged key equal to or nested under
// [prefix] with its staged state, in canonical order.
func (o *overlay) ascendPrefix(prefix Key, fn func(Key, maybe.Maybe[[]byte]) bool) {
	o.index.AscendPrefix(prefix, func(key Key) bool {
		return fn(key, o.entries[string(key.Bytes())])
	})
}
