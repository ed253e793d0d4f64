// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package linked

import "github.com/ava-labs/ledgerdb/utils"

type keyValue[K, V any] struct {
	key   K
	value V

	prev *keyValue[K, V]
	next *keyValue[K, V]
}

// Hashmap provides an O(1) mapping from a comparable key to any value, while
// tracking the order in which keys were most recently put.
//
// Entries are maintained in a doubly linked list from oldest to newest. Put
// moves the entry for the key to the newest position.
type Hashmap[K comparable, V any] struct {
	entryMap map[K]*keyValue[K, V]
	// sentinel root of the circular list; root.next is the oldest entry and
	// root.prev is the newest.
	root *keyValue[K, V]

	// freeList reuses entry allocations across Delete/Put cycles.
	freeList []*keyValue[K, V]
}

func NewHashmap[K comparable, V any]() *Hashmap[K, V] {
	root := &keyValue[K, V]{}
	root.prev = root
	root.next = root
	return &Hashmap[K, V]{
		entryMap: make(map[K]*keyValue[K, V]),
		root:     root,
	}
}

func (lh *Hashmap[K, V]) Put(key K, value V) {
	if e, exists := lh.entryMap[key]; exists {
		lh.unlink(e)
		e.value = value
		lh.pushNewest(e)
		return
	}

	var e *keyValue[K, V]
	if numFree := len(lh.freeList); numFree > 0 {
		e = lh.freeList[numFree-1]
		lh.freeList[numFree-1] = nil
		lh.freeList = lh.freeList[:numFree-1]
	} else {
		e = &keyValue[K, V]{}
	}
	e.key = key
	e.value = value
	lh.entryMap[key] = e
	lh.pushNewest(e)
}

func (lh *Hashmap[K, V]) Get(key K) (V, bool) {
	if e, exists := lh.entryMap[key]; exists {
		return e.value, true
	}
	return utils.Zero[V](), false
}

func (lh *Hashmap[K, V]) Delete(key K) bool {
	e, exists := lh.entryMap[key]
	if exists {
		lh.unlink(e)
		delete(lh.entryMap, key)

		// Zero the entry to avoid keeping references alive from the free
		// list.
		e.key = utils.Zero[K]()
		e.value = utils.Zero[V]()
		lh.freeList = append(lh.freeList, e)
	}
	return exists
}

func (lh *Hashmap[K, V]) Clear() {
	clear(lh.entryMap)
	lh.root.prev = lh.root
	lh.root.next = lh.root
	lh.freeList = nil
}

func (lh *Hashmap[K, V]) Len() int {
	return len(lh.entryMap)
}

func (lh *Hashmap[K, V]) Oldest() (K, V, bool) {
	if lh.Len() == 0 {
		return utils.Zero[K](), utils.Zero[V](), false
	}
	e := lh.root.next
	return e.key, e.value, true
}

func (lh *Hashmap[K, V]) Newest() (K, V, bool) {
	if lh.Len() == 0 {
		return utils.Zero[K](), utils.Zero[V](), false
	}
	e := lh.root.prev
	return e.key, e.value, true
}

func (lh *Hashmap[K, V]) pushNewest(e *keyValue[K, V]) {
	newest := lh.root.prev
	newest.next = e
	e.prev = newest
	e.next = lh.root
	lh.root.prev = e
}

func (lh *Hashmap[K, V]) unlink(e *keyValue[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

// NewIterator returns an iterator over the entries of this hashmap from
// oldest to newest.
//
// Adding or removing entries while iterating results in undefined iteration
// order, but remains safe.
func (lh *Hashmap[K, V]) NewIterator() *Iterator[K, V] {
	return &Iterator[K, V]{lh: lh, next: lh.root.next}
}

// Iterates over the entries of a Hashmap from oldest to newest.
// Assumes the underlying hashmap is not modified while the iterator is in
// use, except for deleting the current entry.
type Iterator[K comparable, V any] struct {
	lh    *Hashmap[K, V]
	next  *keyValue[K, V]
	key   K
	value V
}

func (it *Iterator[K, V]) Next() bool {
	if it.next == it.lh.root || it.next == nil {
		it.key = utils.Zero[K]()
		it.value = utils.Zero[V]()
		return false
	}
	it.key = it.next.key
	it.value = it.next.value
	it.next = it.next.next
	return true
}

func (it *Iterator[K, V]) Key() K {
	return it.key
}

func (it *Iterator[K, V]) Value() V {
	return it.value
}
