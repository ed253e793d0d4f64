// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keytrie provides a trie over segmented paths. It tracks a set of
// keys and yields them in segment-lexicographic order, optionally bounded to
// a path prefix, without visiting unrelated subtrees.
package keytrie

import (
	"slices"

	"golang.org/x/exp/maps"
)

// Trie is a set of segmented paths. The zero value is not usable; call New.
//
// A Trie is not safe for concurrent use.
type Trie struct {
	root *node
	size int
}

type node struct {
	children map[string]*node

	// sortedNames caches the sorted child segment names. nil when the
	// children set changed since the last traversal.
	sortedNames []string

	// terminal marks that a tracked path ends at this node, as opposed to
	// the node only existing as the spine of longer paths.
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) sorted() []string {
	if n.sortedNames == nil {
		n.sortedNames = maps.Keys(n.children)
		slices.Sort(n.sortedNames)
	}
	return n.sortedNames
}

func New() *Trie {
	return &Trie{root: newNode()}
}

// Insert adds [segments] to the trie. Returns false if it was already
// present.
func (t *Trie) Insert(segments []string) bool {
	n := t.root
	for _, segment := range segments {
		child, ok := n.children[segment]
		if !ok {
			child = newNode()
			n.children[segment] = child
			n.sortedNames = nil
		}
		n = child
	}
	if n.terminal {
		return false
	}
	n.terminal = true
	t.size++
	return true
}

// Remove deletes [segments] from the trie, pruning any nodes left without
// terminal descendants. Returns false if the path wasn't present.
func (t *Trie) Remove(segments []string) bool {
	// Record the path so empty nodes can be pruned bottom-up.
	nodes := make([]*node, 0, len(segments)+1)
	n := t.root
	nodes = append(nodes, n)
	for _, segment := range segments {
		child, ok := n.children[segment]
		if !ok {
			return false
		}
		n = child
		nodes = append(nodes, n)
	}
	if !n.terminal {
		return false
	}
	n.terminal = false
	t.size--

	for i := len(segments) - 1; i >= 0; i-- {
		child := nodes[i+1]
		if child.terminal || len(child.children) > 0 {
			break
		}
		parent := nodes[i]
		delete(parent.children, segments[i])
		parent.sortedNames = nil
	}
	return true
}

// Has returns whether [segments] is in the trie.
func (t *Trie) Has(segments []string) bool {
	n := t.lookup(segments)
	return n != nil && n.terminal
}

// HasPrefix returns whether any tracked path starts with [prefix]. A path
// equal to [prefix] counts.
func (t *Trie) HasPrefix(prefix []string) bool {
	return t.lookup(prefix) != nil
}

func (t *Trie) lookup(segments []string) *node {
	n := t.root
	for _, segment := range segments {
		child, ok := n.children[segment]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

func (t *Trie) Len() int {
	return t.size
}

func (t *Trie) Clear() {
	t.root = newNode()
	t.size = 0
}

// Ascend calls [fn] for every tracked path in segment-lexicographic order
// until [fn] returns false. Returns false iff the traversal was cut short.
//
// The segment slice passed to [fn] is reused between calls; callers must copy
// it if they retain it.
func (t *Trie) Ascend(fn func(segments []string) bool) bool {
	return ascend(t.root, nil, fn)
}

// AscendPrefix is Ascend bounded to the paths starting with [prefix].
func (t *Trie) AscendPrefix(prefix []string, fn func(segments []string) bool) bool {
	n := t.lookup(prefix)
	if n == nil {
		return true
	}
	return ascend(n, slices.Clone(prefix), fn)
}

func ascend(n *node, stack []string, fn func(segments []string) bool) bool {
	// A path ending here precedes every longer path below it.
	if n.terminal && !fn(stack) {
		return false
	}
	for _, segment := range n.sorted() {
		if !ascend(n.children[segment], append(stack, segment), fn) {
			return false
		}
	}
	return true
}
