// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import "strings"

// trieNode is one directory level in the path trie built from entry
// paths. Children are kept in first-encounter order so that directory
// listings are deterministic and match the on-disk table order.
//
// The trie is built once during Open and never mutated afterwards, so
// concurrent lookups need no synchronization.
type trieNode struct {
	// children maps a path segment to its node.
	children map[string]*trieNode

	// order holds the child segment names in the order they were
	// first implied by a table record.
	order []string

	// entry is the file entry occupying this exact path, or nil for
	// a pure directory node. A node with both children and an entry
	// is rejected at build time (a path cannot be a file and a
	// directory at once).
	entry *Entry
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

// child returns the node for a segment, creating it if absent.
func (n *trieNode) child(segment string) *trieNode {
	if existing, ok := n.children[segment]; ok {
		return existing
	}
	created := newTrieNode()
	n.children[segment] = created
	n.order = append(n.order, segment)
	return created
}

// insert walks the path segments from this node, creating directory
// nodes for every prefix, and attaches the entry at the leaf. Returns
// false if the leaf is already occupied by an entry or if the path
// conflicts with an existing file/directory split.
func (n *trieNode) insert(path string, entry *Entry) bool {
	node := n
	remaining := path
	for {
		segment := remaining
		if slash := strings.IndexByte(remaining, '/'); slash >= 0 {
			segment = remaining[:slash]
			remaining = remaining[slash+1:]
		} else {
			remaining = ""
		}

		node = node.child(segment)

		if remaining == "" {
			if node.entry != nil || len(node.children) > 0 {
				return false
			}
			node.entry = entry
			return true
		}

		// Descending through a node that holds a file entry means
		// the table declares both "a" and "a/b". Reject.
		if node.entry != nil {
			return false
		}
	}
}

// find returns the node at the given slash-separated path, or nil.
// The empty path is this node itself.
func (n *trieNode) find(path string) *trieNode {
	if path == "" {
		return n
	}
	node := n
	for _, segment := range strings.Split(path, "/") {
		next, ok := node.children[segment]
		if !ok {
			return nil
		}
		node = next
	}
	return node
}

// list returns the immediate children of this node in first-encounter
// order.
func (n *trieNode) list() []DirEntry {
	entries := make([]DirEntry, 0, len(n.order))
	for _, segment := range n.order {
		child := n.children[segment]
		entries = append(entries, DirEntry{
			Name:  segment,
			IsDir: child.entry == nil,
		})
	}
	return entries
}
