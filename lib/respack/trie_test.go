// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import "testing"

func TestTrieInsertConflicts(t *testing.T) {
	root := newTrieNode()
	entry := &Entry{Path: "a/b"}

	if !root.insert("a/b", entry) {
		t.Fatal("insert(a/b) on empty trie failed")
	}
	if root.insert("a/b", &Entry{Path: "a/b"}) {
		t.Error("insert accepted a duplicate leaf")
	}
	if root.insert("a/b/c", &Entry{Path: "a/b/c"}) {
		t.Error("insert descended through a file entry")
	}
	if root.insert("a", &Entry{Path: "a"}) {
		t.Error("insert attached an entry to a directory node")
	}
}

func TestTrieFind(t *testing.T) {
	root := newTrieNode()
	entry := &Entry{Path: "x/y/z"}
	if !root.insert("x/y/z", entry) {
		t.Fatal("insert failed")
	}

	if node := root.find(""); node != root {
		t.Error("find(empty) did not return the root")
	}
	if node := root.find("x/y"); node == nil || node.entry != nil {
		t.Error("find(x/y) should be a directory node")
	}
	if node := root.find("x/y/z"); node == nil || node.entry != entry {
		t.Error("find(x/y/z) did not return the leaf entry")
	}
	if node := root.find("x/nope"); node != nil {
		t.Error("find(x/nope) returned a node for a missing path")
	}
}
