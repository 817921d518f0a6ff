// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/packtest"
)

func openStackFixture(t *testing.T) *respack.Stack {
	t.Helper()

	base := packtest.MustBuild([]packtest.File{
		{Path: "shared.txt", Content: []byte("base")},
		{Path: "base-only.txt", Content: []byte("only in base")},
		{Path: "dir/one", Content: []byte("1")},
	}, nil)
	patch := packtest.MustBuild([]packtest.File{
		{Path: "shared.txt", Content: []byte("patched")},
		{Path: "dir/two", Content: []byte("2")},
	}, nil)

	lower, err := respack.OpenBytes(base)
	if err != nil {
		t.Fatalf("OpenBytes(base): %v", err)
	}
	upper, err := respack.OpenBytes(patch)
	if err != nil {
		t.Fatalf("OpenBytes(patch): %v", err)
	}

	stack, err := respack.NewStack(lower, upper)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	t.Cleanup(func() { stack.Close() })
	return stack
}

func TestStackShadowing(t *testing.T) {
	stack := openStackFixture(t)

	// The later archive wins for a shared path.
	resolved, err := stack.Resolve("shared.txt")
	if err != nil {
		t.Fatalf("Resolve(shared.txt): %v", err)
	}
	if got := resolved.Archive.StoredBytes(resolved.Entry); !bytes.Equal(got, []byte("patched")) {
		t.Errorf("shared.txt resolved to %q, want %q", got, "patched")
	}

	// Paths unique to the lower layer still resolve.
	resolved, err = stack.Resolve("base-only.txt")
	if err != nil {
		t.Fatalf("Resolve(base-only.txt): %v", err)
	}
	if got := resolved.Archive.StoredBytes(resolved.Entry); !bytes.Equal(got, []byte("only in base")) {
		t.Errorf("base-only.txt resolved to %q, want %q", got, "only in base")
	}

	if _, err := stack.Resolve("missing"); !errors.Is(err, respack.ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStackListChildrenMerges(t *testing.T) {
	stack := openStackFixture(t)

	children, err := stack.ListChildren("dir")
	if err != nil {
		t.Fatalf("ListChildren(dir): %v", err)
	}

	// Both layers contribute; the higher-precedence layer's names come
	// first and no name repeats.
	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, child.Name)
	}
	if len(names) != 2 || names[0] != "two" || names[1] != "one" {
		t.Errorf("ListChildren(dir) = %v, want [two one]", names)
	}

	root, err := stack.ListChildren("")
	if err != nil {
		t.Fatalf("ListChildren(root): %v", err)
	}
	seen := make(map[string]int)
	for _, child := range root {
		seen[child.Name]++
	}
	for name, count := range seen {
		if count != 1 {
			t.Errorf("root listing repeats %q %d times", name, count)
		}
	}
	if seen["shared.txt"] != 1 || seen["base-only.txt"] != 1 || seen["dir"] != 1 {
		t.Errorf("root listing = %v, missing expected names", seen)
	}
}

// TestStackFileShadowsDirectory layers a file over a lower-layer
// directory of the same name. Resolve and ListChildren must agree:
// the path is a file, and the shadowed directory's children are
// unreachable through it.
func TestStackFileShadowsDirectory(t *testing.T) {
	base := packtest.MustBuild([]packtest.File{
		{Path: "conf/a.txt", Content: []byte("a")},
		{Path: "conf/b.txt", Content: []byte("b")},
	}, nil)
	patch := packtest.MustBuild([]packtest.File{
		{Path: "conf", Content: []byte("now a file")},
	}, nil)

	lower, err := respack.OpenBytes(base)
	if err != nil {
		t.Fatalf("OpenBytes(base): %v", err)
	}
	upper, err := respack.OpenBytes(patch)
	if err != nil {
		t.Fatalf("OpenBytes(patch): %v", err)
	}
	stack, err := respack.NewStack(lower, upper)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	defer stack.Close()

	resolved, err := stack.Resolve("conf")
	if err != nil {
		t.Fatalf("Resolve(conf): %v", err)
	}
	if resolved.IsDir {
		t.Fatal("Resolve(conf) = directory, want the shadowing file")
	}

	if _, err := stack.ListChildren("conf"); err == nil {
		t.Error("ListChildren(conf) succeeded through a shadowing file, want error")
	}

	// The parent listing reports the winning layer's type.
	root, err := stack.ListChildren("")
	if err != nil {
		t.Fatalf("ListChildren(root): %v", err)
	}
	if len(root) != 1 || root[0].Name != "conf" || root[0].IsDir {
		t.Errorf("ListChildren(root) = %+v, want a single file named conf", root)
	}
}

// TestStackDirectoryShadowsFile is the inverse layering: a directory
// in a later archive shadows a file beneath it, and the file's layer
// contributes nothing to the listing.
func TestStackDirectoryShadowsFile(t *testing.T) {
	base := packtest.MustBuild([]packtest.File{
		{Path: "conf", Content: []byte("was a file")},
	}, nil)
	patch := packtest.MustBuild([]packtest.File{
		{Path: "conf/new.txt", Content: []byte("n")},
	}, nil)

	lower, err := respack.OpenBytes(base)
	if err != nil {
		t.Fatalf("OpenBytes(base): %v", err)
	}
	upper, err := respack.OpenBytes(patch)
	if err != nil {
		t.Fatalf("OpenBytes(patch): %v", err)
	}
	stack, err := respack.NewStack(lower, upper)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	defer stack.Close()

	resolved, err := stack.Resolve("conf")
	if err != nil {
		t.Fatalf("Resolve(conf): %v", err)
	}
	if !resolved.IsDir {
		t.Fatal("Resolve(conf) = file, want the shadowing directory")
	}

	children, err := stack.ListChildren("conf")
	if err != nil {
		t.Fatalf("ListChildren(conf): %v", err)
	}
	if len(children) != 1 || children[0].Name != "new.txt" {
		t.Errorf("ListChildren(conf) = %+v, want [new.txt]", children)
	}
}

func TestStackRequiresArchives(t *testing.T) {
	if _, err := respack.NewStack(); err == nil {
		t.Error("NewStack() with no archives succeeded, want error")
	}
}
