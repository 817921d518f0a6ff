// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import "fmt"

// Resolved is the result of resolving a logical path against an
// archive or a stack: the owning archive plus either a file entry or
// a directory marker.
type Resolved struct {
	// Archive owns the entry's backing bytes. For directories in a
	// stack this is the highest-precedence archive contributing to
	// the directory.
	Archive *Archive

	// Entry is the file entry, nil when the path is a directory.
	Entry *Entry

	// IsDir reports whether the path names a directory.
	IsDir bool
}

// Resolver is the read surface shared by a single [Archive] and a
// layered [Stack]. The mountfs adapter works against this interface
// so a mount can span one or many archive blobs.
type Resolver interface {
	// Resolve maps a logical path to its entry or directory.
	// Returns ErrNotFound when the path names nothing.
	Resolve(path string) (Resolved, error)

	// ListChildren lists the immediate children of a directory.
	ListChildren(path string) ([]DirEntry, error)
}

// Resolve implements [Resolver] for a single archive.
func (a *Archive) Resolve(path string) (Resolved, error) {
	entry, isDir, err := a.Stat(path)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Archive: a, Entry: entry, IsDir: isDir}, nil
}

// Stack layers several archives into one logical tree, the way the
// game client overlays its resource packages. Later archives in the
// slice take precedence: an entry path present in two archives
// resolves to the later one, and a file in a later archive shadows a
// directory of the same name in an earlier one.
//
// The stack borrows its archives; Close closes all of them.
type Stack struct {
	archives []*Archive
}

// NewStack builds a stack over the given archives, lowest precedence
// first. At least one archive is required.
func NewStack(archives ...*Archive) (*Stack, error) {
	if len(archives) == 0 {
		return nil, fmt.Errorf("respack: stack needs at least one archive")
	}
	return &Stack{archives: archives}, nil
}

// Archives returns the layered archives, lowest precedence first.
// The slice is owned by the stack.
func (s *Stack) Archives() []*Archive {
	return s.archives
}

// Resolve implements [Resolver]. Archives are consulted from highest
// precedence to lowest; the first layer that knows the path wins.
func (s *Stack) Resolve(path string) (Resolved, error) {
	for i := len(s.archives) - 1; i >= 0; i-- {
		archive := s.archives[i]
		entry, isDir, err := archive.Stat(path)
		if err != nil {
			continue
		}
		return Resolved{Archive: archive, Entry: entry, IsDir: isDir}, nil
	}
	return Resolved{}, fmt.Errorf("%w: %q", ErrNotFound, path)
}

// ListChildren implements [Resolver]. The listing is the union of the
// layers' listings: names from higher-precedence archives come first,
// each name appearing exactly once with the winning layer's type.
//
// Shadowing is honored: when the highest layer that knows the path
// holds a file there, the path is a file for the whole stack and
// listing it fails, exactly as [Stack.Resolve] reports it. A file in
// a middle layer likewise cuts off directory contributions from the
// layers beneath it.
func (s *Stack) ListChildren(path string) ([]DirEntry, error) {
	var (
		merged []DirEntry
		seen   = make(map[string]bool)
		found  bool
	)
	for i := len(s.archives) - 1; i >= 0; i-- {
		archive := s.archives[i]
		_, isDir, err := archive.Stat(path)
		if err != nil {
			continue
		}
		if !isDir {
			if found {
				break
			}
			return nil, fmt.Errorf("respack: %q is a file, not a directory", path)
		}
		found = true

		children, err := archive.ListChildren(path)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child.Name] {
				continue
			}
			seen[child.Name] = true
			merged = append(merged, child)
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return merged, nil
}

// Close closes all layered archives, returning the first error.
func (s *Stack) Close() error {
	var firstErr error
	for _, archive := range s.archives {
		if err := archive.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
