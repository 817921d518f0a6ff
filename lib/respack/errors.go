// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import "errors"

// Format errors. Any of these during Open aborts the open entirely:
// a partially parsed index is never returned.
var (
	// ErrCorruptHeader indicates the archive does not start with the
	// RPAK magic bytes or the fixed header fields are inconsistent
	// (for example, a table offset beyond the end of the file).
	ErrCorruptHeader = errors.New("respack: corrupt archive header")

	// ErrUnsupportedVersion indicates the archive magic is valid but
	// the format version is newer than this code understands.
	ErrUnsupportedVersion = errors.New("respack: unsupported archive version")

	// ErrTruncatedTable indicates the entry table ends before the
	// declared entry count was read.
	ErrTruncatedTable = errors.New("respack: truncated entry table")

	// ErrDuplicateEntry indicates two table records share the same
	// logical path. Duplicates are rejected rather than silently
	// shadowed.
	ErrDuplicateEntry = errors.New("respack: duplicate entry path")
)

// Lookup errors. These are expected responses to filesystem-style
// queries, not failures.
var (
	// ErrNotFound indicates no entry or directory exists at the
	// requested path.
	ErrNotFound = errors.New("respack: path not found")

	// ErrIsDirectory indicates a file-style operation was attempted
	// on a directory path.
	ErrIsDirectory = errors.New("respack: path is a directory")
)
