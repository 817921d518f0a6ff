// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package respack reads packed-resource archives: single-blob
// containers that map logical file paths to byte ranges plus a
// per-entry transform descriptor (compression, encryption, checksum).
//
// An [Archive] owns the raw backing bytes of one blob (memory-mapped
// when opened from a file path) and an index parsed once at open time.
// The index answers filesystem-style questions: [Archive.Lookup]
// resolves a logical path to its entry, [Archive.ListChildren] lists
// the immediate children of a directory implied by entry paths.
//
// The archive is read-only and immutable after open. Decoding entry
// payloads (decrypt, inflate, verify) is the job of the decode
// subpackage; exposing the tree as a mountable filesystem is the job
// of the mountfs and fuse subpackages.
package respack
