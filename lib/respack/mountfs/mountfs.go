// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mountfs is the platform-neutral virtual-filesystem adapter
// over an archive (or archive stack): it answers the capability set a
// user-mode filesystem driver needs — attributes, open, read, list,
// close — by consulting the archive index and materializing entry
// content through the decode pipeline on demand.
//
// Keeping this surface free of any driver ABI means the hard logic
// (index, decode, cache, handle state) is testable without a real
// mount; the fuse subpackage is a thin per-OS binding on top.
package mountfs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/decode"
)

// ErrClosedHandle indicates a read on a handle that was already
// closed.
var ErrClosedHandle = errors.New("mountfs: handle is closed")

// Attributes describes what a path names, the way a stat call would.
type Attributes struct {
	// Size is the decoded (raw) size for files, zero for
	// directories. Tools that stat before reading see the true
	// logical size, not the stored size.
	Size uint64

	// IsDir reports whether the path is a directory.
	IsDir bool
}

// Handle is one open file. Handles move through Opened → Reading
// (repeatedly) → Closed; there are no write or create transitions.
// Safe for concurrent reads.
type Handle struct {
	id      uint64
	archive *respack.Archive
	entry   *respack.Entry

	mu     sync.Mutex
	closed bool
}

// ID returns the handle's identifier, unique for the lifetime of the
// filesystem. Driver bindings hand this to the kernel.
func (h *Handle) ID() uint64 { return h.id }

// Path returns the logical path the handle was opened for.
func (h *Handle) Path() string { return h.entry.Path }

// FS answers filesystem-style queries against a resolver (a single
// archive or a stack). All methods are safe to call concurrently from
// driver-managed threads, in any interleaving.
type FS struct {
	resolver respack.Resolver
	pipeline *decode.Pipeline

	mu         sync.Mutex
	handles    map[uint64]*Handle
	nextHandle uint64
}

// New creates a filesystem adapter over a resolver and pipeline.
func New(resolver respack.Resolver, pipeline *decode.Pipeline) *FS {
	return &FS{
		resolver: resolver,
		pipeline: pipeline,
		handles:  make(map[uint64]*Handle),
	}
}

// Attributes resolves a path to its attributes. Returns
// respack.ErrNotFound (wrapped) for paths naming nothing.
func (f *FS) Attributes(path string) (Attributes, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return Attributes{}, err
	}
	if resolved.IsDir {
		return Attributes{IsDir: true}, nil
	}
	return Attributes{Size: resolved.Entry.RawSize}, nil
}

// Open opens a file for reading. Directory paths fail with
// respack.ErrIsDirectory; missing paths with respack.ErrNotFound.
func (f *FS) Open(path string) (*Handle, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if resolved.IsDir {
		return nil, fmt.Errorf("%w: %q", respack.ErrIsDirectory, path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHandle++
	handle := &Handle{
		id:      f.nextHandle,
		archive: resolved.Archive,
		entry:   resolved.Entry,
	}
	f.handles[handle.id] = handle
	return handle, nil
}

// Read copies up to len(dest) bytes of decoded content starting at
// offset. Reads past end-of-file return a short (possibly zero) count
// per conventional filesystem semantics, never an error. Decode
// failures (bad key, corrupt stream, checksum mismatch) surface as
// errors for the binding to translate into an I/O error.
func (f *FS) Read(handle *Handle, dest []byte, offset int64) (int, error) {
	handle.mu.Lock()
	if handle.closed {
		handle.mu.Unlock()
		return 0, ErrClosedHandle
	}
	handle.mu.Unlock()

	return f.pipeline.ReadAt(handle.archive, handle.entry, dest, offset)
}

// ListDirectory lists a directory's immediate children.
func (f *FS) ListDirectory(path string) ([]respack.DirEntry, error) {
	return f.resolver.ListChildren(path)
}

// Close releases a handle. Closing an already-closed handle is an
// error (the driver contract never double-releases).
func (f *FS) Close(handle *Handle) error {
	handle.mu.Lock()
	defer handle.mu.Unlock()
	if handle.closed {
		return ErrClosedHandle
	}
	handle.closed = true

	f.mu.Lock()
	delete(f.handles, handle.id)
	f.mu.Unlock()
	return nil
}

// Lookup returns the handle registered under an ID, for bindings
// whose driver passes opaque handle numbers back on read.
func (f *FS) Lookup(handleID uint64) (*Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	handle, ok := f.handles[handleID]
	return handle, ok
}

// OpenHandles returns the number of handles currently open.
func (f *FS) OpenHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}
