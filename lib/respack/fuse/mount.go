// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes a mountfs.FS as a read-only FUSE mount. It is
// a thin binding: every kernel callback translates directly into one
// mountfs call, and all archive logic stays on the other side of that
// interface.
package fuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/mountfs"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	// Created if it does not exist.
	Mountpoint string

	// FS is the adapter serving all filesystem queries.
	FS *mountfs.FS

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, errors only to
	// stderr.
	Logger *slog.Logger
}

// Mount mounts the archive filesystem at the configured mountpoint.
// The caller must call Unmount on the returned server when done;
// unmounting releases the mount but not the archives — closing those
// stays with whoever opened them.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.FS == nil {
		return nil, fmt.Errorf("filesystem adapter is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &dirNode{options: &options, path: ""}

	// The tree is immutable for the life of the mount, so generous
	// kernel caching is always valid.
	entryTimeout := 10 * time.Second
	attrTimeout := 10 * time.Second
	negativeTimeout := 1 * time.Second

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "respack",
			Name:       "respack",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("archive filesystem mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// errnoFor translates adapter errors into FUSE errnos. NotFound and
// IsADirectory are expected responses, not failures; everything else
// from the decode path is an I/O error.
func errnoFor(err error) syscall.Errno {
	switch {
	case errors.Is(err, respack.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, respack.ErrIsDirectory):
		return syscall.EISDIR
	default:
		return syscall.EIO
	}
}

// dirNode is a directory in the archive tree.
type dirNode struct {
	gofuse.Inode
	options *Options
	path    string // ""-rooted logical path, no separators at the ends
}

var _ gofuse.InodeEmbedder = (*dirNode)(nil)
var _ gofuse.NodeLookuper = (*dirNode)(nil)
var _ gofuse.NodeReaddirer = (*dirNode)(nil)
var _ gofuse.NodeGetattrer = (*dirNode)(nil)

func (d *dirNode) childPath(name string) string {
	if d.path == "" {
		return name
	}
	return d.path + "/" + name
}

func (d *dirNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

func (d *dirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	path := d.childPath(name)

	attributes, err := d.options.FS.Attributes(path)
	if err != nil {
		if !errors.Is(err, respack.ErrNotFound) {
			d.options.Logger.Error("lookup failed", "path", path, "error", err)
		}
		return nil, errnoFor(err)
	}

	if attributes.IsDir {
		child := d.NewPersistentInode(ctx, &dirNode{options: d.options, path: path},
			gofuse.StableAttr{Mode: syscall.S_IFDIR})
		out.Mode = syscall.S_IFDIR | 0o555
		return child, 0
	}

	child := d.NewPersistentInode(ctx, &fileNode{options: d.options, path: path, size: attributes.Size},
		gofuse.StableAttr{Mode: syscall.S_IFREG})
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = attributes.Size
	return child, 0
}

func (d *dirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	children, err := d.options.FS.ListDirectory(d.path)
	if err != nil {
		if !errors.Is(err, respack.ErrNotFound) {
			d.options.Logger.Error("readdir failed", "path", d.path, "error", err)
		}
		return nil, errnoFor(err)
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, child := range children {
		mode := uint32(syscall.S_IFREG)
		if child.IsDir {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: child.Name, Mode: mode})
	}

	return &sliceDirStream{entries: entries}, 0
}

// fileNode is one archive entry as a regular read-only file.
type fileNode struct {
	gofuse.Inode
	options *Options
	path    string
	size    uint64
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)
var _ gofuse.NodeReader = (*fileNode)(nil)
var _ gofuse.NodeReleaser = (*fileNode)(nil)

func (f *fileNode) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = f.size
	out.Blocks = (out.Size + 511) / 512
	return 0
}

func (f *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}

	handle, err := f.options.FS.Open(f.path)
	if err != nil {
		if !errors.Is(err, respack.ErrNotFound) && !errors.Is(err, respack.ErrIsDirectory) {
			f.options.Logger.Error("open failed", "path", f.path, "error", err)
		}
		return nil, 0, errnoFor(err)
	}

	// Entry content is immutable, so the kernel page cache is always
	// valid.
	return &fileHandle{handle: handle}, fuse.FOPEN_KEEP_CACHE, 0
}

func (f *fileNode) Read(ctx context.Context, fh gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	opened, ok := fh.(*fileHandle)
	if !ok {
		return nil, syscall.EBADF
	}

	read, err := f.options.FS.Read(opened.handle, dest, off)
	if err != nil {
		f.options.Logger.Error("read failed", "path", f.path, "offset", off, "error", err)
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:read]), 0
}

func (f *fileNode) Release(ctx context.Context, fh gofuse.FileHandle) syscall.Errno {
	opened, ok := fh.(*fileHandle)
	if !ok {
		return syscall.EBADF
	}
	if err := f.options.FS.Close(opened.handle); err != nil {
		return syscall.EBADF
	}
	return 0
}

// fileHandle wraps a mountfs handle as a go-fuse file handle.
type fileHandle struct {
	handle *mountfs.Handle
}

// sliceDirStream implements fs.DirStream from a slice of entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
