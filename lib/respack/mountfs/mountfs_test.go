// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mountfs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/decode"
	"github.com/bureau-foundation/respack/lib/respack/mountfs"
	"github.com/bureau-foundation/respack/lib/respack/packtest"
)

func testFS(t *testing.T) *mountfs.FS {
	t.Helper()

	blob := packtest.MustBuild([]packtest.File{
		{Path: "readme.txt", Content: []byte("hello from the archive")},
		{Path: "assets/model.bin", Content: bytes.Repeat([]byte{0xAB}, 500), Compress: true},
	}, nil)

	archive, err := respack.OpenBytes(blob)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	t.Cleanup(func() { archive.Close() })

	return mountfs.New(archive, decode.New(decode.Options{}))
}

func TestAttributes(t *testing.T) {
	fs := testFS(t)

	attrs, err := fs.Attributes("readme.txt")
	if err != nil {
		t.Fatalf("Attributes(readme.txt): %v", err)
	}
	if attrs.IsDir || attrs.Size != 22 {
		t.Errorf("Attributes(readme.txt) = %+v, want file of 22 bytes", attrs)
	}

	// Compressed entries report the decoded size, not the stored one.
	attrs, err = fs.Attributes("assets/model.bin")
	if err != nil {
		t.Fatalf("Attributes(assets/model.bin): %v", err)
	}
	if attrs.Size != 500 {
		t.Errorf("Attributes(assets/model.bin).Size = %d, want 500", attrs.Size)
	}

	attrs, err = fs.Attributes("assets")
	if err != nil {
		t.Fatalf("Attributes(assets): %v", err)
	}
	if !attrs.IsDir || attrs.Size != 0 {
		t.Errorf("Attributes(assets) = %+v, want directory", attrs)
	}

	if _, err := fs.Attributes("missing"); !errors.Is(err, respack.ErrNotFound) {
		t.Errorf("Attributes(missing) error = %v, want ErrNotFound", err)
	}
}

func TestOpenReadClose(t *testing.T) {
	fs := testFS(t)

	handle, err := fs.Open("readme.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fs.OpenHandles() != 1 {
		t.Errorf("OpenHandles = %d, want 1", fs.OpenHandles())
	}
	if handle.Path() != "readme.txt" {
		t.Errorf("Path() = %q, want readme.txt", handle.Path())
	}

	dest := make([]byte, 5)
	n, err := fs.Read(handle, dest, 6)
	if err != nil || n != 5 || string(dest) != "from " {
		t.Errorf("Read(offset 6) = (%d, %v, %q), want (5, nil, \"from \")", n, err, dest[:n])
	}

	// Reads past end-of-file are short, not errors.
	n, err = fs.Read(handle, make([]byte, 10), 20)
	if err != nil || n != 2 {
		t.Errorf("tail Read = (%d, %v), want (2, nil)", n, err)
	}
	n, err = fs.Read(handle, make([]byte, 10), 100)
	if err != nil || n != 0 {
		t.Errorf("Read past eof = (%d, %v), want (0, nil)", n, err)
	}

	if err := fs.Close(handle); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fs.OpenHandles() != 0 {
		t.Errorf("OpenHandles after close = %d, want 0", fs.OpenHandles())
	}

	if _, err := fs.Read(handle, dest, 0); !errors.Is(err, mountfs.ErrClosedHandle) {
		t.Errorf("Read after close error = %v, want ErrClosedHandle", err)
	}
	if err := fs.Close(handle); !errors.Is(err, mountfs.ErrClosedHandle) {
		t.Errorf("double Close error = %v, want ErrClosedHandle", err)
	}
}

func TestOpenErrors(t *testing.T) {
	fs := testFS(t)

	if _, err := fs.Open("assets"); !errors.Is(err, respack.ErrIsDirectory) {
		t.Errorf("Open(directory) error = %v, want ErrIsDirectory", err)
	}
	if _, err := fs.Open("missing"); !errors.Is(err, respack.ErrNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrNotFound", err)
	}
}

func TestHandleLookup(t *testing.T) {
	fs := testFS(t)

	handle, err := fs.Open("readme.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	found, ok := fs.Lookup(handle.ID())
	if !ok || found != handle {
		t.Errorf("Lookup(%d) = (%v, %t), want the open handle", handle.ID(), found, ok)
	}

	if err := fs.Close(handle); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := fs.Lookup(handle.ID()); ok {
		t.Error("Lookup found a closed handle")
	}
}

func TestListDirectory(t *testing.T) {
	fs := testFS(t)

	children, err := fs.ListDirectory("")
	if err != nil {
		t.Fatalf("ListDirectory(root): %v", err)
	}
	if len(children) != 2 || children[0].Name != "readme.txt" || children[1].Name != "assets" {
		t.Errorf("ListDirectory(root) = %+v, want [readme.txt assets]", children)
	}

	if _, err := fs.ListDirectory("missing"); !errors.Is(err, respack.ErrNotFound) {
		t.Errorf("ListDirectory(missing) error = %v, want ErrNotFound", err)
	}
}

// TestReadConcurrent exercises concurrent reads of the same compressed
// entry through independent handles, the pattern a multithreaded driver
// produces.
func TestReadConcurrent(t *testing.T) {
	fs := testFS(t)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			handle, err := fs.Open("assets/model.bin")
			if err != nil {
				done <- err
				return
			}
			dest := make([]byte, 500)
			n, err := fs.Read(handle, dest, 0)
			if err == nil && n != 500 {
				err = errors.New("short read")
			}
			if closeErr := fs.Close(handle); err == nil {
				err = closeErr
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent reader: %v", err)
		}
	}
}
