// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package respack

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Open memory-maps an archive file read-only and parses its index.
// The mapping is shared across all concurrent readers; it is released
// by Close. Large archives cost address space, not resident memory —
// the kernel pages payload bytes in on demand.
func Open(path string) (*Archive, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating archive %s: %w", path, err)
	}
	if stat.Size == 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("archive %s is empty: %w", path, ErrCorruptHeader)
	}

	data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memory-mapping archive %s: %w", path, err)
	}

	// The mapping outlives the descriptor; close it now rather than
	// holding an fd per archive.
	if err := unix.Close(fd); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("closing archive descriptor for %s: %w", path, err)
	}

	archive := &Archive{
		data: data,
		name: filepath.Base(path),
		closer: func() error {
			if err := unix.Munmap(data); err != nil {
				return fmt.Errorf("unmapping archive %s: %w", path, err)
			}
			return nil
		},
	}
	if err := archive.parse(); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("parsing archive %s: %w", path, err)
	}
	return archive, nil
}
