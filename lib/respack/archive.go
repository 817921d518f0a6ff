// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
)

// Archive format constants. Little-endian throughout.
const (
	// FormatVersion is the archive format version this code reads.
	FormatVersion = 1

	// headerSize is the fixed header: 4-byte magic + 4-byte version
	// + 4-byte entry count + 8-byte table offset.
	headerSize = 4 + 4 + 4 + 8

	// entryFixedSize is the fixed portion of a table record: 2-byte
	// path length + 8-byte offset + 8-byte stored size + 8-byte raw
	// size + 1-byte flags + 4-byte checksum. The path bytes follow
	// the length field.
	entryFixedSize = 2 + 8 + 8 + 8 + 1 + 4
)

// archiveMagic is the 4-byte archive file signature.
var archiveMagic = [4]byte{'R', 'P', 'A', 'K'}

// Archive is one opened packed-resource blob: the raw backing bytes
// plus the parsed index. Immutable after open; safe for concurrent
// use. Close releases the backing mapping — all entry references and
// byte views derived from the archive are invalid afterwards.
type Archive struct {
	id      uint64
	data    []byte
	entries []Entry
	byPath  map[string]*Entry
	root    *trieNode
	name    string

	// closer releases the backing bytes. Nil for OpenBytes archives,
	// which borrow the caller's slice.
	closer func() error
}

// OpenBytes parses an archive from an in-memory blob. The archive
// borrows the slice for its lifetime; the caller must not mutate it.
func OpenBytes(data []byte) (*Archive, error) {
	archive := &Archive{data: data}
	if err := archive.parse(); err != nil {
		return nil, err
	}
	return archive, nil
}

// archiveIDCounter assigns a process-unique ID to each opened archive.
// The decode cache keys decoded content by (archive ID, entry path) so
// that entries from different archives never collide.
var archiveIDCounter atomic.Uint64

// parse reads the fixed header and the entry table, building the path
// trie in the same pass. Any failure aborts the open: a partially
// parsed index is never kept.
func (a *Archive) parse() error {
	a.id = archiveIDCounter.Add(1)
	if len(a.data) < headerSize {
		return fmt.Errorf("%w: blob is %d bytes, header needs %d", ErrCorruptHeader, len(a.data), headerSize)
	}
	if [4]byte(a.data[:4]) != archiveMagic {
		return fmt.Errorf("%w: bad magic %x", ErrCorruptHeader, a.data[:4])
	}

	version := binary.LittleEndian.Uint32(a.data[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: version %d (this code reads version %d)", ErrUnsupportedVersion, version, FormatVersion)
	}

	entryCount := binary.LittleEndian.Uint32(a.data[8:12])
	tableOffset := binary.LittleEndian.Uint64(a.data[12:20])
	if tableOffset > uint64(len(a.data)) {
		return fmt.Errorf("%w: table offset %d beyond blob length %d", ErrCorruptHeader, tableOffset, len(a.data))
	}

	// Every record occupies at least entryFixedSize bytes, so a count
	// the table region cannot hold is corrupt. Checked before the
	// allocations below so a crafted header cannot size them.
	tableBytes := uint64(len(a.data)) - tableOffset
	if uint64(entryCount) > tableBytes/entryFixedSize {
		return fmt.Errorf("%w: %d entries cannot fit in %d table bytes",
			ErrTruncatedTable, entryCount, tableBytes)
	}

	a.entries = make([]Entry, 0, entryCount)
	a.byPath = make(map[string]*Entry, entryCount)
	a.root = newTrieNode()

	cursor := a.data[tableOffset:]
	for i := uint32(0); i < entryCount; i++ {
		entry, rest, err := parseEntryRecord(cursor, i)
		if err != nil {
			return err
		}
		cursor = rest

		if entry.Offset+entry.StoredSize > uint64(len(a.data)) || entry.Offset+entry.StoredSize < entry.Offset {
			return fmt.Errorf("%w: entry %q payload [%d, %d) beyond blob length %d",
				ErrTruncatedTable, entry.Path, entry.Offset, entry.Offset+entry.StoredSize, len(a.data))
		}

		if _, exists := a.byPath[entry.Path]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateEntry, entry.Path)
		}

		a.entries = append(a.entries, entry)
		stored := &a.entries[len(a.entries)-1]
		a.byPath[entry.Path] = stored

		if !a.root.insert(entry.Path, stored) {
			return fmt.Errorf("%w: %q conflicts with an existing file or directory", ErrDuplicateEntry, entry.Path)
		}
	}

	return nil
}

// parseEntryRecord decodes one variable-width table record from the
// front of cursor and returns the remaining bytes.
func parseEntryRecord(cursor []byte, index uint32) (Entry, []byte, error) {
	if len(cursor) < 2 {
		return Entry{}, nil, fmt.Errorf("%w: record %d cut off at path length", ErrTruncatedTable, index)
	}
	pathLen := int(binary.LittleEndian.Uint16(cursor[:2]))
	if len(cursor) < entryFixedSize+pathLen {
		return Entry{}, nil, fmt.Errorf("%w: record %d needs %d bytes, %d remain",
			ErrTruncatedTable, index, entryFixedSize+pathLen, len(cursor))
	}

	path := string(cursor[2 : 2+pathLen])
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") || strings.Contains(path, "//") {
		return Entry{}, nil, fmt.Errorf("%w: record %d has malformed path %q", ErrCorruptHeader, index, path)
	}

	fixed := cursor[2+pathLen:]
	entry := Entry{
		Path:       path,
		Offset:     binary.LittleEndian.Uint64(fixed[0:8]),
		StoredSize: binary.LittleEndian.Uint64(fixed[8:16]),
		RawSize:    binary.LittleEndian.Uint64(fixed[16:24]),
		Flags:      EntryFlags(fixed[24]),
		Checksum:   binary.LittleEndian.Uint32(fixed[25:29]),
	}

	if entry.Flags&^flagsKnown != 0 {
		return Entry{}, nil, fmt.Errorf("%w: record %d (%q) has unknown flag bits %#x",
			ErrCorruptHeader, index, path, entry.Flags&^flagsKnown)
	}
	if !entry.Compressed() && !entry.Encrypted() && entry.StoredSize != entry.RawSize {
		return Entry{}, nil, fmt.Errorf("%w: record %d (%q) is untransformed but stored size %d != raw size %d",
			ErrCorruptHeader, index, path, entry.StoredSize, entry.RawSize)
	}

	return entry, cursor[entryFixedSize+pathLen:], nil
}

// CleanPath normalizes a caller-supplied logical path: separators are
// trimmed from both ends, so "", "/" and "." all name the root.
func CleanPath(path string) string {
	path = strings.Trim(path, "/")
	if path == "." {
		return ""
	}
	return path
}

// Lookup resolves a logical path to its entry. The second return is
// false when no file entry occupies the path (directories resolve to
// false — use ListChildren or Stat for those).
func (a *Archive) Lookup(path string) (*Entry, bool) {
	entry, ok := a.byPath[CleanPath(path)]
	return entry, ok
}

// Stat reports what a path names: a file entry, a directory, or
// nothing (ErrNotFound).
func (a *Archive) Stat(path string) (entry *Entry, isDir bool, err error) {
	node := a.root.find(CleanPath(path))
	if node == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	if node.entry != nil {
		return node.entry, false, nil
	}
	return nil, true, nil
}

// ListChildren lists the immediate children of a directory path in
// on-disk table order. Returns ErrNotFound if the path names nothing
// and ErrIsDirectory's inverse case (a file path) as ErrNotFound for
// listing purposes — callers distinguish via Stat.
func (a *Archive) ListChildren(path string) ([]DirEntry, error) {
	node := a.root.find(CleanPath(path))
	if node == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	if node.entry != nil {
		return nil, fmt.Errorf("respack: %q is a file, not a directory", path)
	}
	return node.list(), nil
}

// Entries returns the entry table in on-disk order. The slice is owned
// by the archive; callers must not modify it.
func (a *Archive) Entries() []Entry {
	return a.entries
}

// Len returns the number of file entries in the archive.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Name returns the base name the archive was opened under (empty for
// OpenBytes archives). The decode pipeline uses it to select wrapped
// key material from a keyring.
func (a *Archive) Name() string {
	return a.name
}

// ID returns the process-unique identifier assigned to this archive
// at open time. Stable for the archive's lifetime, never reused while
// the process runs.
func (a *Archive) ID() uint64 {
	return a.id
}

// StoredBytes returns the raw stored payload of an entry as a view
// into the backing buffer. No decoding is applied. The view is valid
// until Close.
func (a *Archive) StoredBytes(entry *Entry) []byte {
	return a.data[entry.Offset : entry.Offset+entry.StoredSize]
}

// Close releases the backing bytes. For memory-mapped archives this
// unmaps the region; for OpenBytes archives it is a no-op. The archive
// and everything borrowed from it must not be used afterwards.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	closer := a.closer
	a.closer = nil
	a.data = nil
	return closer()
}
