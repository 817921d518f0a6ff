// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package respack

// EntryFlags is the per-entry transform descriptor stored in the
// archive table. The bits are format constants — changing them breaks
// archive compatibility.
type EntryFlags uint8

const (
	// FlagCompressed indicates the stored payload is a DEFLATE (zlib)
	// stream that inflates to RawSize bytes.
	FlagCompressed EntryFlags = 1 << 0

	// FlagEncrypted indicates the stored payload is Blowfish-encrypted.
	// Encrypted payloads are zero-padded to the 8-byte block size at
	// write time; StoredSize includes the padding.
	FlagEncrypted EntryFlags = 1 << 1

	// FlagChecksum indicates the Checksum field holds a CRC-32 (IEEE)
	// of the fully decoded bytes. Entries written without a checksum
	// leave the field zero and clear this bit.
	FlagChecksum EntryFlags = 1 << 2

	// flagsKnown is the mask of all defined flag bits. Records with
	// unknown bits set are rejected at open time rather than decoded
	// with a half-understood transform.
	flagsKnown = FlagCompressed | FlagEncrypted | FlagChecksum
)

// Entry is one logical file's metadata record inside an archive index.
// Entries are owned by the Archive and immutable after open.
type Entry struct {
	// Path is the logical path, "/"-separated, case-sensitive, with
	// no leading or trailing slash. Unique per archive.
	Path string

	// Offset is the byte offset of the stored payload within the
	// backing blob. Offset+StoredSize never exceeds the blob length
	// (verified at open time).
	Offset uint64

	// StoredSize is the payload length as stored (after compression
	// and encryption padding).
	StoredSize uint64

	// RawSize is the fully decoded length. This is the size a mount
	// reports for the file, and the length Materialize must produce.
	RawSize uint64

	// Flags describes the transforms applied to the stored payload.
	Flags EntryFlags

	// Checksum is the CRC-32 (IEEE) of the decoded bytes when
	// FlagChecksum is set, zero otherwise. Verified lazily on first
	// decode, not at open time.
	Checksum uint32
}

// Compressed reports whether the stored payload must be inflated.
func (e *Entry) Compressed() bool { return e.Flags&FlagCompressed != 0 }

// Encrypted reports whether the stored payload must be decrypted.
func (e *Entry) Encrypted() bool { return e.Flags&FlagEncrypted != 0 }

// HasChecksum reports whether Checksum is meaningful for this entry.
func (e *Entry) HasChecksum() bool { return e.Flags&FlagChecksum != 0 }

// Plain reports whether the stored payload is the decoded content
// as-is (no decryption, no inflation). Plain entries can be range-read
// directly from the backing buffer without materialization.
func (e *Entry) Plain() bool { return e.Flags&(FlagCompressed|FlagEncrypted) == 0 }

// DirEntry is one name in a directory listing.
type DirEntry struct {
	// Name is the path segment, without any separator.
	Name string

	// IsDir reports whether the name is a directory implied by
	// deeper entry paths (possibly in addition to holding no entry
	// of its own).
	IsDir bool
}
