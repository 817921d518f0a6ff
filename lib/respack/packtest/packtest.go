// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package packtest builds archive blobs for tests. It is the only
// writer of the format in this repository — the public surface stays
// read-only — and deliberately mirrors the write side of the game
// client's packing tool: compress first, then encrypt, then record the
// checksum of the original content.
package packtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/crypt"
)

// File describes one entry to pack.
type File struct {
	// Path is the logical path, "/"-separated.
	Path string

	// Content is the decoded content the entry must materialize to.
	Content []byte

	// Compress stores the content as a zlib stream.
	Compress bool

	// Encrypt Blowfish-encrypts the (possibly compressed) payload,
	// zero-padded to the block size. Requires a key in [Build].
	Encrypt bool

	// NoChecksum omits the CRC-32 record for this entry.
	NoChecksum bool
}

// Build packs files into an archive blob. The key may be nil when no
// file requests encryption. Entries appear in the table in the given
// order.
func Build(files []File, key *crypt.BlockKey) ([]byte, error) {
	var blob bytes.Buffer

	// Fixed header; the table offset is patched in at the end.
	blob.Write([]byte{'R', 'P', 'A', 'K'})
	writeUint32(&blob, respack.FormatVersion)
	writeUint32(&blob, uint32(len(files)))
	tableOffsetField := blob.Len()
	writeUint64(&blob, 0)

	type record struct {
		file       File
		offset     uint64
		storedSize uint64
	}
	records := make([]record, 0, len(files))

	for _, file := range files {
		payload := file.Content

		if file.Compress {
			var compressed bytes.Buffer
			writer := zlib.NewWriter(&compressed)
			if _, err := writer.Write(payload); err != nil {
				return nil, fmt.Errorf("compressing %q: %w", file.Path, err)
			}
			if err := writer.Close(); err != nil {
				return nil, fmt.Errorf("compressing %q: %w", file.Path, err)
			}
			payload = compressed.Bytes()
		}

		if file.Encrypt {
			if key == nil {
				return nil, fmt.Errorf("packing %q: encryption requested without a key", file.Path)
			}
			padded := crypt.Pad(payload)
			encrypted := make([]byte, len(padded))
			if err := key.EncryptBlocks(encrypted, padded); err != nil {
				return nil, fmt.Errorf("encrypting %q: %w", file.Path, err)
			}
			payload = encrypted
		}

		records = append(records, record{
			file:       file,
			offset:     uint64(blob.Len()),
			storedSize: uint64(len(payload)),
		})
		blob.Write(payload)
	}

	// Patch the table offset, then append the table.
	tableOffset := uint64(blob.Len())
	binary.LittleEndian.PutUint64(blob.Bytes()[tableOffsetField:], tableOffset)

	for _, rec := range records {
		var flags respack.EntryFlags
		if rec.file.Compress {
			flags |= respack.FlagCompressed
		}
		if rec.file.Encrypt {
			flags |= respack.FlagEncrypted
		}
		var checksum uint32
		if !rec.file.NoChecksum {
			flags |= respack.FlagChecksum
			checksum = crc32.ChecksumIEEE(rec.file.Content)
		}

		writeUint16(&blob, uint16(len(rec.file.Path)))
		blob.WriteString(rec.file.Path)
		writeUint64(&blob, rec.offset)
		writeUint64(&blob, rec.storedSize)
		writeUint64(&blob, uint64(len(rec.file.Content)))
		blob.WriteByte(byte(flags))
		writeUint32(&blob, checksum)
	}

	return blob.Bytes(), nil
}

// MustBuild is Build that panics on error, for test table literals.
func MustBuild(files []File, key *crypt.BlockKey) []byte {
	blob, err := Build(files, key)
	if err != nil {
		panic("packtest: " + err.Error())
	}
	return blob
}

func writeUint16(buffer *bytes.Buffer, v uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], v)
	buffer.Write(scratch[:])
}

func writeUint32(buffer *bytes.Buffer, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	buffer.Write(scratch[:])
}

func writeUint64(buffer *bytes.Buffer, v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	buffer.Write(scratch[:])
}
