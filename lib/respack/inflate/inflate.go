// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inflate decompresses entry payloads. The archive format
// stores compressed entries as zlib (DEFLATE) streams; this package is
// a thin wrapper over the klauspost/compress implementation that adds
// the format's exact-size contract: the inflated length must equal the
// raw size recorded in the entry table, and any disagreement is data
// corruption, not something to tolerate.
package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var (
	// ErrCorruptStream indicates the compressed stream is malformed
	// (bad zlib header, invalid DEFLATE data, checksum failure).
	ErrCorruptStream = errors.New("inflate: corrupt stream")

	// ErrSizeMismatch indicates the stream inflated cleanly but to a
	// length different from the size recorded in the entry table.
	ErrSizeMismatch = errors.New("inflate: decompressed size mismatch")
)

// Decompress inflates a complete zlib stream and verifies it produces
// exactly expectedSize bytes. Streams that end early or carry extra
// data fail with ErrSizeMismatch; malformed streams fail with
// ErrCorruptStream.
func Decompress(compressed []byte, expectedSize int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	defer reader.Close()

	output := make([]byte, expectedSize)
	if _, err := io.ReadFull(reader, output); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: stream ended before %d bytes", ErrSizeMismatch, expectedSize)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	// The stream must end exactly at expectedSize. One extra byte
	// means the table's raw size is wrong for this payload.
	var trailer [1]byte
	n, err := reader.Read(trailer[:])
	if n != 0 {
		return nil, fmt.Errorf("%w: stream continues past %d bytes", ErrSizeMismatch, expectedSize)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	return output, nil
}

// DecompressPrefix inflates only the first length bytes of a stream.
// Used by the decode pipeline to serve a small read near the start of
// a large compressed entry without inflating the whole payload.
func DecompressPrefix(compressed []byte, length int) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	defer reader.Close()

	output := make([]byte, length)
	n, err := io.ReadFull(reader, output)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return output[:n], nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return output, nil
}
