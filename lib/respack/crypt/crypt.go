// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package crypt implements the archive format's cipher layer: Blowfish
// block decryption of entry payloads and the RSA operation that
// unwraps the per-archive Blowfish key.
//
// Key material is always passed in explicitly (a [Keyring] loaded from
// configuration) — there is no process-wide key state, so tests inject
// deterministic keys.
package crypt

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blowfish"
)

// BlockSize is the Blowfish block size in bytes. Encrypted payloads
// are zero-padded to a multiple of this at write time.
const BlockSize = blowfish.BlockSize

var (
	// ErrInvalidKeyMaterial indicates the RSA key or wrapped key
	// bytes could not be parsed or used.
	ErrInvalidKeyMaterial = errors.New("crypt: invalid key material")

	// ErrDecryptFailed indicates the asymmetric unwrap operation
	// failed (wrong key, tampered wrapped blob).
	ErrDecryptFailed = errors.New("crypt: decrypt failed")

	// ErrBlockSizeMismatch indicates block decryption was asked to
	// process input that is not a whole number of Blowfish blocks.
	ErrBlockSizeMismatch = errors.New("crypt: input is not block-aligned")
)

// BlockKey is a loaded Blowfish key. It is stateless across calls:
// each block is decrypted independently (the format encrypts blocks in
// ECB fashion so that any block of an entry can be decrypted without
// its predecessors). Safe for concurrent use.
type BlockKey struct {
	cipher *blowfish.Cipher
}

// NewBlockKey loads a Blowfish key. Key length must be between 1 and
// 56 bytes per the algorithm's definition.
func NewBlockKey(key []byte) (*BlockKey, error) {
	cipher, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return &BlockKey{cipher: cipher}, nil
}

// DecryptBlocks decrypts src into dst, block by block. Both slices
// must be the same length and a whole number of blocks; dst and src
// may alias. The final block's zero padding is the caller's concern —
// the decoded length is delimited by the entry's raw size or by the
// compressed stream inside.
func (k *BlockKey) DecryptBlocks(dst, src []byte) error {
	if len(src)%BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrBlockSizeMismatch, len(src))
	}
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d bytes, src %d bytes", ErrBlockSizeMismatch, len(dst), len(src))
	}
	for i := 0; i < len(src); i += BlockSize {
		k.cipher.Decrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
	}
	return nil
}

// EncryptBlocks is the inverse of DecryptBlocks. The reader path never
// encrypts; this exists for fixture builders and round-trip tests.
func (k *BlockKey) EncryptBlocks(dst, src []byte) error {
	if len(src)%BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrBlockSizeMismatch, len(src))
	}
	if len(dst) != len(src) {
		return fmt.Errorf("%w: dst %d bytes, src %d bytes", ErrBlockSizeMismatch, len(dst), len(src))
	}
	for i := 0; i < len(src); i += BlockSize {
		k.cipher.Encrypt(dst[i:i+BlockSize], src[i:i+BlockSize])
	}
	return nil
}

// Pad returns data zero-padded to a whole number of blocks. The input
// is returned unchanged when already aligned.
func Pad(data []byte) []byte {
	remainder := len(data) % BlockSize
	if remainder == 0 {
		return data
	}
	padded := make([]byte, len(data)+BlockSize-remainder)
	copy(padded, data)
	return padded
}
