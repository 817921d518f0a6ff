// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crypt

import (
	"bytes"
	"errors"
	"testing"
)

func TestBlockKeyRoundTrip(t *testing.T) {
	key, err := NewBlockKey([]byte("sixteen byte key"))
	if err != nil {
		t.Fatalf("NewBlockKey: %v", err)
	}

	plaintext := Pad([]byte("the quick brown fox jumps over the lazy dog"))
	encrypted := make([]byte, len(plaintext))
	if err := key.EncryptBlocks(encrypted, plaintext); err != nil {
		t.Fatalf("EncryptBlocks: %v", err)
	}
	if bytes.Equal(encrypted, plaintext) {
		t.Fatal("EncryptBlocks left the input unchanged")
	}

	decrypted := make([]byte, len(encrypted))
	if err := key.DecryptBlocks(decrypted, encrypted); err != nil {
		t.Fatalf("DecryptBlocks: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip produced %q, want %q", decrypted, plaintext)
	}
}

func TestBlockKeyDecryptInPlace(t *testing.T) {
	key, err := NewBlockKey([]byte("k"))
	if err != nil {
		t.Fatalf("NewBlockKey: %v", err)
	}

	plaintext := Pad([]byte("aligned to blocks!"))
	buffer := append([]byte(nil), plaintext...)
	if err := key.EncryptBlocks(buffer, buffer); err != nil {
		t.Fatalf("EncryptBlocks in place: %v", err)
	}
	if err := key.DecryptBlocks(buffer, buffer); err != nil {
		t.Fatalf("DecryptBlocks in place: %v", err)
	}
	if !bytes.Equal(buffer, plaintext) {
		t.Errorf("in-place round trip produced %q, want %q", buffer, plaintext)
	}
}

func TestBlockKeyRejectsMisalignedInput(t *testing.T) {
	key, err := NewBlockKey([]byte("key"))
	if err != nil {
		t.Fatalf("NewBlockKey: %v", err)
	}

	misaligned := make([]byte, BlockSize+1)
	if err := key.DecryptBlocks(make([]byte, len(misaligned)), misaligned); !errors.Is(err, ErrBlockSizeMismatch) {
		t.Errorf("DecryptBlocks(misaligned) error = %v, want ErrBlockSizeMismatch", err)
	}

	aligned := make([]byte, BlockSize*2)
	if err := key.DecryptBlocks(make([]byte, BlockSize), aligned); !errors.Is(err, ErrBlockSizeMismatch) {
		t.Errorf("DecryptBlocks with short dst error = %v, want ErrBlockSizeMismatch", err)
	}
}

func TestNewBlockKeyRejectsBadLengths(t *testing.T) {
	if _, err := NewBlockKey(nil); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("NewBlockKey(nil) error = %v, want ErrInvalidKeyMaterial", err)
	}
	if _, err := NewBlockKey(make([]byte, 57)); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("NewBlockKey(57 bytes) error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{1, BlockSize},
		{BlockSize - 1, BlockSize},
		{BlockSize, BlockSize},
		{BlockSize + 1, BlockSize * 2},
	}
	for _, test := range tests {
		padded := Pad(make([]byte, test.length))
		if len(padded) != test.want {
			t.Errorf("Pad(%d bytes) = %d bytes, want %d", test.length, len(padded), test.want)
		}
	}

	// Padding bytes are zero and the prefix is preserved.
	data := []byte{0xAA, 0xBB, 0xCC}
	padded := Pad(data)
	if !bytes.Equal(padded[:3], data) {
		t.Errorf("Pad prefix = %x, want %x", padded[:3], data)
	}
	for i := 3; i < len(padded); i++ {
		if padded[i] != 0 {
			t.Errorf("padding byte %d = %#x, want 0", i, padded[i])
		}
	}
}
