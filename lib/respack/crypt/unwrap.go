// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crypt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// ParsePrivateKey parses an RSA private key from PEM. Both PKCS#1
// ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") encodings are
// accepted, since captured key files use either depending on the
// tool that produced them.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKeyMaterial)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing PKCS#1 key: %v", ErrInvalidKeyMaterial, err)
		}
		return key, nil

	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing PKCS#8 key: %v", ErrInvalidKeyMaterial, err)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", ErrInvalidKeyMaterial, parsed)
		}
		return rsaKey, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrInvalidKeyMaterial, block.Type)
	}
}

// UnwrapKey recovers a Blowfish key from its RSA-wrapped form. The
// archive tool wraps per-archive symmetric keys with PKCS#1 v1.5
// encryption under a distribution key; the matching private key
// unwraps them. Returns a loaded [BlockKey] ready for block
// decryption.
func UnwrapKey(privateKey *rsa.PrivateKey, wrappedKey []byte) (*BlockKey, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKeyMaterial)
	}
	if len(wrappedKey) != privateKey.Size() {
		return nil, fmt.Errorf("%w: wrapped key is %d bytes, modulus is %d bytes",
			ErrInvalidKeyMaterial, len(wrappedKey), privateKey.Size())
	}

	keyBytes, err := rsa.DecryptPKCS1v15(nil, privateKey, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	blockKey, err := NewBlockKey(keyBytes)
	if err != nil {
		return nil, err
	}
	return blockKey, nil
}

// WrapKey is the inverse of UnwrapKey, encrypting a symmetric key
// under the distribution public key. The reader path never wraps;
// this exists for fixture builders and round-trip tests.
func WrapKey(publicKey *rsa.PublicKey, key []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return wrapped, nil
}
