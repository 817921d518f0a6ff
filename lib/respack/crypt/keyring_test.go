// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package crypt

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"testing"
)

// testKeyringFile assembles a keyring file wrapping the given Blowfish
// keys under a fresh RSA key pair.
func testKeyringFile(t *testing.T, keys map[string][]byte, fallback []byte) KeyringFile {
	t.Helper()
	privateKey := testRSAKey(t)

	file := KeyringFile{
		RSAPrivateKey: string(pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
		})),
		WrappedKeys: make(map[string]string, len(keys)),
	}
	for name, key := range keys {
		wrapped, err := WrapKey(&privateKey.PublicKey, key)
		if err != nil {
			t.Fatalf("WrapKey(%s): %v", name, err)
		}
		file.WrappedKeys[name] = base64.StdEncoding.EncodeToString(wrapped)
	}
	if fallback != nil {
		wrapped, err := WrapKey(&privateKey.PublicKey, fallback)
		if err != nil {
			t.Fatalf("WrapKey(fallback): %v", err)
		}
		file.DefaultWrappedKey = base64.StdEncoding.EncodeToString(wrapped)
	}
	return file
}

func TestKeyringKeyFor(t *testing.T) {
	file := testKeyringFile(t, map[string][]byte{
		"res_0.pkg": []byte("dedicated key 0!"),
	}, []byte("fallback key 000"))

	keyring, err := NewKeyring(file)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}

	dedicated, err := keyring.KeyFor("res_0.pkg")
	if err != nil {
		t.Fatalf("KeyFor(res_0.pkg): %v", err)
	}
	fallback, err := keyring.KeyFor("res_9.pkg")
	if err != nil {
		t.Fatalf("KeyFor(res_9.pkg): %v", err)
	}
	if dedicated == fallback {
		t.Error("dedicated and fallback archives resolved to the same key object")
	}

	// The unwrap is memoized: a second request returns the same object.
	again, err := keyring.KeyFor("res_0.pkg")
	if err != nil {
		t.Fatalf("KeyFor(res_0.pkg) again: %v", err)
	}
	if again != dedicated {
		t.Error("second KeyFor did not return the memoized key")
	}
}

func TestKeyringKeyForMissing(t *testing.T) {
	file := testKeyringFile(t, map[string][]byte{
		"res_0.pkg": []byte("dedicated key 0!"),
	}, nil)

	keyring, err := NewKeyring(file)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}

	if _, err := keyring.KeyFor("unknown.pkg"); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("KeyFor(unknown.pkg) error = %v, want ErrInvalidKeyMaterial", err)
	}
}

func TestParseKeyringYAML(t *testing.T) {
	file := testKeyringFile(t, nil, []byte("yaml round trip!"))
	raw := fmt.Sprintf("rsa_private_key: |\n%s\ndefault_wrapped_key: %s\n",
		indent(file.RSAPrivateKey, "  "), file.DefaultWrappedKey)

	keyring, err := ParseKeyring([]byte(raw))
	if err != nil {
		t.Fatalf("ParseKeyring: %v", err)
	}
	if _, err := keyring.KeyFor("anything"); err != nil {
		t.Errorf("KeyFor via fallback: %v", err)
	}
}

func TestNewKeyringRejectsBadMaterial(t *testing.T) {
	if _, err := NewKeyring(KeyringFile{}); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("NewKeyring(empty) error = %v, want ErrInvalidKeyMaterial", err)
	}

	good := testKeyringFile(t, nil, nil)

	bad := good
	bad.WrappedKeys = map[string]string{"a.pkg": "not base64 !!!"}
	if _, err := NewKeyring(bad); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("NewKeyring(bad base64) error = %v, want ErrInvalidKeyMaterial", err)
	}

	bad = good
	bad.RSAPrivateKey = "garbage"
	if _, err := NewKeyring(bad); !errors.Is(err, ErrInvalidKeyMaterial) {
		t.Errorf("NewKeyring(bad pem) error = %v, want ErrInvalidKeyMaterial", err)
	}
}

// indent prefixes every line, for embedding a PEM block in YAML.
func indent(s, prefix string) string {
	out := ""
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out += prefix + s[start:i+1]
			start = i + 1
		}
	}
	if start < len(s) {
		out += prefix + s[start:] + "\n"
	}
	return out
}
