// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package packed decodes the archive format's embedded metadata
// encoding: a tag-prefixed, self-describing binary format of nested
// maps, lists and scalars plus typed vector and quaternion fields.
// Metadata entries inside an archive (descriptors, manifests, spatial
// data) are stored in this encoding.
//
// Decode is the only direction implemented. The game client's tools
// produce these blobs; this code only reads them.
package packed

import "fmt"

// Kind identifies the concrete type held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindVector2
	KindVector3
	KindVector4
	KindQuaternion
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindVector2:
		return "vector2"
	case KindVector3:
		return "vector3"
	case KindVector4:
		return "vector4"
	case KindQuaternion:
		return "quaternion"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is one node of a decoded metadata tree. Concrete types are
// [Null], [Bool], [Int], [Float], [String], [Bytes], [List], [Map],
// [Vector2], [Vector3], [Vector4] and [Quaternion]. Values are
// read-only once decoded.
type Value interface {
	Kind() Kind
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Int is a signed integer scalar (64-bit on the wire via zigzag
// varint).
type Int int64

// Float is a 64-bit float scalar.
type Float float64

// String is a UTF-8 string scalar.
type String string

// Bytes is an opaque byte blob.
type Bytes []byte

// List is an ordered sequence of values.
type List []Value

// MapEntry is one key/value pair of a [Map].
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is a sequence of key/value pairs in insertion order. Keys may be
// any value type; the common case is [String].
type Map []MapEntry

// Vector2 is a two-component float vector.
type Vector2 struct{ X, Y float32 }

// Vector3 is a three-component float vector.
type Vector3 struct{ X, Y, Z float32 }

// Vector4 is a four-component float vector.
type Vector4 struct{ X, Y, Z, W float32 }

// Quaternion is a rotation quaternion.
type Quaternion struct{ X, Y, Z, W float32 }

func (Null) Kind() Kind       { return KindNull }
func (Bool) Kind() Kind       { return KindBool }
func (Int) Kind() Kind        { return KindInt }
func (Float) Kind() Kind      { return KindFloat }
func (String) Kind() Kind     { return KindString }
func (Bytes) Kind() Kind      { return KindBytes }
func (List) Kind() Kind       { return KindList }
func (Map) Kind() Kind        { return KindMap }
func (Vector2) Kind() Kind    { return KindVector2 }
func (Vector3) Kind() Kind    { return KindVector3 }
func (Vector4) Kind() Kind    { return KindVector4 }
func (Quaternion) Kind() Kind { return KindQuaternion }

// Get returns the value for a string key, preserving the common
// string-keyed map access pattern. Returns false when no string key
// matches.
func (m Map) Get(key string) (Value, bool) {
	for _, pair := range m {
		if s, ok := pair.Key.(String); ok && string(s) == key {
			return pair.Value, true
		}
	}
	return nil, false
}
