// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package packed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxDepth is the hard cap on container nesting. Input nested deeper
// than this fails with ErrRecursionLimit regardless of how well-formed
// it otherwise is, bounding stack use against crafted or corrupt
// blobs.
const MaxDepth = 256

var (
	// ErrUnexpectedTag indicates a tag byte outside the defined set.
	ErrUnexpectedTag = errors.New("packed: unexpected tag")

	// ErrTruncatedInput indicates the blob ended mid-value.
	ErrTruncatedInput = errors.New("packed: truncated input")

	// ErrRecursionLimit indicates container nesting beyond MaxDepth.
	ErrRecursionLimit = errors.New("packed: recursion limit exceeded")
)

// Wire tags. Format constants — changing them breaks compatibility
// with blobs produced by the game client's tools.
const (
	tagNull       = 0x00
	tagFalse      = 0x01
	tagTrue       = 0x02
	tagInt        = 0x03
	tagFloat      = 0x04
	tagString     = 0x05
	tagBytes      = 0x06
	tagList       = 0x07
	tagMap        = 0x08
	tagVector2    = 0x09
	tagVector3    = 0x0A
	tagVector4    = 0x0B
	tagQuaternion = 0x0C
)

// Decode parses a complete metadata blob into a value tree. The whole
// input must be consumed; trailing bytes are an error.
func Decode(blob []byte) (Value, error) {
	decoder := &decoder{input: blob}
	value, err := decoder.value(1)
	if err != nil {
		return nil, err
	}
	if decoder.pos != len(blob) {
		return nil, fmt.Errorf("%w: %d trailing bytes after value", ErrUnexpectedTag, len(blob)-decoder.pos)
	}
	return value, nil
}

type decoder struct {
	input []byte
	pos   int
}

// value decodes one value at the given nesting depth. Depth 1 is the
// top-level value; each container level adds one.
func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrRecursionLimit, depth)
	}

	tag, err := d.byte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case tagNull:
		return Null{}, nil

	case tagFalse:
		return Bool(false), nil

	case tagTrue:
		return Bool(true), nil

	case tagInt:
		raw, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		// Zigzag decoding: small magnitudes of either sign stay small
		// on the wire.
		return Int(int64(raw>>1) ^ -int64(raw&1)), nil

	case tagFloat:
		bits, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return Float(math.Float64frombits(binary.LittleEndian.Uint64(bits))), nil

	case tagString:
		raw, err := d.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		return String(raw), nil

	case tagBytes:
		raw, err := d.lengthPrefixed()
		if err != nil {
			return nil, err
		}
		// Copy out of the input blob so the decoded tree does not
		// pin the archive's backing buffer.
		return Bytes(append([]byte(nil), raw...)), nil

	case tagList:
		count, err := d.count()
		if err != nil {
			return nil, err
		}
		list := make(List, 0, count)
		for i := 0; i < count; i++ {
			element, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			list = append(list, element)
		}
		return list, nil

	case tagMap:
		count, err := d.count()
		if err != nil {
			return nil, err
		}
		pairs := make(Map, 0, count)
		for i := 0; i < count; i++ {
			key, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			value, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, MapEntry{Key: key, Value: value})
		}
		return pairs, nil

	case tagVector2:
		floats, err := d.float32s(2)
		if err != nil {
			return nil, err
		}
		return Vector2{X: floats[0], Y: floats[1]}, nil

	case tagVector3:
		floats, err := d.float32s(3)
		if err != nil {
			return nil, err
		}
		return Vector3{X: floats[0], Y: floats[1], Z: floats[2]}, nil

	case tagVector4:
		floats, err := d.float32s(4)
		if err != nil {
			return nil, err
		}
		return Vector4{X: floats[0], Y: floats[1], Z: floats[2], W: floats[3]}, nil

	case tagQuaternion:
		floats, err := d.float32s(4)
		if err != nil {
			return nil, err
		}
		return Quaternion{X: floats[0], Y: floats[1], Z: floats[2], W: floats[3]}, nil

	default:
		return nil, fmt.Errorf("%w: %#x at offset %d", ErrUnexpectedTag, tag, d.pos-1)
	}
}

func (d *decoder) byte() (byte, error) {
	if d.pos >= len(d.input) {
		return 0, fmt.Errorf("%w: at offset %d", ErrTruncatedInput, d.pos)
	}
	b := d.input[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if len(d.input)-d.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncatedInput, n, d.pos, len(d.input)-d.pos)
	}
	raw := d.input[d.pos : d.pos+n]
	d.pos += n
	return raw, nil
}

// uvarint reads an unsigned LEB128 varint.
func (d *decoder) uvarint() (uint64, error) {
	value, read := binary.Uvarint(d.input[d.pos:])
	if read <= 0 {
		return 0, fmt.Errorf("%w: bad varint at offset %d", ErrTruncatedInput, d.pos)
	}
	d.pos += read
	return value, nil
}

// count reads a container element count and sanity-bounds it against
// the remaining input: each element needs at least one tag byte, so a
// count larger than the remaining byte count is corrupt, not just big.
func (d *decoder) count() (int, error) {
	raw, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if raw > uint64(len(d.input)-d.pos) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bytes",
			ErrTruncatedInput, raw, len(d.input)-d.pos)
	}
	return int(raw), nil
}

// lengthPrefixed reads a varint length followed by that many bytes.
func (d *decoder) lengthPrefixed() ([]byte, error) {
	length, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if length > uint64(len(d.input)-d.pos) {
		return nil, fmt.Errorf("%w: length %d exceeds %d remaining bytes",
			ErrTruncatedInput, length, len(d.input)-d.pos)
	}
	return d.take(int(length))
}

func (d *decoder) float32s(n int) ([]float32, error) {
	raw, err := d.take(n * 4)
	if err != nil {
		return nil, err
	}
	floats := make([]float32, n)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return floats, nil
}
