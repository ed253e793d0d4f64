// Copyright (C) 2019-2026, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"fmt"
	"strings"
)

const (
	// KeySeparator joins segments in the display form of a key.
	KeySeparator = "/"

	// keySeparatorByte joins segments in the encoded form. It is smaller
	// than every byte allowed inside a segment, which makes byte-wise
	// comparison of encodings agree with segment-wise comparison of keys.
	keySeparatorByte = 0x00
)

// Key is a storage key: an ordered, non-empty sequence of path segments.
//
// Keys are totally ordered segment-lexicographically. The commitment oracle
// receives keys in their encoded form, whose byte order equals the segment
// order, so all layers of the engine iterate in the same order.
type Key struct {
	segments []string
}

// NewKey builds a key from [segments]. Every segment must be non-empty and
// must not contain the separator bytes.
func NewKey(segments ...string) (Key, error) {
	if len(segments) == 0 {
		return Key{}, fmt.Errorf("%w: no segments", ErrInvalidKey)
	}
	for _, segment := range segments {
		if len(segment) == 0 {
			return Key{}, fmt.Errorf("%w: empty segment", ErrInvalidKey)
		}
		if strings.ContainsRune(segment, rune(keySeparatorByte)) ||
			strings.Contains(segment, KeySeparator) {
			return Key{}, fmt.Errorf("%w: segment %q contains separator", ErrInvalidKey, segment)
		}
	}
	return Key{segments: segments}, nil
}

// ParseKey parses the display form "a/b/c" into a key.
func ParseKey(s string) (Key, error) {
	return NewKey(strings.Split(s, KeySeparator)...)
}

// MustParseKey is ParseKey for statically known keys. It panics on invalid
// input.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// keyFromEncoded is the inverse of Key.Bytes. The input must be a valid
// encoding.
func keyFromEncoded(b []byte) Key {
	return Key{segments: strings.Split(string(b), string(rune(keySeparatorByte)))}
}

// Segments returns the key's path segments. The returned slice must not be
// modified.
func (k Key) Segments() []string {
	return k.segments
}

// IsZero returns whether this is the zero-value key, which is not a valid
// storage key and is used as "no prefix bound" in scans.
func (k Key) IsZero() bool {
	return len(k.segments) == 0
}

// Bytes returns the encoded form: segments joined by the separator byte.
func (k Key) Bytes() []byte {
	return []byte(strings.Join(k.segments, string(rune(keySeparatorByte))))
}

func (k Key) String() string {
	return strings.Join(k.segments, KeySeparator)
}

// Length returns the number of bytes of the encoded form.
func (k Key) Length() int {
	size := 0
	for _, segment := range k.segments {
		size += len(segment)
	}
	if len(k.segments) > 1 {
		size += len(k.segments) - 1
	}
	return size
}

// Compare returns -1, 0, or 1 ordering keys segment-lexicographically.
func (k Key) Compare(other Key) int {
	for i, segment := range k.segments {
		if i >= len(other.segments) {
			return 1
		}
		if c := strings.Compare(segment, other.segments[i]); c != 0 {
			return c
		}
	}
	if len(k.segments) < len(other.segments) {
		return -1
	}
	return 0
}

// HasPrefix returns whether the key's first segments equal [prefix]'s
// segments. The zero key is a prefix of every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix.segments) > len(k.segments) {
		return false
	}
	for i, segment := range prefix.segments {
		if k.segments[i] != segment {
			return false
		}
	}
	return true
}

// Append returns a new key with [segments] appended.
func (k Key) Append(segments ...string) (Key, error) {
	joined := make([]string, 0, len(k.segments)+len(segments))
	joined = append(joined, k.segments...)
	joined = append(joined, segments...)
	return NewKey(joined...)
}

// scanLimit returns the encoded bound for a backend prefix scan: every key
// with this prefix starts with the returned bytes.
func (k Key) scanLimit() []byte {
	if k.IsZero() {
		return nil
	}
	// The trailing separator excludes sibling segments that merely share a
	// byte prefix, e.g. scanning "a" must not include "ab/x".
	return append(k.Bytes(), keySeparatorByte)
}
