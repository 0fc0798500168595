// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audiotag defines the data model shared by every container parser:
// the closed tag-key enumeration, the requested-tag set, and the result
// record returned to callers.
package audiotag

// Key is the closed enumeration of tags this module ever produces.
type Key string

const (
	Album       Key = "album"
	AlbumArtist Key = "albumArtist"
	Artist      Key = "artist"
	Artwork     Key = "artwork"
	Name        Key = "name"
	Track       Key = "track"
	Year        Key = "year"
)

// allKeys is used to validate a caller-supplied requested-tag set.
var allKeys = map[Key]struct{}{
	Album: {}, AlbumArtist: {}, Artist: {}, Artwork: {}, Name: {}, Track: {}, Year: {},
}

// IsValid reports whether k is one of the closed set of tag keys.
func (k Key) IsValid() bool {
	_, ok := allKeys[k]
	return ok
}

// RequestedSet is an ordered, duplicate-free set of requested tag keys. It
// both defines which keys appear in a Result's Metadata and, for parsers
// that support it, enables early exit once every requested key is
// populated.
type RequestedSet struct {
	order []Key
	has   map[Key]struct{}
}

// NewRequestedSet builds a RequestedSet from a caller-supplied key list,
// preserving first-seen order and dropping duplicates. Invalid keys are
// ignored; callers that need strict validation should check Key.IsValid
// before constructing the set.
func NewRequestedSet(keys ...Key) *RequestedSet {
	rs := &RequestedSet{has: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		if !k.IsValid() {
			continue
		}
		if _, seen := rs.has[k]; seen {
			continue
		}
		rs.has[k] = struct{}{}
		rs.order = append(rs.order, k)
	}
	return rs
}

// Contains reports whether k was requested.
func (rs *RequestedSet) Contains(k Key) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.has[k]
	return ok
}

// Keys returns the requested keys in first-seen order.
func (rs *RequestedSet) Keys() []Key {
	if rs == nil {
		return nil
	}
	out := make([]Key, len(rs.order))
	copy(out, rs.order)
	return out
}

// Len reports how many distinct keys were requested.
func (rs *RequestedSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.order)
}

// Value is either a UTF-8 string or a non-negative integer. Track and year
// are numeric when the source parses cleanly; otherwise the raw string is
// preserved, per spec.
type Value struct {
	str   string
	num   int64
	isNum bool
	isSet bool
}

// StringValue constructs a textual Value.
func StringValue(s string) Value { return Value{str: s, isSet: true} }

// IntValue constructs a numeric Value.
func IntValue(n int64) Value { return Value{num: n, isNum: true, isSet: true} }

// IsSet reports whether the value was ever populated (vs. left absent).
func (v Value) IsSet() bool { return v.isSet }

// IsNumeric reports whether the value is the numeric form.
func (v Value) IsNumeric() bool { return v.isNum }

// String returns the textual form of the value regardless of kind.
func (v Value) String() string {
	if v.isNum {
		return formatInt(v.num)
	}
	return v.str
}

// Int returns the numeric form and whether the value was numeric.
func (v Value) Int() (int64, bool) {
	return v.num, v.isNum
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Metadata maps requested keys to their (possibly absent) values. Keys not
// found but requested MUST be present with an absent value so callers
// observe a stable shape; keys the caller never requested MUST NOT appear.
type Metadata map[Key]*Value

// NewMetadata seeds an absent entry for every requested key.
func NewMetadata(rs *RequestedSet) Metadata {
	m := make(Metadata, rs.Len())
	for _, k := range rs.Keys() {
		m[k] = nil
	}
	return m
}

// Set stores v under k, but only if k was requested and not already
// populated — first occurrence wins, and a parser never returns a key the
// caller did not request.
func (m Metadata) Set(rs *RequestedSet, k Key, v Value) {
	if !rs.Contains(k) {
		return
	}
	if existing, ok := m[k]; ok && existing != nil {
		return
	}
	val := v
	m[k] = &val
}

// Satisfied reports whether every requested key has been populated, the
// condition that triggers early exit.
func (m Metadata) Satisfied(rs *RequestedSet) bool {
	for _, k := range rs.Keys() {
		if v, ok := m[k]; !ok || v == nil {
			return false
		}
	}
	return true
}

// Result is the uniform (fileType, format, metadata) record every parser
// produces.
type Result struct {
	FileType string
	Format   string
	Metadata Metadata
}
