// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package byteutil provides the stateless byte-level primitives every
// container parser in this module builds on: base64 conversion, single-byte
// bit extraction, configurable-width integer decoding (including the
// synchsafe form ID3v2 uses for tag and frame sizes), and the four text
// encodings ID3v2 frames can carry.
package byteutil

import (
	"encoding/base64"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// TextEncoding mirrors the ID3v2 text-encoding byte.
type TextEncoding byte

const (
	EncodingISO88591 TextEncoding = 0
	EncodingUTF16BOM TextEncoding = 1
	EncodingUTF16BE  TextEncoding = 2
	EncodingUTF8     TextEncoding = 3
)

// BytesToBase64 encodes bytes using standard base64, as used for the
// `data:<mime>;base64,<payload>` artwork URIs.
func BytesToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64ToBytes decodes standard base64. The input is assumed well-formed,
// per spec.
func Base64ToBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// ByteToBinary returns the 8-character big-endian binary representation of
// a single byte, e.g. 0b10110000 -> "10110000".
func ByteToBinary(b byte) string {
	var sb strings.Builder
	sb.Grow(8)
	for i := 7; i >= 0; i-- {
		if b&(1<<uint(i)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ReadBits returns the integer value of length contiguous bits starting at
// bit index `start`, counted from the MSB of a single byte (0 = the
// highest-order bit).
func ReadBits(b byte, start, length int) int {
	if start < 0 || length <= 0 || start+length > 8 {
		return 0
	}
	shift := 8 - start - length
	mask := byte((1 << uint(length)) - 1)
	return int((b >> uint(shift)) & mask)
}

// BytesToIntOption configures BytesToInt.
type BytesToIntOption func(*intOpts)

type intOpts struct {
	bitsPerByte int
	bigEndian   bool
}

// WithBitsPerByte sets how many low-order bits of each input byte
// contribute to the result. ID3v2 synchsafe integers use 7.
func WithBitsPerByte(bits int) BytesToIntOption {
	return func(o *intOpts) { o.bitsPerByte = bits }
}

// WithLittleEndian reverses byte order before accumulation.
func WithLittleEndian() BytesToIntOption {
	return func(o *intOpts) { o.bigEndian = false }
}

// BytesToInt interprets a byte sequence as an unsigned integer. The default
// is 8 bits per byte, big-endian; WithBitsPerByte(7) implements ID3v2's
// synchsafe integers (the top bit of every byte is ignored).
func BytesToInt(b []byte, opts ...BytesToIntOption) uint64 {
	o := intOpts{bitsPerByte: 8, bigEndian: true}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := b
	if !o.bigEndian {
		ordered = make([]byte, len(b))
		for i, v := range b {
			ordered[len(b)-1-i] = v
		}
	}

	mask := byte((1 << uint(o.bitsPerByte)) - 1)
	var result uint64
	for _, v := range ordered {
		result = (result << uint(o.bitsPerByte)) | uint64(v&mask)
	}
	return result
}

// BytesToString decodes bytes under one of the four ID3v2 text encodings. A
// terminating NUL (and anything after it) is stripped from the result.
func BytesToString(b []byte, enc TextEncoding) string {
	switch enc {
	case EncodingISO88591:
		return decodeISO88591(b)
	case EncodingUTF16BOM:
		return decodeUTF16(b, true)
	case EncodingUTF16BE:
		return decodeUTF16(b, false)
	case EncodingUTF8:
		return stripNUL(string(b))
	default:
		return decodeISO88591(b)
	}
}

func decodeISO88591(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, v := range b {
		if v == 0 {
			break
		}
		sb.WriteRune(rune(v))
	}
	return sb.String()
}

// decodeUTF16 pairs adjacent bytes into 16-bit code units and decodes them.
// When withBOM is true and a BOM is present, it selects endianness; when
// withBOM is true and the BOM is absent, little-endian is assumed as a
// fallback rather than failing (matches observed source behaviour).
func decodeUTF16(b []byte, withBOM bool) string {
	bigEndian := !withBOM // encoding 2 (no BOM) is always big-endian
	if withBOM {
		bigEndian = true // default before inspecting a BOM
		if len(b) >= 2 {
			switch {
			case b[0] == 0xFE && b[1] == 0xFF:
				bigEndian = true
				b = b[2:]
			case b[0] == 0xFF && b[1] == 0xFE:
				bigEndian = false
				b = b[2:]
			default:
				// No BOM present: fall back to little-endian.
				bigEndian = false
			}
		}
	}

	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		var u uint16
		if bigEndian {
			u = uint16(b[i])<<8 | uint16(b[i+1])
		} else {
			u = uint16(b[i+1])<<8 | uint16(b[i])
		}
		if u == 0 {
			break
		}
		units = append(units, u)
	}

	runes := utf16.Decode(units)
	out := make([]byte, 0, len(runes)*utf8.UTFMax)
	buf := make([]byte, utf8.UTFMax)
	for _, r := range runes {
		n := utf8.EncodeRune(buf, r)
		out = append(out, buf[:n]...)
	}
	return string(out)
}

func stripNUL(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
