// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package byteutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToInt_Synchsafe(t *testing.T) {
	got := BytesToInt([]byte{0x00, 0x00, 0x02, 0x01}, WithBitsPerByte(7))
	assert.EqualValues(t, 257, got)
}

func TestBytesToInt_Endianness(t *testing.T) {
	b := []byte{0xD0, 0x6F, 0x98}

	assert.EqualValues(t, 13_660_056, BytesToInt(b))
	assert.EqualValues(t, 9_990_096, BytesToInt(b, WithLittleEndian()))
	assert.EqualValues(t, 3_422_104, BytesToInt(b, WithBitsPerByte(7)))
}

func TestReadBits(t *testing.T) {
	assert.Equal(t, 3, ReadBits(0x31, 2, 2))
}

func TestByteToBinary(t *testing.T) {
	assert.Equal(t, "00000000", ByteToBinary(0x00))
	assert.Equal(t, "11111111", ByteToBinary(0xFF))
	assert.Equal(t, "10110000", ByteToBinary(0xB0))
}

func TestBytesToString_ISO88591(t *testing.T) {
	got := BytesToString([]byte{0x32, 0x30, 0x32, 0x34, 0x00, 0xAA}, EncodingISO88591)
	assert.Equal(t, "2024", got)
}

func TestBytesToString_UTF16BOM_BothEndian(t *testing.T) {
	le := []byte{0xFF, 0xFE, 0x53, 0x30, 0x00, 0x00}
	be := []byte{0xFE, 0xFF, 0x30, 0x53, 0x00, 0x00}

	gotLE := BytesToString(le, EncodingUTF16BOM)
	gotBE := BytesToString(be, EncodingUTF16BOM)

	require.Equal(t, gotLE, gotBE)
	assert.Equal(t, "こ", gotLE)
}

func TestBytesToString_UTF16BE_NoBOM(t *testing.T) {
	got := BytesToString([]byte{0x00, 0x41, 0x00, 0x42, 0x00, 0x00}, EncodingUTF16BE)
	assert.Equal(t, "AB", got)
}

func TestBytesToString_UTF16BOM_Missing_FallsBackLittleEndian(t *testing.T) {
	// No BOM prefix: per spec this falls back to little-endian rather than failing.
	got := BytesToString([]byte{0x41, 0x00, 0x42, 0x00, 0x00, 0x00}, EncodingUTF16BOM)
	assert.Equal(t, "AB", got)
}

func TestBytesToString_UTF8(t *testing.T) {
	got := BytesToString([]byte("\xe6\xb2\x88\xe9\xbb\x99\x00trailing"), EncodingUTF8)
	assert.Equal(t, "沈黙", got)
}

func TestBase64RoundTrip(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x01, 0x02}
	encoded := BytesToBase64(data)
	decoded, err := Base64ToBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
