// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package tagreader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/audiometa/internal/fileprovider"
)

type memProvider struct {
	data map[string][]byte
}

func (m *memProvider) Stat(_ context.Context, uri string) (fileprovider.Info, error) {
	d, ok := m.data[uri]
	if !ok {
		return fileprovider.Info{}, fileprovider.ErrNotExist
	}
	return fileprovider.Info{Exists: true, Size: uint64(len(d))}, nil
}

func (m *memProvider) Read(_ context.Context, uri string, length, position uint64) ([]byte, error) {
	d, ok := m.data[uri]
	if !ok {
		return nil, fileprovider.ErrNotExist
	}
	end := position + length
	if end > uint64(len(d)) {
		end = uint64(len(d))
	}
	if position > uint64(len(d)) {
		return nil, nil
	}
	return d[position:end], nil
}

func TestLoadWindow_AndReadN_Invariant(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": []byte("hello world")}}
	r := New("f", p, nil)

	require.NoError(t, r.LoadWindow(context.Background(), 0, 11))
	assert.Equal(t, 1, r.LoadCount())

	before := r.Cursor()
	got := r.ReadN(5)
	assert.Equal(t, []byte("hello"), got)
	assert.Equal(t, before+5, r.Cursor())
	assert.LessOrEqual(t, r.Cursor(), r.WindowLen())
}

func TestReadN_ShortReadSetsFinished(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": []byte("abc")}}
	r := New("f", p, nil)
	require.NoError(t, r.LoadWindow(context.Background(), 0, 3))

	got := r.ReadN(10)
	assert.Equal(t, []byte("abc"), got)
	assert.True(t, r.Finished())
}

func TestReadUntilNUL(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": append([]byte("title\x00garbage"))}}
	r := New("f", p, nil)
	require.NoError(t, r.LoadWindow(context.Background(), 0, uint64(len("title\x00garbage"))))

	got := r.ReadUntilNUL()
	assert.Equal(t, []byte("title\x00"), got)
	assert.False(t, r.Finished())
}

func TestSkipN_BoundsToRemaining(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": []byte("abc")}}
	r := New("f", p, nil)
	require.NoError(t, r.LoadWindow(context.Background(), 0, 3))

	n := r.SkipN(100)
	assert.Equal(t, 3, n)
	assert.True(t, r.Finished())
}

func TestUnsynchronise_RemovesZeroAfterFF(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": {0xAA, 0xFF, 0x00, 0xBB, 0xFF, 0xFF, 0x00, 0xCC}}}
	r := New("f", p, nil)
	require.NoError(t, r.LoadWindow(context.Background(), 0, 8))

	newLen := r.Unsynchronise(0, 8)
	// Only the 0x00 directly after an 0xFF is removed; the run
	// 0xFF 0xFF 0x00 0xCC keeps its second 0xFF (not followed by 0x00
	// until checked) and drops the 0x00 after it.
	assert.Equal(t, []byte{0xAA, 0xFF, 0xBB, 0xFF, 0xFF, 0xCC}, r.Bytes()[:newLen])
}

func TestUnsynchronise_PreservesPrefixAndSuffix(t *testing.T) {
	p := &memProvider{data: map[string][]byte{"f": {0x01, 0x02, 0xFF, 0x00, 0x99, 0x03, 0x04}}}
	r := New("f", p, nil)
	require.NoError(t, r.LoadWindow(context.Background(), 0, 7))

	r.Unsynchronise(2, 3)
	assert.Equal(t, byte(0x01), r.Bytes()[0])
	assert.Equal(t, byte(0x02), r.Bytes()[1])
	assert.Equal(t, []byte{0x03, 0x04}, r.Bytes()[len(r.Bytes())-2:])
}
