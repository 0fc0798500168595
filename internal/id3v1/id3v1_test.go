// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package id3v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/audiotest"
)

func TestID3v1_BasicFields(t *testing.T) {
	data := audiotest.BuildID3v1("Silence", "Nothing", "Void", "2024", "", 1)
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Album, audiotag.Artist, audiotag.Name, audiotag.Track, audiotag.Year)

	p := New("f", prov, rs, nil)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "mp3", res.FileType)
	assert.Equal(t, "ID3v1.1", res.Format)
	assert.Equal(t, "Silence", res.Metadata[audiotag.Name].String())
	assert.Equal(t, "Nothing", res.Metadata[audiotag.Artist].String())
	assert.Equal(t, "Void", res.Metadata[audiotag.Album].String())

	n, isNum := res.Metadata[audiotag.Track].Int()
	assert.True(t, isNum)
	assert.EqualValues(t, 1, n)

	y, isNum := res.Metadata[audiotag.Year].Int()
	assert.True(t, isNum)
	assert.EqualValues(t, 2024, y)
}

func TestID3v1_NoTrackWithoutV11(t *testing.T) {
	data := audiotest.BuildID3v1("T", "A", "Al", "1999", "a comment here", 0)
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Track)

	p := New("f", prov, rs, nil)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ID3v1", res.Format)
	assert.Nil(t, res.Metadata[audiotag.Track])
}

func TestID3v1_MissingTagSignature(t *testing.T) {
	data := make([]byte, 128)
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	p := New("f", prov, rs, nil)
	_, err := p.Extract(context.Background())
	require.Error(t, err)
}

func TestID3v1_RequestedSubset_OnlyThoseKeysPresent(t *testing.T) {
	data := audiotest.BuildID3v1("Silence", "Nothing", "Void", "2024", "", 1)
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Album, audiotag.AlbumArtist)

	p := New("f", prov, rs, nil)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Metadata, 2)
	assert.Equal(t, "Void", res.Metadata[audiotag.Album].String())
	assert.Nil(t, res.Metadata[audiotag.AlbumArtist])
}
