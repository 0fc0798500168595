// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package flac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/audiotest"
)

func TestFLAC_VorbisComments(t *testing.T) {
	comment := audiotest.VorbisComment("reference libFLAC 1.4.0", [][2]string{
		{"ALBUM", "Test Album"},
		{"ARTIST", "Test Artist"},
		{"ARTIST", "Should Be Ignored"},
		{"TITLE", "Test Title"},
		{"TRACKNUMBER", "7"},
		{"DATE", "2010-05-01"},
	})
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{
		{Type: 4, Data: comment},
	})
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Album, audiotag.Artist, audiotag.Name, audiotag.Track, audiotag.Year)

	p := New("f", prov, rs, nil, 0)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "flac", res.FileType)
	assert.Equal(t, "FLAC", res.Format)
	assert.Equal(t, "Test Album", res.Metadata[audiotag.Album].String())
	assert.Equal(t, "Test Artist", res.Metadata[audiotag.Artist].String())
	assert.Equal(t, "Test Title", res.Metadata[audiotag.Name].String())

	track, isNum := res.Metadata[audiotag.Track].Int()
	assert.True(t, isNum)
	assert.EqualValues(t, 7, track)

	year, isNum := res.Metadata[audiotag.Year].Int()
	assert.True(t, isNum)
	assert.EqualValues(t, 2010, year)
}

func TestFLAC_PictureBlock_CoverFront(t *testing.T) {
	img := []byte{0x89, 0x50, 0x4E, 0x47, 0xAA, 0xBB}
	picture := audiotest.FLACPicture(3, "image/png", "", img)
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{
		{Type: 6, Data: picture},
	})
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Artwork)

	p := New("f", prov, rs, nil, 0)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)

	val := res.Metadata[audiotag.Artwork].String()
	assert.Regexp(t, `^data:image/png;base64,[A-Za-z0-9+/=]+$`, val)
}

func TestFLAC_SkipsUnrequestedPictureType(t *testing.T) {
	picture := audiotest.FLACPicture(1, "image/png", "", []byte{0x01})
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{
		{Type: 6, Data: picture},
	})
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Artwork)

	p := New("f", prov, rs, nil, 0)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Metadata[audiotag.Artwork])
}

func TestFLAC_RejectsMissingMagic(t *testing.T) {
	prov := audiotest.NewMemoryProvider("f", []byte("NOT_FLAC"))
	rs := audiotag.NewRequestedSet(audiotag.Name)

	p := New("f", prov, rs, nil, 0)
	_, err := p.Extract(context.Background())
	require.Error(t, err)
}

func TestFLAC_MultipleBlocksAndStreamInfoSkipped(t *testing.T) {
	comment := audiotest.VorbisComment("enc", [][2]string{{"TITLE", "Name Here"}})
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{
		{Type: 0, Data: make([]byte, 34)}, // STREAMINFO, skipped by length
		{Type: 4, Data: comment},
	})
	prov := audiotest.NewMemoryProvider("f", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	p := New("f", prov, rs, nil, 0)
	res, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Name Here", res.Metadata[audiotag.Name].String())
}
