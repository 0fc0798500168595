// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package audiometa_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/audiometa"
	"github.com/awslabs/audiometa/internal/audiotest"
)

func TestExtract_FLAC_EndToEnd(t *testing.T) {
	comment := audiotest.VorbisComment("enc", [][2]string{
		{"ALBUM", "Greatest Hits"},
		{"ARTIST", "The Band"},
		{"TITLE", "Opener"},
		{"TRACKNUMBER", "1"},
		{"DATE", "2001"},
	})
	picture := audiotest.FLACPicture(3, "image/png", "", []byte{1, 2, 3, 4})
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{
		{Type: 4, Data: comment},
		{Type: 6, Data: picture},
	})

	e := audiometa.New(audiometa.WithProvider(audiotest.NewMemoryProvider("song.flac", data)))
	res, err := e.Extract(context.Background(), "song.flac",
		audiometa.Album, audiometa.Artist, audiometa.Name, audiometa.Track, audiometa.Year, audiometa.Artwork)
	require.NoError(t, err)

	assert.Equal(t, "flac", res.FileType)
	assert.Equal(t, "FLAC", res.Format)
	assert.Equal(t, "Greatest Hits", res.Metadata[audiometa.Album].String())
	assert.Regexp(t, `^data:image/png;base64,`, res.Metadata[audiometa.Artwork].String())
}

func TestExtract_UnsupportedExtension_ReturnsKindedError(t *testing.T) {
	e := audiometa.New(audiometa.WithProvider(audiotest.NewMemoryProvider("noise.ogg", []byte{0})))
	_, err := e.Extract(context.Background(), "noise.ogg", audiometa.Name)
	require.Error(t, err)

	var aerr *audiometa.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, audiometa.UnsupportedFile, aerr.Kind)
	assert.Equal(t, "noise.ogg", aerr.URI)
}

func TestExtract_SubsetRequest_OnlyRequestedKeysPresent(t *testing.T) {
	data := audiotest.BuildID3v1("Title", "Artist", "Album", "2024", "", 1)
	e := audiometa.New(audiometa.WithProvider(audiotest.NewMemoryProvider("song.mp3", data)))
	res, err := e.Extract(context.Background(), "song.mp3", audiometa.Album, audiometa.AlbumArtist)
	require.NoError(t, err)

	assert.Len(t, res.Metadata, 2)
	assert.Equal(t, "Album", res.Metadata[audiometa.Album].String())
	assert.Nil(t, res.Metadata[audiometa.AlbumArtist])
}

