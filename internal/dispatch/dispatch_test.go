// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awslabs/audiometa/internal/audioconfig"
	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/audiotest"
	"github.com/awslabs/audiometa/internal/parseerr"
)

func TestDispatch_FLACByExtension(t *testing.T) {
	comment := audiotest.VorbisComment("enc", [][2]string{{"TITLE", "Song"}})
	data := audiotest.BuildFLAC([]audiotest.FLACBlock{{Type: 4, Data: comment}})
	prov := audiotest.NewMemoryProvider("track.flac", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.flac", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "flac", res.FileType)
	assert.Equal(t, "Song", res.Metadata[audiotag.Name].String())
}

func TestDispatch_MP3_ID3v2AtStart(t *testing.T) {
	data := audiotest.BuildID3v2(3, []audiotest.ID3v2Frame{
		audiotest.TextFrame("TIT2", "Leading Tag"),
	}, false)
	prov := audiotest.NewMemoryProvider("track.mp3", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.mp3", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "ID3v2.3", res.Format)
	assert.Equal(t, "Leading Tag", res.Metadata[audiotag.Name].String())
}

func TestDispatch_MP3_FallsBackToID3v1(t *testing.T) {
	audioPadding := make([]byte, 200)
	trailer := audiotest.BuildID3v1("Old School", "Some Artist", "Some Album", "1995", "", 0)
	data := append(audioPadding, trailer...)
	prov := audiotest.NewMemoryProvider("track.mp3", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.mp3", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "ID3v1", res.Format)
	assert.Equal(t, "Old School", res.Metadata[audiotag.Name].String())
}

func TestDispatch_MP4Extension(t *testing.T) {
	ilst := audiotest.BuildMP4Atoms([]audiotest.MP4Atom{audiotest.IlstLeaf("\xa9nam", 1, []byte("N"))})
	meta := append([]byte{0, 0, 0, 0}, audiotest.BuildMP4Atoms([]audiotest.MP4Atom{{Type: "ilst", Data: ilst}})...)
	udta := audiotest.BuildMP4Atoms([]audiotest.MP4Atom{{Type: "meta", Data: meta}})
	moov := audiotest.BuildMP4Atoms([]audiotest.MP4Atom{{Type: "udta", Data: udta}})
	data := audiotest.BuildMP4Atoms([]audiotest.MP4Atom{
		{Type: "ftyp", Data: audiotest.FtypAtom("isom", 512)},
		{Type: "moov", Data: moov},
	})
	prov := audiotest.NewMemoryProvider("track.mp4", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.mp4", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "mp4", res.FileType)
	assert.Equal(t, "N", res.Metadata[audiotag.Name].String())
}

func TestDispatch_MP3_ID3v24AtTail(t *testing.T) {
	tagged := audiotest.BuildID3v2WithFooter([]audiotest.ID3v2Frame{
		audiotest.UTF8TextFrame("TIT2", "Tail Tag"),
	})
	audioPadding := make([]byte, 200)
	data := append(audioPadding, tagged...)
	prov := audiotest.NewMemoryProvider("track.mp3", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.mp3", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "ID3v2.4", res.Format)
	assert.Equal(t, "Tail Tag", res.Metadata[audiotag.Name].String())
}

func TestDispatch_MP3_ID3v24BeforeID3v1_PrefersID3v2(t *testing.T) {
	tagged := audiotest.BuildID3v2WithFooter([]audiotest.ID3v2Frame{
		audiotest.UTF8TextFrame("TIT2", "Coexisting Tag"),
	})
	v1 := audiotest.BuildID3v1("Legacy Title", "Legacy Artist", "Legacy Album", "1999", "", 0)
	audioPadding := make([]byte, 200)
	data := append(audioPadding, tagged...)
	data = append(data, v1...)
	prov := audiotest.NewMemoryProvider("track.mp3", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	res, err := Extract(context.Background(), prov, nil, "track.mp3", rs, audioconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, "ID3v2.4", res.Format)
	assert.Equal(t, "Coexisting Tag", res.Metadata[audiotag.Name].String())
}

func TestDispatch_UnsupportedExtension(t *testing.T) {
	prov := audiotest.NewMemoryProvider("track.ogg", []byte{1, 2, 3})
	rs := audiotag.NewRequestedSet(audiotag.Name)

	_, err := Extract(context.Background(), prov, nil, "track.ogg", rs, audioconfig.Default())
	require.Error(t, err)
	var pe *parseerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parseerr.UnsupportedFile, pe.Kind)
}

func TestDispatch_TaglessMP3_FormatInvalid(t *testing.T) {
	data := make([]byte, 300) // no "ID3" prefix, no "TAG" trailer
	prov := audiotest.NewMemoryProvider("track.mp3", data)
	rs := audiotag.NewRequestedSet(audiotag.Name)

	_, err := Extract(context.Background(), prov, nil, "track.mp3", rs, audioconfig.Default())
	require.Error(t, err)
	var pe *parseerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parseerr.FormatInvalid, pe.Kind)
}
