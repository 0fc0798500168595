// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package flac parses FLAC metadata blocks (spec.md §4.5): the
// VORBIS_COMMENT block for textual tags and the PICTURE block for
// embedded artwork. Grounded on the teacher's flac-extractor.go block
// loop and parseVorbisComments/parseVorbisComment field switch.
package flac

import (
	"context"
	"strconv"
	"strings"

	"github.com/awslabs/audiometa/internal/audiolog"
	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/byteutil"
	"github.com/awslabs/audiometa/internal/fileprovider"
	"github.com/awslabs/audiometa/internal/parseerr"
	"github.com/awslabs/audiometa/internal/tagreader"
)

const (
	blockTypeVorbisComment = 4
	blockTypePicture       = 6
	blockHeaderSize        = 4
)

// vorbisFieldKeys maps an upper-cased Vorbis comment field name to a tag
// key. ORIGINALDATE/ORIGINALYEAR map to year just as DATE does; whichever
// of the three appears first in the comment list wins.
var vorbisFieldKeys = map[string]audiotag.Key{
	"ALBUM":        audiotag.Album,
	"ALBUMARTIST":  audiotag.AlbumArtist,
	"ARTIST":       audiotag.Artist,
	"TITLE":        audiotag.Name,
	"TRACKNUMBER":  audiotag.Track,
	"DATE":         audiotag.Year,
	"ORIGINALDATE": audiotag.Year,
	"ORIGINALYEAR": audiotag.Year,
}

// Parser reads FLAC metadata blocks starting just after the "fLaC"
// marker.
type Parser struct {
	reader      *tagreader.Reader
	requested   *audiotag.RequestedSet
	maxBlockLen uint64
}

// New binds a parser to a file URI via provider. maxBlockLen bounds the
// declared length of a VORBIS_COMMENT or PICTURE block, the blocks this
// parser loads (spec.md §5); other blocks are skipped unchecked. 0 means
// unbounded.
func New(uri string, provider fileprovider.Provider, requested *audiotag.RequestedSet, log audiolog.Logger, maxBlockLen uint64) *Parser {
	return &Parser{
		reader:      tagreader.New(uri, provider, log),
		requested:   requested,
		maxBlockLen: maxBlockLen,
	}
}

// Extract walks the metadata block chain and decodes VORBIS_COMMENT and
// PICTURE blocks.
func (p *Parser) Extract(ctx context.Context) (*audiotag.Result, error) {
	info, err := p.reader.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, parseerr.New(parseerr.FileMissing, "file does not exist", fileprovider.ErrNotExist)
	}
	if info.Size < 4 {
		return nil, parseerr.New(parseerr.FormatInvalid, "file too small for FLAC magic", nil)
	}

	if err := p.reader.LoadWindow(ctx, 0, 4); err != nil {
		return nil, parseerr.New(parseerr.IoFailed, "failed reading FLAC magic", err)
	}
	if string(p.reader.Bytes()) != "fLaC" {
		return nil, parseerr.New(parseerr.FormatInvalid, "missing fLaC magic", nil)
	}

	md := audiotag.NewMetadata(p.requested)
	offset := uint64(4)
	seenComment := false

	for {
		if md.Satisfied(p.requested) {
			break
		}
		if err := p.reader.LoadWindow(ctx, offset, blockHeaderSize); err != nil {
			return nil, parseerr.New(parseerr.IoFailed, "failed reading metadata block header", err)
		}
		header := p.reader.Bytes()
		if len(header) < blockHeaderSize {
			break
		}
		isLast := header[0]&0x80 != 0
		blockType := header[0] & 0x7F
		blockLen := uint64(header[1])<<16 | uint64(header[2])<<8 | uint64(header[3])
		offset += blockHeaderSize

		if p.maxBlockLen > 0 && blockLen > p.maxBlockLen && (blockType == blockTypeVorbisComment || blockType == blockTypePicture) {
			return nil, parseerr.New(parseerr.FormatInvalid, "declared metadata block length exceeds configured maximum", nil)
		}

		switch blockType {
		case blockTypeVorbisComment:
			if !seenComment {
				if err := p.reader.LoadWindow(ctx, offset, blockLen); err != nil {
					return nil, parseerr.New(parseerr.IoFailed, "failed reading VORBIS_COMMENT block", err)
				}
				decodeVorbisComment(md, p.requested, p.reader.Bytes())
				seenComment = true
			}
		case blockTypePicture:
			if err := p.reader.LoadWindow(ctx, offset, blockLen); err != nil {
				return nil, parseerr.New(parseerr.IoFailed, "failed reading PICTURE block", err)
			}
			decodePicture(md, p.requested, p.reader.Bytes())
		}

		offset += blockLen
		if isLast {
			break
		}
	}

	return &audiotag.Result{FileType: "flac", Format: "FLAC", Metadata: md}, nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func decodeVorbisComment(md audiotag.Metadata, rs *audiotag.RequestedSet, b []byte) {
	if len(b) < 4 {
		return
	}
	pos := 0
	vendorLen := int(le32(b[pos:]))
	pos += 4 + vendorLen
	if pos+4 > len(b) {
		return
	}
	count := int(le32(b[pos:]))
	pos += 4

	for i := 0; i < count && pos+4 <= len(b); i++ {
		entryLen := int(le32(b[pos:]))
		pos += 4
		if pos+entryLen > len(b) {
			break
		}
		entry := string(b[pos : pos+entryLen])
		pos += entryLen

		eq := strings.IndexByte(entry, '=')
		if eq < 0 {
			continue
		}
		field := strings.ToUpper(entry[:eq])
		value := entry[eq+1:]

		key, ok := vorbisFieldKeys[field]
		if !ok {
			continue
		}

		switch key {
		case audiotag.Track:
			setTrackFromVorbis(md, rs, value)
		case audiotag.Year:
			setYearFromVorbis(md, rs, value)
		default:
			md.Set(rs, key, audiotag.StringValue(value))
		}
	}
}

func setTrackFromVorbis(md audiotag.Metadata, rs *audiotag.RequestedSet, raw string) {
	numPart := raw
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		numPart = raw[:i]
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(numPart), 10, 64); err == nil {
		md.Set(rs, audiotag.Track, audiotag.IntValue(n))
		return
	}
	md.Set(rs, audiotag.Track, audiotag.StringValue(raw))
}

func setYearFromVorbis(md audiotag.Metadata, rs *audiotag.RequestedSet, raw string) {
	digits := raw
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil && len(digits) == 4 {
		md.Set(rs, audiotag.Year, audiotag.IntValue(n))
		return
	}
	md.Set(rs, audiotag.Year, audiotag.StringValue(raw))
}

// decodePicture decodes a PICTURE block body (spec.md §4.5, all fields
// big-endian) and records requested-type cover art as a data URI.
func decodePicture(md audiotag.Metadata, rs *audiotag.RequestedSet, b []byte) {
	if len(b) < 32 {
		return
	}
	pos := 0
	pictureType := be32(b[pos:])
	pos += 4
	if pictureType != 0 && pictureType != 3 {
		return
	}

	mimeLen := int(be32(b[pos:]))
	pos += 4
	if pos+mimeLen > len(b) {
		return
	}
	mime := string(b[pos : pos+mimeLen])
	pos += mimeLen

	if pos+4 > len(b) {
		return
	}
	descLen := int(be32(b[pos:]))
	pos += 4 + descLen
	if pos+16 > len(b) {
		return
	}
	pos += 16 // width, height, depth, color count

	if pos+4 > len(b) {
		return
	}
	dataLen := int(be32(b[pos:]))
	pos += 4
	if pos+dataLen > len(b) {
		return
	}
	data := b[pos : pos+dataLen]

	md.Set(rs, audiotag.Artwork, audiotag.StringValue("data:"+mime+";base64,"+byteutil.BytesToBase64(data)))
}
