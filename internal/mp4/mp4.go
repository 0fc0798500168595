// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mp4 parses the ISO Base Media atom tree used by MP4/M4A (AAC)
// files (spec.md §4.6): ftyp for the format string, and
// moov/udta/meta/ilst for the iTunes-style tag atoms. Grounded on the
// teacher's m4a-extractor.go atom walk (parseM4AContainer, parseUdtaBox,
// parseMetaBox, parseIlstBox, readItunesTag, cleanBoxType).
package mp4

import (
	"context"
	"strconv"

	"github.com/awslabs/audiometa/internal/audiolog"
	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/byteutil"
	"github.com/awslabs/audiometa/internal/fileprovider"
	"github.com/awslabs/audiometa/internal/parseerr"
	"github.com/awslabs/audiometa/internal/tagreader"
)

const atomHeaderSize = 8

// ilstAtomKeys maps an ilst leaf atom's 4-byte type (the first byte is
// often the iTunes 0xA9 "©" marker) to a tag key.
var ilstAtomKeys = map[string]audiotag.Key{
	"\xa9alb": audiotag.Album,
	"aART":    audiotag.AlbumArtist,
	"\xa9ART": audiotag.Artist,
	"\xa9nam": audiotag.Name,
	"trkn":    audiotag.Track,
	"\xa9day": audiotag.Year,
	"covr":    audiotag.Artwork,
}

// Parser reads the atom tree starting at the file's beginning.
type Parser struct {
	reader      *tagreader.Reader
	requested   *audiotag.RequestedSet
	maxLeafSize uint64
}

// New binds a parser to a file URI via provider. maxLeafSize bounds a
// single ilst leaf's declared data length (spec.md §5, largest in
// practice for embedded cover art); 0 means unbounded.
func New(uri string, provider fileprovider.Provider, requested *audiotag.RequestedSet, log audiolog.Logger, maxLeafSize uint64) *Parser {
	return &Parser{
		reader:      tagreader.New(uri, provider, log),
		requested:   requested,
		maxLeafSize: maxLeafSize,
	}
}

// Extract walks the top-level atom chain looking for ftyp (format
// string) and moov.udta.meta.ilst (tag data).
func (p *Parser) Extract(ctx context.Context) (*audiotag.Result, error) {
	info, err := p.reader.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, parseerr.New(parseerr.FileMissing, "file does not exist", fileprovider.ErrNotExist)
	}

	md := audiotag.NewMetadata(p.requested)
	fileType := "mp4"
	format := "mp4"

	offset := uint64(0)
	for offset+atomHeaderSize <= info.Size {
		atomType, headerLen, dataLen, atomEnd, terminal, err := p.readAtomHeader(ctx, offset, info.Size)
		if err != nil {
			return nil, err
		}
		if terminal {
			break
		}

		switch atomType {
		case "ftyp":
			if err := p.reader.LoadWindow(ctx, offset+uint64(headerLen), 8); err != nil {
				return nil, parseerr.New(parseerr.IoFailed, "failed reading ftyp atom", err)
			}
			b := p.reader.Bytes()
			if len(b) >= 8 {
				major := string(b[0:4])
				minor := be32(b[4:8])
				fileType = fileTypeFromBrand(major)
				format = major + " (" + strconv.Itoa(int(minor)) + ")"
			}
		case "moov":
			if err := p.walkMoov(ctx, offset+uint64(headerLen), atomEnd, md); err != nil {
				return nil, err
			}
		}

		if md.Satisfied(p.requested) {
			break
		}
		offset = atomEnd
	}

	return &audiotag.Result{FileType: fileType, Format: format, Metadata: md}, nil
}

// readAtomHeader reads the 8-byte (or, for a 64-bit extended size,
// 16-byte) header at offset and returns the atom's 4-byte type, header
// length, data length, and absolute end offset. terminal reports a
// size == 0 atom, the spec's signal to stop walking the current level.
func (p *Parser) readAtomHeader(ctx context.Context, offset, fileSize uint64) (atomType string, headerLen int, dataLen uint64, atomEnd uint64, terminal bool, err error) {
	if err := p.reader.LoadWindow(ctx, offset, atomHeaderSize); err != nil {
		return "", 0, 0, 0, false, parseerr.New(parseerr.IoFailed, "failed reading atom header", err)
	}
	b := p.reader.Bytes()
	if len(b) < atomHeaderSize {
		return "", 0, 0, 0, false, parseerr.New(parseerr.FormatInvalid, "truncated atom header", nil)
	}
	size32 := be32(b[0:4])
	atomType = string(b[4:8])

	if size32 == 1 {
		if err := p.reader.LoadWindow(ctx, offset, atomHeaderSize+8); err != nil {
			return "", 0, 0, 0, false, parseerr.New(parseerr.IoFailed, "failed reading extended atom size", err)
		}
		b = p.reader.Bytes()
		if len(b) < atomHeaderSize+8 {
			return "", 0, 0, 0, false, parseerr.New(parseerr.FormatInvalid, "truncated extended atom size", nil)
		}
		size64 := be64(b[8:16])
		return atomType, atomHeaderSize + 8, size64 - (atomHeaderSize + 8), offset + size64, false, nil
	}
	if size32 == 0 {
		return atomType, atomHeaderSize, 0, offset + atomHeaderSize, true, nil
	}
	if uint64(size32) < atomHeaderSize || offset+uint64(size32) > fileSize {
		return "", 0, 0, 0, false, parseerr.New(parseerr.FormatInvalid, "atom size out of bounds", nil)
	}
	return atomType, atomHeaderSize, uint64(size32) - atomHeaderSize, offset + uint64(size32), false, nil
}

// walkMoov descends moov -> udta -> meta -> ilst looking for tag atoms.
func (p *Parser) walkMoov(ctx context.Context, start, end uint64, md audiotag.Metadata) error {
	offset := start
	for offset+atomHeaderSize <= end {
		atomType, headerLen, _, atomEnd, terminal, err := p.readAtomHeader(ctx, offset, end)
		if err != nil {
			return err
		}
		if terminal {
			break
		}
		if atomType == "udta" {
			if err := p.walkUdta(ctx, offset+uint64(headerLen), atomEnd, md); err != nil {
				return err
			}
		}
		offset = atomEnd
	}
	return nil
}

func (p *Parser) walkUdta(ctx context.Context, start, end uint64, md audiotag.Metadata) error {
	offset := start
	for offset+atomHeaderSize <= end {
		atomType, headerLen, _, atomEnd, terminal, err := p.readAtomHeader(ctx, offset, end)
		if err != nil {
			return err
		}
		if terminal {
			break
		}
		if atomType == "meta" {
			// A meta atom carries 4 version/flag bytes before its children.
			if err := p.walkMeta(ctx, offset+uint64(headerLen)+4, atomEnd, md); err != nil {
				return err
			}
		}
		offset = atomEnd
	}
	return nil
}

func (p *Parser) walkMeta(ctx context.Context, start, end uint64, md audiotag.Metadata) error {
	offset := start
	for offset+atomHeaderSize <= end {
		atomType, headerLen, _, atomEnd, terminal, err := p.readAtomHeader(ctx, offset, end)
		if err != nil {
			return err
		}
		if terminal {
			break
		}
		if atomType == "ilst" {
			if err := p.walkIlst(ctx, offset+uint64(headerLen), atomEnd, md); err != nil {
				return err
			}
		}
		offset = atomEnd
	}
	return nil
}

func (p *Parser) walkIlst(ctx context.Context, start, end uint64, md audiotag.Metadata) error {
	offset := start
	for offset+atomHeaderSize <= end {
		atomType, headerLen, dataLen, atomEnd, terminal, err := p.readAtomHeader(ctx, offset, end)
		if err != nil {
			return err
		}
		if terminal {
			break
		}

		key, ok := ilstAtomKeys[atomType]
		if ok {
			if p.maxLeafSize > 0 && dataLen > p.maxLeafSize {
				return parseerr.New(parseerr.FormatInvalid, "declared ilst leaf size exceeds configured maximum", nil)
			}
			if err := p.reader.LoadWindow(ctx, offset+uint64(headerLen), dataLen); err != nil {
				return parseerr.New(parseerr.IoFailed, "failed reading ilst leaf", err)
			}
			decodeLeaf(md, key, p.reader.Bytes())
		}
		offset = atomEnd
	}
	return nil
}

// decodeLeaf decodes the "data" sub-atom inside an ilst leaf per
// spec.md §4.6: skip the data atom's own 8-byte header, 1 version byte,
// 3 flag bytes (big-endian), 4 reserved bytes, then the payload. md was
// seeded by NewMetadata with an entry (possibly nil) for every requested
// key and no entry at all for keys never requested, so a plain presence
// check enforces both "never requested" and "first occurrence wins".
func decodeLeaf(md audiotag.Metadata, key audiotag.Key, leaf []byte) {
	existing, requested := md[key]
	if !requested || existing != nil {
		return
	}

	const dataSubAtomPrefix = 16 // 8 (data atom header) + 1 + 3 + 4
	if len(leaf) < dataSubAtomPrefix {
		return
	}
	if string(leaf[4:8]) != "data" {
		return
	}
	flag := uint32(leaf[9])<<16 | uint32(leaf[10])<<8 | uint32(leaf[11])
	payload := leaf[dataSubAtomPrefix:]

	switch key {
	case audiotag.Track:
		if len(payload) >= 4 {
			md[key] = valuePtr(audiotag.IntValue(int64(be32(payload[0:4]))))
		}
	case audiotag.Artwork:
		mime := "image/jpeg"
		if flag == 14 {
			mime = "image/png"
		}
		md[key] = valuePtr(audiotag.StringValue("data:" + mime + ";base64," + byteutil.BytesToBase64(payload)))
	default:
		text := byteutil.BytesToString(payload, byteutil.EncodingUTF8)
		md[key] = valuePtr(audiotag.StringValue(text))
	}
}

func valuePtr(v audiotag.Value) *audiotag.Value { return &v }

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

// fileTypeFromBrand derives the reported fileType from the ftyp major
// brand: Apple's M4A brand maps to "m4a", everything else to "mp4".
func fileTypeFromBrand(major string) string {
	if major == "M4A " || major == "M4A\x00" {
		return "m4a"
	}
	return "mp4"
}
