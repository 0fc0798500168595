// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package id3v2 parses ID3v2.2, ID3v2.3, and ID3v2.4 tags (spec.md §4.4),
// grounded on the teacher's ID3v2Header/ID3v2Frame structs and
// synchsafeToUint32 in mp3-extractor.go, with the v2.2 3-byte frame-id
// layout grounded on other_examples' xonyagar-id3 V24Frames map.
package id3v2

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

const headerSize = 10

// frame header flag bits, v2.3/v2.4 layout (byte 1 of the two flag bytes).
const frameFlagUnsynch = 0x02

// tag header flag bits.
const (
	tagFlagUnsynch        = 0x80
	tagFlagExtendedHeader = 0x40
)

// textFrameKeysV2/V3/V4 map a frame id to a tag key for text frames, one
// map per major version. Picture frames (PIC/APIC) are handled separately since their
// payload layout differs from text frames.
var textFrameKeysV2 = map[string]audiotag.Key{
	"TAL": audiotag.Album,
	"TP1": audiotag.Artist,
	"TT2": audiotag.Name,
	"TRK": audiotag.Track,
	"TYE": audiotag.Year,
}

var textFrameKeysV3 = map[string]audiotag.Key{
	"TALB": audiotag.Album,
	"TPE1": audiotag.Artist,
	"TPE2": audiotag.AlbumArtist,
	"TIT2": audiotag.Name,
	"TRCK": audiotag.Track,
	"TYER": audiotag.Year,
}

var textFrameKeysV4 = map[string]audiotag.Key{
	"TALB": audiotag.Album,
	"TPE1": audiotag.Artist,
	"TPE2": audiotag.AlbumArtist,
	"TIT2": audiotag.Name,
	"TRCK": audiotag.Track,
	"TDRC": audiotag.Year,
}

const pictureFrameIDv2 = "PIC"
const pictureFrameIDv3 = "APIC"

// Parser reads an ID3v2.x tag located at the start of the file (or, for
// MP3s that carry one, wherever the dispatcher points it).
type Parser struct {
	reader     *tagreader.Reader
	requested  *audiotag.RequestedSet
	offset     uint64
	maxTagSize uint64
}

// New binds a parser to a file URI via provider, with the tag header at
// the start of the file. maxTagSize bounds the declared tag size this
// parser will load into memory (spec.md §5's resource-bounds note); 0
// means unbounded.
func New(uri string, provider fileprovider.Provider, requested *audiotag.RequestedSet, log audiolog.Logger, maxTagSize uint64) *Parser {
	return NewAtOffset(uri, provider, requested, log, maxTagSize, 0)
}

// NewAtOffset binds a parser to a file URI whose ID3v2 header lives at a
// caller-computed byte offset rather than the start of the file — the
// dispatcher uses this for the footer-located-at-tail MP3 layouts
// (spec.md §4.7).
func NewAtOffset(uri string, provider fileprovider.Provider, requested *audiotag.RequestedSet, log audiolog.Logger, maxTagSize uint64, offset uint64) *Parser {
	return &Parser{
		reader:     tagreader.New(uri, provider, log),
		requested:  requested,
		offset:     offset,
		maxTagSize: maxTagSize,
	}
}

// Extract reads and decodes the ID3v2.x tag found at the parser's
// offset.
func (p *Parser) Extract(ctx context.Context) (*audiotag.Result, error) {
	info, err := p.reader.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, parseerr.New(parseerr.FileMissing, "file does not exist", fileprovider.ErrNotExist)
	}
	if info.Size < p.offset+headerSize {
		return nil, parseerr.New(parseerr.FormatInvalid, "file too small for an ID3v2 header", nil)
	}

	if err := p.reader.LoadWindow(ctx, p.offset, headerSize); err != nil {
		return nil, parseerr.New(parseerr.IoFailed, "failed reading ID3v2 header", err)
	}
	header := p.reader.Bytes()
	if string(header[0:3]) != "ID3" {
		return nil, parseerr.New(parseerr.FormatInvalid, "missing ID3 magic", nil)
	}

	major := header[3]
	if major < 2 || major > 4 {
		return nil, parseerr.New(parseerr.UnsupportedVersion, "unsupported ID3v2 major version", nil)
	}
	flags := header[5]
	if major == 2 && flags&0x40 != 0 {
		// On v2.2 this bit marks a compressed tag, which is not supported.
		return nil, parseerr.New(parseerr.UnsupportedVersion, "ID3v2.2 compression is not supported", nil)
	}
	tagUnsynch := flags&tagFlagUnsynch != 0
	tagSize := synchsafeToUint32(header[6:10])
	if p.maxTagSize > 0 && uint64(tagSize) > p.maxTagSize {
		return nil, parseerr.New(parseerr.FormatInvalid, "declared ID3v2 tag size exceeds configured maximum", nil)
	}

	if err := p.reader.LoadWindow(ctx, p.offset+headerSize, uint64(tagSize)); err != nil {
		return nil, parseerr.New(parseerr.IoFailed, "failed reading ID3v2 body", err)
	}

	body := p.reader.Bytes()
	pos := 0

	if major >= 3 && flags&tagFlagExtendedHeader != 0 {
		n, err := extendedHeaderLen(body, major)
		if err != nil {
			return nil, err
		}
		pos = n
	}

	md := audiotag.NewMetadata(p.requested)
	format := "ID3v2." + strconv.Itoa(int(major))

	for pos < len(body) {
		if md.Satisfied(p.requested) {
			break
		}

		frameID, frameSize, frameFlags, headerLen, ok := readFrameHeader(body[pos:], major)
		if !ok {
			break // padding (NUL ids) reached
		}
		pos += headerLen
		if frameSize == 0 || pos+frameSize > len(body) {
			break
		}
		payload := body[pos : pos+frameSize]
		pos += frameSize

		frameUnsynch := major >= 4 && frameFlags&frameFlagUnsynch != 0
		if tagUnsynch && major >= 4 && !frameUnsynch {
			return nil, parseerr.New(parseerr.Inconsistency,
				"tag-level unsynchronisation set but frame "+frameID+" did not flag it", nil)
		}
		if frameUnsynch || (tagUnsynch && major < 4) {
			payload = removeUnsynch(payload)
		}

		decodeFrame(md, p.requested, major, frameID, payload)
	}

	return &audiotag.Result{FileType: "mp3", Format: format, Metadata: md}, nil
}

// synchsafeToUint32 decodes a 4-byte synchsafe integer (7 significant
// bits per byte), as used for the tag size and, on v2.4, frame sizes.
func synchsafeToUint32(b []byte) uint32 {
	return uint32(b[0])<<21 | uint32(b[1])<<14 | uint32(b[2])<<7 | uint32(b[3])
}

func plainUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// extendedHeaderLen returns the number of bytes to skip for the extended
// header, whose size field is synchsafe on v2.4 and a plain big-endian
// uint32 on v2.3 (spec.md §4.4 / SPEC_FULL.md §3).
func extendedHeaderLen(body []byte, major byte) (int, error) {
	if len(body) < 4 {
		return 0, parseerr.New(parseerr.FormatInvalid, "truncated extended header", nil)
	}
	var size uint32
	if major >= 4 {
		size = synchsafeToUint32(body[0:4])
	} else {
		size = plainUint32(body[0:4])
		size += 4 // v2.3's extended header size excludes the size field itself
	}
	if int(size) > len(body) {
		return 0, parseerr.New(parseerr.FormatInvalid, "extended header longer than tag", nil)
	}
	return int(size), nil
}

// readFrameHeader reads one frame header starting at b[0]. v2.2 uses a
// 3-byte id and 3-byte plain big-endian size; v2.3/v2.4 use a 4-byte id,
// 4-byte size (plain on v2.3, synchsafe on v2.4), and 2 flag bytes.
func readFrameHeader(b []byte, major byte) (id string, size int, flags byte, headerLen int, ok bool) {
	if major == 2 {
		if len(b) < 6 || b[0] == 0 {
			return "", 0, 0, 0, false
		}
		id = string(b[0:3])
		size = int(b[3])<<16 | int(b[4])<<8 | int(b[5])
		return id, size, 0, 6, true
	}
	if len(b) < 10 || b[0] == 0 {
		return "", 0, 0, 0, false
	}
	id = string(b[0:4])
	if major >= 4 {
		size = int(synchsafeToUint32(b[4:8]))
	} else {
		size = int(plainUint32(b[4:8]))
	}
	flags = b[9]
	return id, size, flags, 10, true
}

// removeUnsynch strips every 0x00 byte that immediately follows an 0xFF,
// undoing the unsynchronisation scheme applied when building the tag.
func removeUnsynch(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		out = append(out, b[i])
		if b[i] == 0xFF && i+1 < len(b) && b[i+1] == 0x00 {
			i++
		}
	}
	return out
}

func decodeFrame(md audiotag.Metadata, rs *audiotag.RequestedSet, major byte, id string, payload []byte) {
	if id == pictureFrameIDv2 || id == pictureFrameIDv3 {
		decodePictureFrame(md, rs, major, payload)
		return
	}

	keys := textFrameKeysV3
	switch {
	case major == 2:
		keys = textFrameKeysV2
	case major == 4:
		keys = textFrameKeysV4
	}
	key, ok := keys[id]
	if !ok || len(payload) == 0 {
		return
	}

	text := decodeTextPayload(payload)
	switch key {
	case audiotag.Track:
		setTrack(md, rs, text)
	case audiotag.Year:
		setYear(md, rs, text)
	default:
		md.Set(rs, key, audiotag.StringValue(text))
	}
}

func decodeTextPayload(payload []byte) string {
	enc := byteutil.TextEncoding(payload[0])
	text := byteutil.BytesToString(payload[1:], enc)
	// A text frame may pack multiple NUL-separated values; BytesToString
	// already keeps only the first. A TRCK value such as "3/12" is split
	// on its slash later, by setTrack.
	return strings.TrimRight(text, "\x00")
}

func setTrack(md audiotag.Metadata, rs *audiotag.RequestedSet, raw string) {
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

func setYear(md audiotag.Metadata, rs *audiotag.RequestedSet, raw string) {
	digits := raw
	if len(digits) > 4 {
		digits = digits[:4] // TDRC carries a full timestamp; year is the prefix
	}
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil && len(digits) == 4 {
		md.Set(rs, audiotag.Year, audiotag.IntValue(n))
		return
	}
	md.Set(rs, audiotag.Year, audiotag.StringValue(raw))
}

// decodePictureFrame decodes APIC (v2.3/v2.4) or PIC (v2.2) payloads and
// records the embedded image data under the Artwork key, filtering to
// the "other" (0x00) and "cover (front)" (0x03) picture types.
func decodePictureFrame(md audiotag.Metadata, rs *audiotag.RequestedSet, major byte, payload []byte) {
	if len(payload) < 2 {
		return
	}
	enc := byteutil.TextEncoding(payload[0])
	pos := 1

	var mime string
	if major == 2 {
		if len(payload) < pos+3 {
			return
		}
		mime = string(payload[pos : pos+3])
		pos += 3
	} else {
		end := indexNUL(payload[pos:])
		if end < 0 {
			return
		}
		mime = string(payload[pos : pos+end])
		pos += end + 1
	}

	if pos >= len(payload) {
		return
	}
	pictureType := payload[pos]
	pos++
	if pictureType != 0x00 && pictureType != 0x03 {
		return
	}

	descEnd := indexNULEncoded(payload[pos:], enc)
	if descEnd < 0 {
		return
	}
	pos += descEnd

	if pos >= len(payload) {
		return
	}
	data := payload[pos:]

	mime = normalizeMIME(mime)
	uri := "data:" + mime + ";base64," + byteutil.BytesToBase64(data)
	md.Set(rs, audiotag.Artwork, audiotag.StringValue(uri))
}

// normalizeMIME maps the handful of MIME spellings ID3v2 pictures use in
// practice (including the legacy v2.2 3-character image format codes)
// onto the png/jpeg pair this module emits.
func normalizeMIME(mime string) string {
	switch strings.ToUpper(strings.TrimRight(mime, "\x00")) {
	case "PNG", "IMAGE/PNG":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0x00 {
			return i
		}
	}
	return -1
}

// indexNULEncoded finds the terminator width for a description field
// depending on its encoding (UTF-16 descriptions are NUL-NUL terminated)
// and returns the byte offset past the terminator.
func indexNULEncoded(b []byte, enc byteutil.TextEncoding) int {
	if enc == byteutil.EncodingUTF16BOM || enc == byteutil.EncodingUTF16BE {
		for i := 0; i+1 < len(b); i += 2 {
			if b[i] == 0x00 && b[i+1] == 0x00 {
				return i + 2
			}
		}
		return -1
	}
	i := indexNUL(b)
	if i < 0 {
		return -1
	}
	return i + 1
}
