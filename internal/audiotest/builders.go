// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package audiotest

import (
	"encoding/binary"
)

// BuildID3v1 constructs a 128-byte ID3v1 (or ID3v1.1, when track > 0)
// trailer, per spec.md §4.3.
func BuildID3v1(title, artist, album, year, comment string, track byte) []byte {
	buf := make([]byte, 128)
	copy(buf[0:3], "TAG")
	copy(buf[3:33], padISO(title, 30))
	copy(buf[33:63], padISO(artist, 30))
	copy(buf[63:93], padISO(album, 30))
	copy(buf[93:97], padISO(year, 4))
	if track > 0 {
		copy(buf[97:125], padISO(comment, 28))
		buf[125] = 0
		buf[126] = track
	} else {
		copy(buf[97:127], padISO(comment, 30))
	}
	buf[127] = 0
	return buf
}

func padISO(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// ID3v2Frame is one raw frame going into BuildID3v2.
type ID3v2Frame struct {
	ID   string
	Data []byte
}

// TextFrame builds an ISO-8859-1-encoded text frame payload (encoding
// byte 0 followed by the text).
func TextFrame(id, text string) ID3v2Frame {
	return ID3v2Frame{ID: id, Data: append([]byte{0x00}, []byte(text)...)}
}

// UTF8TextFrame builds a UTF-8-encoded text frame payload (encoding byte
// 3 followed by the text).
func UTF8TextFrame(id, text string) ID3v2Frame {
	return ID3v2Frame{ID: id, Data: append([]byte{0x03}, []byte(text)...)}
}

// PictureFrameV23 builds an APIC frame payload for v2.3/v2.4: encoding
// byte, NUL-terminated MIME, picture type, NUL-terminated description,
// picture data.
func PictureFrameV23(mime string, pictureType byte, data []byte) ID3v2Frame {
	payload := []byte{0x00}
	payload = append(payload, []byte(mime)...)
	payload = append(payload, 0x00)
	payload = append(payload, pictureType)
	payload = append(payload, 0x00) // empty description + NUL
	payload = append(payload, data...)
	return ID3v2Frame{ID: "APIC", Data: payload}
}

// BuildID3v2 constructs a full ID3v2.x tag (header + frames), major in
// {2,3,4}. When unsynch is true, the tag-level unsynchronisation flag is
// set (plus each frame's unsynch flag on v2.4), and a 0x00 is inserted
// after every 0xFF in frame payloads that is followed by 0x00, by a byte
// of 0xE0 or above, or by the end of the payload.
func BuildID3v2(major byte, frames []ID3v2Frame, unsynch bool) []byte {
	var body []byte
	for _, f := range frames {
		data := f.Data
		if unsynch {
			data = escapeUnsynch(data)
		}
		switch major {
		case 2:
			id3 := []byte(f.ID)
			if len(id3) > 3 {
				id3 = id3[:3]
			} else {
				id3 = append(id3, make([]byte, 3-len(id3))...)
			}
			body = append(body, id3...)
			body = append(body, byte(len(data)>>16), byte(len(data)>>8), byte(len(data)))
			body = append(body, data...)
		default:
			body = append(body, []byte(f.ID)...)
			if major >= 4 {
				body = append(body, synchsafe(uint32(len(data)))...)
			} else {
				size := make([]byte, 4)
				binary.BigEndian.PutUint32(size, uint32(len(data)))
				body = append(body, size...)
			}
			frameFlags := byte(0)
			if unsynch && major >= 4 {
				frameFlags = 0x02
			}
			body = append(body, 0x00, frameFlags)
			body = append(body, data...)
		}
	}

	header := make([]byte, 10)
	copy(header[0:3], "ID3")
	header[3] = major
	header[4] = 0
	flags := byte(0)
	if unsynch {
		flags |= 0x80
	}
	header[5] = flags
	copy(header[6:10], synchsafe(uint32(len(body))))

	return append(header, body...)
}

// BuildID3v2WithFooter builds a v2.4 tag (header + frames + 10-byte
// footer) for the dispatcher's end-of-file probe (spec.md §4.7): the
// footer repeats the header fields with the "3DI" reversed magic.
func BuildID3v2WithFooter(frames []ID3v2Frame) []byte {
	tag := BuildID3v2(4, frames, false)
	bodySize := synchsafe(uint32(len(tag) - 10))
	footer := make([]byte, 10)
	copy(footer[0:3], "3DI")
	footer[3] = 4
	footer[4] = 0
	footer[5] = 0
	copy(footer[6:10], bodySize)
	return append(tag, footer...)
}

func escapeUnsynch(data []byte) []byte {
	out := make([]byte, 0, len(data)+4)
	for i, b := range data {
		out = append(out, b)
		if b == 0xFF {
			var next byte
			if i+1 < len(data) {
				next = data[i+1]
			}
			if next == 0x00 || (next&0xE0) == 0xE0 {
				out = append(out, 0x00)
			}
		}
	}
	return out
}

func synchsafe(v uint32) []byte {
	return []byte{
		byte((v >> 21) & 0x7F),
		byte((v >> 14) & 0x7F),
		byte((v >> 7) & 0x7F),
		byte(v & 0x7F),
	}
}

// FLACBlock is one metadata block going into BuildFLAC.
type FLACBlock struct {
	Type byte
	Data []byte
}

// BuildFLAC constructs a FLAC stream: "fLaC" magic followed by the given
// metadata blocks, marking the last one accordingly.
func BuildFLAC(blocks []FLACBlock) []byte {
	out := []byte("fLaC")
	for i, b := range blocks {
		header := byte(b.Type & 0x7F)
		if i == len(blocks)-1 {
			header |= 0x80
		}
		out = append(out, header)
		n := len(b.Data)
		out = append(out, byte(n>>16), byte(n>>8), byte(n))
		out = append(out, b.Data...)
	}
	return out
}

// VorbisComment builds a VORBIS_COMMENT block body from vendor + ordered
// FIELD=value pairs, per spec.md §4.5 (all lengths little-endian).
func VorbisComment(vendor string, fields [][2]string) []byte {
	var out []byte
	out = append(out, le32(uint32(len(vendor)))...)
	out = append(out, []byte(vendor)...)
	out = append(out, le32(uint32(len(fields)))...)
	for _, kv := range fields {
		entry := kv[0] + "=" + kv[1]
		out = append(out, le32(uint32(len(entry)))...)
		out = append(out, []byte(entry)...)
	}
	return out
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// FLACPicture builds a PICTURE block body, per spec.md §4.5 (all numeric
// fields big-endian).
func FLACPicture(pictureType uint32, mime string, description string, data []byte) []byte {
	var out []byte
	out = append(out, be32(pictureType)...)
	out = append(out, be32(uint32(len(mime)))...)
	out = append(out, []byte(mime)...)
	out = append(out, be32(uint32(len(description)))...)
	out = append(out, []byte(description)...)
	out = append(out, make([]byte, 16)...) // width/height/depth/colors
	out = append(out, be32(uint32(len(data)))...)
	out = append(out, data...)
	return out
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// MP4Atom is one atom (box) going into BuildMP4Atoms.
type MP4Atom struct {
	Type string
	Data []byte
}

// BuildMP4Atoms concatenates a sequence of 32-bit-sized MP4/M4A atoms.
func BuildMP4Atoms(atoms []MP4Atom) []byte {
	var out []byte
	for _, a := range atoms {
		size := uint32(8 + len(a.Data))
		out = append(out, be32(size)...)
		out = append(out, []byte(a.Type)...)
		out = append(out, a.Data...)
	}
	return out
}

// FtypAtom builds an ftyp atom body: major brand, minor version, and a
// single compatible brand.
func FtypAtom(majorBrand string, minorVersion uint32) []byte {
	var out []byte
	out = append(out, []byte(majorBrand)...)
	out = append(out, be32(minorVersion)...)
	out = append(out, []byte(majorBrand)...)
	return out
}

// ItunesDataAtom builds the iTunes-style `data` sub-atom body used inside
// ilst leaves: flags (3 bytes) + 4 reserved bytes + payload.
func ItunesDataAtom(flags uint32, payload []byte) []byte {
	data := MP4Atom{
		Type: "data",
		Data: append(append([]byte{0x00, byte(flags >> 16), byte(flags >> 8), byte(flags)}, 0, 0, 0, 0), payload...),
	}
	return BuildMP4Atoms([]MP4Atom{data})
}

// IlstLeaf builds an ilst leaf atom (e.g. "©nam") wrapping a single data
// sub-atom.
func IlstLeaf(atomType string, flags uint32, payload []byte) MP4Atom {
	return MP4Atom{Type: atomType, Data: ItunesDataAtom(flags, payload)}
}
