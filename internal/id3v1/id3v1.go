// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package id3v1 parses the fixed 128-byte ID3v1/ID3v1.1 trailer (spec.md
// §4.3), grounded on the teacher's ID3v1Tag struct layout in
// mp3-extractor.go.
package id3v1

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

const tagSize = 128

// Parser reads the ID3v1/v1.1 trailer. One Parser is bound to one URI and
// one requested-tag set; Extract is called once.
type Parser struct {
	reader    *tagreader.Reader
	requested *audiotag.RequestedSet
}

// New binds a parser to a file URI via provider.
func New(uri string, provider fileprovider.Provider, requested *audiotag.RequestedSet, log audiolog.Logger) *Parser {
	return &Parser{
		reader:    tagreader.New(uri, provider, log),
		requested: requested,
	}
}

// Extract reads the trailing 128 bytes and decodes them.
func (p *Parser) Extract(ctx context.Context) (*audiotag.Result, error) {
	info, err := p.reader.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, parseerr.New(parseerr.FileMissing, "file does not exist", fileprovider.ErrNotExist)
	}
	if info.Size < tagSize {
		return nil, errNotATag()
	}

	if err := p.reader.LoadWindow(ctx, info.Size-tagSize, tagSize); err != nil {
		return nil, parseerr.New(parseerr.IoFailed, "failed reading ID3v1 trailer", err)
	}

	window := p.reader.Bytes()
	if string(window[0:3]) != "TAG" {
		return nil, errNotATag()
	}

	title := isoField(window[3:33])
	artist := isoField(window[33:63])
	album := isoField(window[63:93])
	year := isoField(window[93:97])
	comment := window[97:127]

	isV11 := comment[28] == 0 && comment[29] != 0

	md := audiotag.NewMetadata(p.requested)
	md.Set(p.requested, audiotag.Name, audiotag.StringValue(title))
	md.Set(p.requested, audiotag.Artist, audiotag.StringValue(artist))
	md.Set(p.requested, audiotag.Album, audiotag.StringValue(album))
	setYear(md, p.requested, year)

	if isV11 {
		md.Set(p.requested, audiotag.Track, audiotag.IntValue(int64(comment[29])))
	}

	format := "ID3v1"
	if isV11 {
		format = "ID3v1.1"
	}

	return &audiotag.Result{FileType: "mp3", Format: format, Metadata: md}, nil
}

func isoField(b []byte) string {
	return strings.TrimRight(byteutil.BytesToString(b, byteutil.EncodingISO88591), "\x00")
}

func setYear(md audiotag.Metadata, rs *audiotag.RequestedSet, raw string) {
	digits := firstNDigits(raw, 4)
	if digits == "" {
		if raw != "" {
			md.Set(rs, audiotag.Year, audiotag.StringValue(raw))
		}
		return
	}
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		md.Set(rs, audiotag.Year, audiotag.IntValue(n))
		return
	}
	md.Set(rs, audiotag.Year, audiotag.StringValue(raw))
}

func firstNDigits(s string, n int) string {
	if len(s) < n {
		return ""
	}
	for i := 0; i < n; i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s[:n]
}

func errNotATag() error {
	return parseerr.New(parseerr.FormatInvalid, "not an ID3v1 tag", nil)
}
