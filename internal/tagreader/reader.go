// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package tagreader implements the streaming buffered reader every
// container parser shares: a cursor over an in-memory byte window loaded
// from the file provider on demand (spec.md §4.2). The reader owns no
// state beyond one parser's lifetime — it is created, driven through one
// parse, and discarded.
package tagreader

import (
	"context"
	"fmt"

	"github.com/awslabs/audiometa/internal/audiolog"
	"github.com/awslabs/audiometa/internal/fileprovider"
)

// Reader is a cursor over a loaded window of file bytes. It is not safe
// for concurrent use with itself; two Readers over different URIs may
// proceed in parallel because they share no state (spec.md §5).
type Reader struct {
	uri      string
	provider fileprovider.Provider
	log      audiolog.Logger

	window   []byte
	cursor   int
	finished bool

	// filePosition is the logical file offset of the first byte after the
	// currently loaded window.
	filePosition uint64
	// loads counts how many times the window was reloaded from the
	// provider — used by tests to observe early-exit (spec.md §8).
	loads int
}

// New binds a reader to a single file URI.
func New(uri string, provider fileprovider.Provider, log audiolog.Logger) *Reader {
	if log == nil {
		log = audiolog.NopLogger{}
	}
	return &Reader{uri: uri, provider: provider, log: log}
}

// URI returns the bound file URI.
func (r *Reader) URI() string { return r.uri }

// Stat proxies to the file provider.
func (r *Reader) Stat(ctx context.Context) (fileprovider.Info, error) {
	return r.provider.Stat(ctx, r.uri)
}

// LoadCount reports how many times LoadWindow has been called, the signal
// spec.md §8 uses to verify early exit.
func (r *Reader) LoadCount() int { return r.loads }

// LoadWindow replaces the current window with exactly size bytes starting
// at offset, resetting the cursor and clearing finished. It is used both
// in "prepend mode" (the parser already knows the window size) and in
// "probing mode" (a small prefix is loaded first to decode a length
// field, then a second call loads the full region).
func (r *Reader) LoadWindow(ctx context.Context, offset, size uint64) error {
	data, err := r.provider.Read(ctx, r.uri, size, offset)
	if err != nil {
		return fmt.Errorf("tagreader: load window [%d,%d): %w", offset, offset+size, err)
	}
	r.window = data
	r.cursor = 0
	r.finished = false
	r.filePosition = offset + uint64(len(data))
	r.loads++
	r.log.Debugf("loaded window offset=%d size=%d got=%d", offset, size, len(data))
	if uint64(len(data)) < size {
		// A short read: the region asked for runs past EOF. The parser,
		// not the reader, decides whether that is fatal.
		r.finished = true
	}
	return nil
}

// Finished reports whether the last read consumed the remainder of the
// window.
func (r *Reader) Finished() bool { return r.finished }

// Remaining reports how many bytes are left in the current window.
func (r *Reader) Remaining() int { return len(r.window) - r.cursor }

// WindowLen reports the total size of the currently loaded window.
func (r *Reader) WindowLen() int { return len(r.window) }

// Cursor reports the current cursor position within the window.
func (r *Reader) Cursor() int { return r.cursor }

// ReadN returns up to n bytes from the cursor, advancing it by
// min(n, remaining). If fewer than n bytes remain, it returns what
// remains and sets Finished.
func (r *Reader) ReadN(n int) []byte {
	if n < 0 {
		n = 0
	}
	end := r.cursor + n
	if end >= len(r.window) {
		end = len(r.window)
		r.finished = true
	}
	out := r.window[r.cursor:end]
	r.cursor = end
	return out
}

// ReadUntilNUL returns bytes up to and including the first 0x00
// encountered (or until window end), advancing the cursor past it. It
// sets Finished when the window end is reached without finding a zero.
func (r *Reader) ReadUntilNUL() []byte {
	start := r.cursor
	for r.cursor < len(r.window) {
		if r.window[r.cursor] == 0x00 {
			r.cursor++
			return r.window[start:r.cursor]
		}
		r.cursor++
	}
	r.finished = true
	return r.window[start:r.cursor]
}

// SkipN advances the cursor by min(n, remaining) and returns the number of
// bytes actually skipped. A parser that needs to skip past the window end
// is responsible for loading the next region itself.
func (r *Reader) SkipN(n int) int {
	if n < 0 {
		n = 0
	}
	remaining := len(r.window) - r.cursor
	if n > remaining {
		n = remaining
		r.finished = true
	}
	r.cursor += n
	return n
}

// Unsynchronise scans window[offset:offset+length) and removes every zero
// byte that immediately follows a 0xFF byte (ID3v2.4 unsynchronisation
// reversal). It returns the new length of that region. Bytes before
// offset and after offset+length are preserved verbatim; the window
// shrinks in place.
func (r *Reader) Unsynchronise(offset, length int) int {
	if offset < 0 || length < 0 || offset+length > len(r.window) {
		return length
	}

	region := r.window[offset : offset+length]
	out := make([]byte, 0, len(region))
	for i := 0; i < len(region); i++ {
		out = append(out, region[i])
		if region[i] == 0xFF && i+1 < len(region) && region[i+1] == 0x00 {
			i++ // drop the synthetic zero
		}
	}

	newWindow := make([]byte, 0, offset+len(out)+(len(r.window)-offset-length))
	newWindow = append(newWindow, r.window[:offset]...)
	newWindow = append(newWindow, out...)
	newWindow = append(newWindow, r.window[offset+length:]...)
	r.window = newWindow

	return len(out)
}

// Bytes returns the raw bytes of the currently loaded window, for parsers
// that need to inspect a region without consuming it through the cursor
// (e.g. ID3v2's per-frame unsynchronisation, which operates on a frame's
// payload slice directly).
func (r *Reader) Bytes() []byte { return r.window }
