// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audiotest provides in-memory fixtures used only by this
// module's own tests: a fileprovider.Provider double, and byte-slice
// builders for each container family so the end-to-end scenarios in
// spec.md §8 can run without binary fixture files on disk. Grounded on
// the teacher's inline struct-literal fixtures (ID3v1Tag/ID3v2Header in
// mp3-extractor.go) and on other_examples' frame-map construction
// (xonyagar-id3).
package audiotest

import (
	"context"

	"github.com/awslabs/audiometa/internal/fileprovider"
)

// MemoryProvider is a fileprovider.Provider backed by an in-memory byte
// slice, satisfying spec.md §9's "capability injection" design note.
type MemoryProvider struct {
	URI  string
	Data []byte

	// Reads counts how many times Read was called, for asserting
	// early-exit behaviour from outside the reader.
	Reads int
}

// NewMemoryProvider wraps data under uri.
func NewMemoryProvider(uri string, data []byte) *MemoryProvider {
	return &MemoryProvider{URI: uri, Data: data}
}

func (m *MemoryProvider) Stat(_ context.Context, uri string) (fileprovider.Info, error) {
	if uri != m.URI {
		return fileprovider.Info{}, fileprovider.ErrNotExist
	}
	return fileprovider.Info{Exists: true, Size: uint64(len(m.Data))}, nil
}

func (m *MemoryProvider) Read(_ context.Context, uri string, length, position uint64) ([]byte, error) {
	if uri != m.URI {
		return nil, fileprovider.ErrNotExist
	}
	m.Reads++
	if position > uint64(len(m.Data)) {
		return nil, nil
	}
	end := position + length
	if end > uint64(len(m.Data)) {
		end = uint64(len(m.Data))
	}
	out := make([]byte, end-position)
	copy(out, m.Data[position:end])
	return out, nil
}
