// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4"
)

// Open opens the kar archive from r. It checks that the file
// actually is a kar archive and reads the whole index in, after
// which every file is reachable without another header read.
func Open(r io.ReaderAt) (*Archive, error) {
	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrFileFormat)
	} else if num < MagicLength || strings.Compare(string(magicBytes), magic) != 0 {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrFileFormat)
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrFileFormat)
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrFileFormat)
	}

	return &Archive{
		reader: r,
		header: header,
	}, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	header Header
}

// Header returns a copy of the archive header, index included.
func (a *Archive) Header() Header {
	h := a.header
	h.Index = append([]IndexEntry(nil), a.header.Index...)
	return h
}

// ReadAll returns the entire contents of a file with a given name.
func (a *Archive) ReadAll(name string) ([]byte, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	decoder := lz4.NewReader(io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize))
	contents := make([]byte, entry.Size)
	if _, err := io.ReadFull(decoder, contents); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIOMisc)
	}
	return contents, nil
}

// Open returns a Reader for a file in the Archive.
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	return &Reader{
		decoder: lz4.NewReader(io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)),
		size:    entry.Size,
	}, nil
}

func (a *Archive) find(name string) (IndexEntry, error) {
	for _, e := range a.header.Index {
		if e.Name == name {
			return e, nil
		}
	}
	return IndexEntry{}, fmt.Errorf("%s: %w", name, ErrNotExist)
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known. A Reader is
// not safe for concurrent use, open one per goroutine instead.
type Reader struct {
	decoder io.Reader
	size    int64
}

// Size returns the decompressed size of the file.
func (r *Reader) Size() int64 {
	return r.size
}

// Read reads already decompressed data.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.decoder.Read(p)
}
