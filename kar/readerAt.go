// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
)

// OpenAt returns a ReaderAt for a file in the Archive. lz4 frames do
// not seek, every read decompresses from the top of the file up to
// the requested offset, so it suits few large reads over many small
// ones.
func (a *Archive) OpenAt(name string) (*ReaderAt, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	return &ReaderAt{
		archive: a,
		entry:   entry,
	}, nil
}

// ReaderAt provides concurrent random access to a single file in an
// Archive. Every call runs on its own decompressor, calls do not
// disturb each other.
type ReaderAt struct {
	archive *Archive
	entry   IndexEntry
}

// ReadAt reads decompressed file contents at offset off.
func (r *ReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %w", ErrIOMisc)
	}
	if off >= r.entry.Size {
		return 0, io.EOF
	}
	decoder := lz4.NewReader(io.NewSectionReader(r.archive.reader, r.entry.Offset, r.entry.CompressedSize))
	if _, err := io.CopyN(ioutil.Discard, decoder, off); err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrIOMisc)
	}
	want := p
	if rest := r.entry.Size - off; rest < int64(len(p)) {
		want = p[:rest]
	}
	if n, err = io.ReadFull(decoder, want); err != nil {
		return n, fmt.Errorf("%v: %w", err, ErrIOMisc)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
