// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrTempFail)
	}
	builder := &Builder{
		tempDir: temp,
		header:  header,
	}
	// TODO: Not sure if a finalizer is a good place to clean up.
	// Measure if GC takes a hit once archives get big.
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the temporary name given by the Builder
	TempName string

	// Size in decompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create one. Every Add stages an lz4 compressed copy
// of the file in a temporary dir, WriteTo finally bundles the staged
// files into a ready to use archive. A Builder is spent after
// WriteTo.
type Builder struct {
	tempDir string
	header  Header
	seq     int64

	mutex sync.Mutex
	files []tempFile
}

// Add compresses and stages data from r under the given name. It
// blocks until lz4 finishes compression. Safe to use concurrently
// from different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	tempName := strconv.FormatInt(atomic.AddInt64(&b.seq, 1), 10)
	f, err := os.Create(filepath.Join(b.tempDir, tempName))
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrTempFail)
	}
	defer f.Close()
	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrIOMisc)
	}
	// flushes the lz4 frame, Stat would be short without it
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrIOMisc)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrTempFail)
	}
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrTempFail)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, tempFile{
		Name:       name,
		TempName:   tempName,
		Size:       written,
		Compressed: info.Size(),
	})
	return nil
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
	}

	// offsets must be known before the header encodes, so the header
	// gets a reserved region sized from the estimate and the data
	// starts right after it
	reserved := header.MaxExpectedSize()
	offset := int64(MagicLength + HeaderSizeNumberLength)
	offset += reserved
	for idx := range header.Index {
		header.Index[idx].Offset = offset
		offset += header.Index[idx].CompressedSize
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}
	if int64(len(rawHeader)) > reserved {
		return 0, fmt.Errorf("header estimate too small for %d entries: %w", len(header.Index), ErrFileFormat)
	}

	var written int64
	for _, chunk := range [][]byte{
		[]byte(magic),
		int64ToBinary(int64(len(rawHeader))),
		rawHeader,
		make([]byte, reserved-int64(len(rawHeader))),
	} {
		num, err := w.Write(chunk)
		written += int64(num)
		if err != nil {
			return written, fmt.Errorf("%v: %w", err, ErrIOMisc)
		}
	}

	for _, v := range b.files {
		f, err := os.Open(filepath.Join(b.tempDir, v.TempName))
		if err != nil {
			return written, fmt.Errorf("%v: %w", err, ErrTempFail)
		}
		num, err := io.Copy(w, f)
		f.Close()
		written += num
		if err != nil {
			return written, fmt.Errorf("%v: %w", err, ErrIOMisc)
		}
	}

	b.files = b.files[:0]
	return written, nil
}

// Close removes the staging directory. The finalizer covers leaked
// builders, deterministic cleanup goes through here.
func (b *Builder) Close() error {
	return os.RemoveAll(b.tempDir)
}
