// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed archive format built for
// resource streaming. The archive is designed to be memory mapped, so
// unlike tar it knows where every file sits before reading anything.
// The archive itself is therefore never compressed as a whole, every
// file is compressed individually and can be decompressed straight
// from its recorded place. That trades some space for getting
// resources from disk to a usable state as fast as possible. Archives
// can be read from concurrently.
//
// The layout is: a 4 byte magic, a 16 byte varint field carrying the
// header length, the gob encoded Header, zero padding up to the
// reserved header space, then the lz4 frames of the files at the
// absolute offsets the index records.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotExist   = errors.New("file does not exist in archive")
	ErrTempFail   = errors.New("temporary folder or file operation failed")
	ErrIOMisc     = errors.New("some unknown error unhandled by the io occured")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

const magic = "KAR\x00"

// IndexEntry is info for one file in the file index. Offset is
// absolute in the archive, Size is the decompressed byte count.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// MaxExpectedSize calculates the amount of space a Header could take.
// It's important to know this before writing the header into the file.
// It only needs to be roughly correct, offsets will be calculated
// with consideration for this number.
func (h *Header) MaxExpectedSize() int64 {
	var size int64
	size += int64(len(h.Author))
	size += 16  // DateCreated + Version
	size += 128 // gob type descriptors
	for _, e := range h.Index {
		size += int64(len(e.Name))
		size += 24 // numbers
		size += 64 // field names and lengths
	}
	return size
}

func int64ToBinary(num int64) []byte {
	numBytes := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(numBytes, num)
	return numBytes
}

func binaryToint64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}
