// Package bcm provides access to BCM compressed streams.
//
// BCM is a lossless block compressor built on the Burrows-Wheeler transform
// and a bit-level context-mixing range coder.
//
// The basic structure of a BCM stream is:
//   - The four byte string "BCM1".
//   - Zero or more blocks, each a model-coded header (n, p) followed by n
//     model-coded bytes of transformed block content.
//   - A model-coded end-of-stream header (n = 0) and the raw 4-byte tail of
//     the range coder.
//
// The header fields pass through the same adaptive model as the block
// content, and the model carries over from block to block, so a stream can
// only be decoded front to back.
package bcm

import (
	"io"

	"github.com/pkg/errors"
)

// Signature is present at the beginning of each BCM stream.
const Signature = "BCM1"

var (
	// ErrFormat reports that the stream signature is missing or malformed.
	ErrFormat = errors.New("bcm: not in BCM format")
	// ErrCorrupted reports a block header outside its valid range.
	ErrCorrupted = errors.New("bcm: file corrupted")

	errClosed = errors.New("bcm: writer already closed")
)

// Encode compresses r to w in blocks of blockSize bytes. A blockSize of 0
// selects DefaultBlockSize.
func Encode(w io.Writer, r io.Reader, blockSize int) error {
	zw, err := NewWriter(w, &WriterConfig{BlockSize: blockSize})
	if err != nil {
		return err
	}
	if _, err := io.Copy(zw, r); err != nil {
		return err
	}
	return zw.Close()
}

// Decode decompresses the BCM stream r to w. Input past the end-of-stream
// header is left unread.
func Decode(w io.Writer, r io.Reader) error {
	zr, err := NewReader(r)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, zr)
	return err
}
