package bcm

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/bcm/bwt"
	"github.com/mewkiz/bcm/internal/cm"
	"github.com/mewkiz/bcm/internal/rangecoder"
	"github.com/mewkiz/pkg/errutil"
)

// A Reader decompresses a BCM stream.
type Reader struct {
	// Byte source of the compressed stream.
	br *bitio.Reader
	// Range coder and model; both live for the whole stream.
	dec   *rangecoder.Decoder
	model *cm.Model
	// Block size of the stream, learned from the first block header. Every
	// later block must fit it.
	blockSize int
	// Transformed column of the current block and successor array scratch.
	col  []byte
	next []int32
	// Reconstruction cursor into the current block, and the number of
	// bytes it has left to produce.
	walk *bwt.Walker
	left int

	err error
}

// NewReader returns a new Reader decompressing the BCM stream r. The stream
// signature is verified and the range coder primed before it returns.
func NewReader(r io.Reader) (*Reader, error) {
	br := bitio.NewReader(r)
	var sig [4]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrFormat
		}
		return nil, errutil.Err(err)
	}
	if string(sig[:]) != Signature {
		return nil, ErrFormat
	}
	dec := rangecoder.NewDecoder(br)
	dec.Init()
	return &Reader{
		br:    br,
		dec:   dec,
		model: cm.NewModel(),
	}, nil
}

// Read returns decompressed data. It reports io.EOF once the end-of-stream
// header has been decoded; input past that point is left unread.
func (zr *Reader) Read(p []byte) (n int, err error) {
	if zr.err != nil {
		return 0, zr.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if zr.left == 0 {
		if err := zr.nextBlock(); err != nil {
			zr.err = err
			return 0, err
		}
	}
	for n < len(p) && zr.left > 0 {
		p[n] = zr.walk.Next()
		n++
		zr.left--
	}
	return n, nil
}

// nextBlock decodes the next block header and, unless it is the end-of-stream
// header, the block's transformed column. It reports io.EOF at the
// end-of-stream header and ErrCorrupted for a header outside its valid range.
func (zr *Reader) nextBlock() error {
	n := int64(zr.getUint32())
	if n == 0 {
		return io.EOF
	}
	// A non-zero header fabricated from exhausted input: without this check
	// a truncated stream could keep yielding plausible blocks forever.
	if zr.dec.Exhausted() {
		return ErrCorrupted
	}
	if zr.blockSize == 0 {
		// First block; its length fixes the block size of the stream.
		if n > maxBlockSize {
			return ErrCorrupted
		}
		zr.blockSize = int(n)
		zr.col = make([]byte, n)
		zr.next = make([]int32, n)
	}
	p := int64(zr.getUint32())
	if n > int64(zr.blockSize) || p < 1 || p > n {
		return ErrCorrupted
	}

	col := zr.col[:n]
	for i := range col {
		col[i] = zr.model.Decode(zr.dec)
	}
	zr.walk = bwt.NewWalker(col, zr.next[:n], int(p))
	zr.left = int(n)
	return nil
}

// getUint32 decodes a big-endian value through the model. Header fields
// adapt the model exactly like block content.
func (zr *Reader) getUint32() uint32 {
	v := uint32(zr.model.Decode(zr.dec)) << 24
	v |= uint32(zr.model.Decode(zr.dec)) << 16
	v |= uint32(zr.model.Decode(zr.dec)) << 8
	v |= uint32(zr.model.Decode(zr.dec))
	return v
}
