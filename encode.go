package bcm

import (
	"io"

	"github.com/icza/bitio"
	"github.com/mewkiz/bcm/bwt"
	"github.com/mewkiz/bcm/internal/cm"
	"github.com/mewkiz/bcm/internal/rangecoder"
	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"
)

const (
	// DefaultBlockSize is the block size used when the writer configuration
	// leaves it unset.
	DefaultBlockSize = 20 << 20

	// maxBlockSize bounds the block size on both sides of the codec, so
	// that a corrupted first header cannot drive an unbounded allocation
	// on decode.
	maxBlockSize = 1 << 30
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	// Block size in bytes. Defaults to DefaultBlockSize when 0. Larger
	// blocks trade memory for compression; the model itself carries over
	// across blocks either way.
	BlockSize int
}

// A Writer compresses data written to it into a BCM stream.
type Writer struct {
	// Byte sink of the compressed stream.
	bw *bitio.Writer
	// Range coder and model; both live for the whole stream.
	enc   *rangecoder.Encoder
	model *cm.Model
	// Forward transform, reused across blocks.
	fwd *bwt.Transformer
	// Configured block size in bytes.
	blockSize int
	// Pending input. Grows by append up to blockSize, so a short stream
	// never allocates a full block.
	buf []byte
	// Transformed column and suffix array scratch, sized on first use.
	col []byte
	sa  []int32

	err    error
	closed bool
}

// NewWriter returns a new Writer compressing to w with the given
// configuration. The stream signature is written immediately. A nil conf
// selects the defaults.
//
// The caller is responsible for calling Close to terminate the stream;
// Close does not close w.
func NewWriter(w io.Writer, conf *WriterConfig) (*Writer, error) {
	blockSize := DefaultBlockSize
	if conf != nil && conf.BlockSize != 0 {
		blockSize = conf.BlockSize
	}
	if blockSize < 1 || blockSize > maxBlockSize {
		return nil, errors.Errorf("bcm: invalid block size %d", blockSize)
	}
	bw := bitio.NewWriter(w)
	if _, err := bw.Write([]byte(Signature)); err != nil {
		return nil, errutil.Err(err)
	}
	return &Writer{
		bw:        bw,
		enc:       rangecoder.NewEncoder(bw),
		model:     cm.NewModel(),
		fwd:       bwt.NewTransformer(),
		blockSize: blockSize,
	}, nil
}

// Write buffers p, compressing a block each time a full block of input is
// available.
func (zw *Writer) Write(p []byte) (n int, err error) {
	if zw.err != nil {
		return 0, zw.err
	}
	if zw.closed {
		return 0, errClosed
	}
	cnt := len(p)
	for len(p) > 0 {
		room := zw.blockSize - len(zw.buf)
		if room > len(p) {
			room = len(p)
		}
		zw.buf = append(zw.buf, p[:room]...)
		p = p[room:]
		if len(zw.buf) == zw.blockSize {
			if err := zw.flush(); err != nil {
				return 0, err
			}
		}
	}
	return cnt, nil
}

// Close compresses any buffered input, writes the end-of-stream header and
// the range coder tail, and flushes the byte sink. It does not close the
// underlying io.Writer.
func (zw *Writer) Close() error {
	if zw.closed {
		return nil
	}
	if zw.err != nil {
		return zw.err
	}
	if err := zw.flush(); err != nil {
		return err
	}
	zw.putUint32(0)
	if err := zw.enc.Flush(); err != nil {
		zw.err = errutil.Err(err)
		return zw.err
	}
	if err := zw.bw.Close(); err != nil {
		zw.err = errutil.Err(err)
		return zw.err
	}
	zw.closed = true
	return nil
}

// flush compresses the buffered input as one block.
func (zw *Writer) flush() error {
	n := len(zw.buf)
	if n == 0 {
		return nil
	}
	if cap(zw.col) < n {
		zw.col = make([]byte, n)
		zw.sa = make([]int32, n)
	}
	col, sa := zw.col[:n], zw.sa[:n]

	p, err := zw.fwd.Transform(zw.buf, col, sa)
	if err != nil {
		zw.err = err
		return err
	}

	zw.putUint32(uint32(n))
	zw.putUint32(uint32(p))
	for _, b := range col {
		zw.model.Encode(zw.enc, b)
	}
	zw.buf = zw.buf[:0]

	if err := zw.enc.Err(); err != nil {
		zw.err = errutil.Err(err)
		return zw.err
	}
	return nil
}

// putUint32 codes v through the model in big-endian byte order. Header
// fields adapt the model exactly like block content.
func (zw *Writer) putUint32(v uint32) {
	zw.model.Encode(zw.enc, byte(v>>24))
	zw.model.Encode(zw.enc, byte(v>>16))
	zw.model.Encode(zw.enc, byte(v>>8))
	zw.model.Encode(zw.enc, byte(v))
}
