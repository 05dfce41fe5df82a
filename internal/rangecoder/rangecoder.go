// Package rangecoder implements the binary range coder used by BCM streams.
//
// A bit sequence is represented as a subinterval of [0, 2^32). Each coded bit
// narrows the interval at a split point derived from the supplied probability
// estimate, and whole bytes are shifted out whenever the top byte of the
// interval bounds agree.
package rangecoder

import (
	"io"
)

// An Encoder writes a bit sequence to an io.ByteWriter.
type Encoder struct {
	w    io.ByteWriter
	low  uint32
	high uint32
	err  error
}

// NewEncoder returns a new Encoder writing to w.
func NewEncoder(w io.ByteWriter) *Encoder {
	return &Encoder{w: w, high: 0xFFFFFFFF}
}

// EncodeBit encodes a single bit with the probability estimate p of the bit
// being 1. The estimate is nominally Q15 but is consumed verbatim; the caller
// must keep p below 1<<18 so that the split computation stays exact.
func (e *Encoder) EncodeBit(bit int, p uint32) {
	mid := e.low + uint32((uint64(e.high-e.low)*uint64(p<<14))>>32)
	if bit != 0 {
		e.high = mid
	} else {
		e.low = mid + 1
	}

	// Shift out bytes on which low and high agree.
	for e.low^e.high < 1<<24 {
		e.writeByte(byte(e.low >> 24))
		e.low <<= 8
		e.high = e.high<<8 | 0xFF
	}
}

// Flush terminates the stream by writing out the pending 4 bytes of low. The
// decoder preloads the same number of bytes on Init.
func (e *Encoder) Flush() error {
	for i := 0; i < 4; i++ {
		e.writeByte(byte(e.low >> 24))
		e.low <<= 8
	}
	return e.err
}

// Err returns the first write error encountered, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

// A Decoder reads a bit sequence from an io.ByteReader. Exhausted input
// yields zero bytes, so a truncated stream decodes to garbage rather than an
// error; callers are expected to validate decoded values.
type Decoder struct {
	r         io.ByteReader
	low       uint32
	high      uint32
	code      uint32
	exhausted bool
}

// NewDecoder returns a new Decoder reading from r. Init must be called before
// the first DecodeBit.
func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r, high: 0xFFFFFFFF}
}

// Init preloads the code value with the first 4 bytes of the stream,
// most-significant first.
func (d *Decoder) Init() {
	for i := 0; i < 4; i++ {
		d.code = d.code<<8 | uint32(d.readByte())
	}
}

// DecodeBit decodes a single bit with the probability estimate p of the bit
// being 1. The estimate must match the one used by the encoder at the same
// position, or the two sides desynchronize.
func (d *Decoder) DecodeBit(p uint32) int {
	mid := d.low + uint32((uint64(d.high-d.low)*uint64(p<<14))>>32)
	var bit int
	if d.code <= mid {
		bit = 1
		d.high = mid
	} else {
		d.low = mid + 1
	}

	for d.low^d.high < 1<<24 {
		d.code = d.code<<8 | uint32(d.readByte())
		d.low <<= 8
		d.high = d.high<<8 | 0xFF
	}

	return bit
}

// Exhausted reports whether the decoder has read past the end of its input.
// A well-formed stream is never read past its flush tail, so exhaustion
// before the end-of-stream header proves corruption.
func (d *Decoder) Exhausted() bool {
	return d.exhausted
}

func (d *Decoder) readByte() byte {
	b, err := d.r.ReadByte()
	if err != nil {
		d.exhausted = true
		return 0
	}
	return b
}
