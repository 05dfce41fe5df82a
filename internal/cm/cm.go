// Package cm implements the context-mixing model of BCM streams.
//
// Each byte is coded as 8 bits, most-significant first. The per-bit
// probability is a fixed-weight blend of an order-0 counter and two order-1
// counters (indexed on the last and second-to-last byte), post-calibrated by
// a secondary estimation table conditioned on the partial-byte context and a
// run flag. Encoder and decoder must observe the identical byte sequence for
// their models to stay in lockstep; the model is never reset between blocks.
package cm

import (
	"github.com/mewkiz/bcm/internal/rangecoder"
)

// Adaptation rates. Higher is slower. The rates are part of the stream
// format.
const (
	rate0   = 2
	rate1   = 4
	rateSSE = 6
)

// A counter holds an adaptive probability estimate in [0, 65535] as a Q16
// value. Stored wider than 16 bits: the arithmetic needs the headroom of the
// intermediate complement and the secondary table holds 17 interpolation
// knots.
type counter struct {
	p int32
}

// update nudges the estimate by 1/2^rate of its distance from the endpoint
// selected by bit. No clamping is needed.
func (c *counter) update(bit int, rate uint) {
	if bit != 0 {
		c.p += (c.p ^ 65535) >> rate
	} else {
		c.p -= c.p >> rate
	}
}

// A Model holds the complete adaptive state shared by a stream's encoder or
// decoder side.
type Model struct {
	// Order-0 counters, indexed by the partial-byte context.
	counter0 [256]counter
	// Order-1 counters, indexed by a context byte and the partial-byte
	// context. Blended twice, once for each of the last two bytes.
	counter1 [256][256]counter
	// Secondary estimation table, indexed by the run flag, the partial-byte
	// context and the quantized mixer output.
	counter2 [2][256][17]counter
	// Last two fully coded bytes.
	c1 int
	c2 int
	// Count of consecutive identical bytes.
	run int
}

// NewModel returns a Model in its initial state.
func NewModel() *Model {
	m := new(Model)
	for i := range m.counter0 {
		m.counter0[i].p = 1 << 15
	}
	for i := range m.counter1 {
		for j := range m.counter1[i] {
			m.counter1[i][j].p = 1 << 15
		}
	}
	// Near-identity initial mapping for the secondary table, with the top
	// knot pulled down to stay on the Q16 scale.
	for f := range m.counter2 {
		for ctx := range m.counter2[f] {
			for k := range m.counter2[f][ctx] {
				v := int32(k)
				if k == 16 {
					v--
				}
				m.counter2[f][ctx][k].p = v << 12
			}
		}
	}
	return m
}

// Encode codes the byte c through e.
func (m *Model) Encode(e *rangecoder.Encoder, c byte) {
	f := m.runFlag()
	x := int(c)
	for ctx := 1; ctx < 256; {
		bit := (x >> 7) & 1
		x <<= 1
		p, idx := m.mix(f, ctx)
		e.EncodeBit(bit, p)
		m.update(f, ctx, idx, bit)
		ctx = ctx<<1 | bit
	}
	m.c2 = m.c1
	m.c1 = int(c)
}

// Decode decodes one byte from d.
func (m *Model) Decode(d *rangecoder.Decoder) byte {
	f := m.runFlag()
	ctx := 1
	for ctx < 256 {
		p, idx := m.mix(f, ctx)
		bit := d.DecodeBit(p)
		m.update(f, ctx, idx, bit)
		ctx = ctx<<1 | bit
	}
	m.c2 = m.c1
	m.c1 = ctx & 0xFF
	return byte(m.c1)
}

// runFlag advances the run length, once per byte, and reports whether the
// stream is inside a run of more than two identical bytes.
func (m *Model) runFlag() int {
	if m.c1 == m.c2 {
		m.run++
	} else {
		m.run = 0
	}
	if m.run > 2 {
		return 1
	}
	return 0
}

// mix returns the probability estimate for the next bit and the secondary
// table index it was calibrated with.
//
// The blend weights 4:3:1 favor the order-0 stabilizer; the secondary
// estimate is interpolated linearly between the two knots bracketing the
// blended value and contributes three times its weight to the final
// estimate, which may exceed the nominal Q15 scale.
func (m *Model) mix(f, ctx int) (p15 uint32, idx int) {
	p0 := m.counter0[ctx].p
	p1 := m.counter1[m.c1][ctx].p
	p2 := m.counter1[m.c2][ctx].p
	p := (4*p0 + 3*p1 + p2) >> 3

	idx = int(p >> 12)
	x1 := m.counter2[f][ctx][idx].p
	x2 := m.counter2[f][ctx][idx+1].p
	ssep := x1 + ((x2-x1)*(p&4095))>>12

	return uint32(p + 3*ssep), idx
}

// update adapts the counters that produced the estimate for ctx. Both knots
// bracketing the quantized value adapt, which smooths learning across the
// quantization boundary. Only the c1-indexed order-1 row adapts.
func (m *Model) update(f, ctx, idx, bit int) {
	m.counter0[ctx].update(bit, rate0)
	m.counter1[m.c1][ctx].update(bit, rate1)
	m.counter2[f][ctx][idx].update(bit, rateSSE)
	m.counter2[f][ctx][idx+1].update(bit, rateSSE)
}
