package cm

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mewkiz/bcm/internal/rangecoder"
)

// TestCounterLaw checks the fixed-rate update rule: feeding a constant bit
// moves the estimate monotonically toward its endpoint without ever leaving
// [0, 65535].
func TestCounterLaw(t *testing.T) {
	for _, rate := range []uint{2, 4, 6} {
		c := counter{p: 1 << 15}
		prev := c.p
		for i := 0; i < 200; i++ {
			c.update(1, rate)
			if c.p < prev {
				t.Fatalf("rate %d: estimate decreased on bit=1; %d -> %d", rate, prev, c.p)
			}
			if c.p > 65535 {
				t.Fatalf("rate %d: estimate out of range on bit=1; got %d", rate, c.p)
			}
			prev = c.p
		}

		c = counter{p: 1 << 15}
		prev = c.p
		for i := 0; i < 200; i++ {
			c.update(0, rate)
			if c.p > prev {
				t.Fatalf("rate %d: estimate increased on bit=0; %d -> %d", rate, prev, c.p)
			}
			if c.p < 0 {
				t.Fatalf("rate %d: estimate out of range on bit=0; got %d", rate, c.p)
			}
			prev = c.p
		}
	}
}

// TestSSEInit checks the near-identity initial mapping of the secondary
// table, including the pulled-down top knot.
func TestSSEInit(t *testing.T) {
	m := NewModel()
	for f := range m.counter2 {
		for ctx := range m.counter2[f] {
			for k := range m.counter2[f][ctx] {
				want := int32(k) << 12
				if k == 16 {
					want = 15 << 12
				}
				if got := m.counter2[f][ctx][k].p; got != want {
					t.Fatalf("counter2[%d][%d][%d] init mismatch; expected %d, got %d", f, ctx, k, want, got)
				}
			}
		}
	}
}

// TestModelRoundTrip codes byte sequences through coupled encoder/decoder
// model pairs and checks that the decoded bytes and the adapted state stay
// in lockstep.
func TestModelRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 4096)
	rng.Read(random)

	golden := [][]byte{
		[]byte("a"),
		[]byte("banana$\n"),
		[]byte("abracadabra abracadabra abracadabra"),
		bytes.Repeat([]byte{0}, 8192),
		bytes.Repeat([]byte("ab"), 4096),
		random,
	}
	for i, want := range golden {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			buf := new(bytes.Buffer)
			enc := rangecoder.NewEncoder(buf)
			em := NewModel()
			for _, b := range want {
				em.Encode(enc, b)
			}
			if err := enc.Flush(); err != nil {
				t.Fatalf("error flushing encoder: %v", err)
			}

			dec := rangecoder.NewDecoder(bytes.NewReader(buf.Bytes()))
			dec.Init()
			dm := NewModel()
			for j, b := range want {
				got := dm.Decode(dec)
				if got != b {
					t.Fatalf("byte %d mismatch; expected %#02x, got %#02x", j, b, got)
				}
			}
			if *em != *dm {
				t.Fatal("encoder and decoder models diverged")
			}

			// Coding must leave every estimate on the Q16 scale.
			for ctx := range dm.counter0 {
				if p := dm.counter0[ctx].p; p < 0 || p > 65535 {
					t.Fatalf("counter0[%d] out of range; got %d", ctx, p)
				}
			}
			for f := range dm.counter2 {
				for ctx := range dm.counter2[f] {
					for k := range dm.counter2[f][ctx] {
						if p := dm.counter2[f][ctx][k].p; p < 0 || p > 65535 {
							t.Fatalf("counter2[%d][%d][%d] out of range; got %d", f, ctx, k, p)
						}
					}
				}
			}
		})
	}
}
