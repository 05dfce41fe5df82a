// Package bwt implements the Burrows-Wheeler transform used by BCM blocks.
//
// The forward transform permutes a block into the last column of its sorted
// rotations matrix and reports a primary index p in [1, n] identifying the
// row of the original string. The column is stored without the sentinel row:
// index p is reserved for the unstored row, so stored indices at or beyond p
// are shifted by one. The inverse reconstructs the block from the column and
// p alone.
package bwt

import (
	"github.com/flanglet/kanzi-go/v2/transform"
	"github.com/pkg/errors"
)

// A Transformer computes forward transforms. The zero value is not usable;
// use NewTransformer. A Transformer may be reused across blocks, which also
// reuses the suffix sorter's internal buffers.
type Transformer struct {
	sorter *transform.DivSufSort
}

// NewTransformer returns a new Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// Transform writes the last column of the sorted rotations of src to dst and
// returns the primary index p in [1, len(src)]. sa is scratch for the suffix
// array and must hold at least len(src) entries. src and dst must not
// overlap.
func (t *Transformer) Transform(src, dst []byte, sa []int32) (p int, err error) {
	n := len(src)
	switch {
	case n == 0:
		return 0, errors.New("bwt: empty block")
	case len(dst) < n:
		return 0, errors.Errorf("bwt: output buffer too small; got %d, need %d", len(dst), n)
	case len(sa) < n:
		return 0, errors.Errorf("bwt: suffix array buffer too small; got %d, need %d", len(sa), n)
	case &src[0] == &dst[0]:
		return 0, errors.New("bwt: input and output buffers must not overlap")
	}
	if n == 1 {
		dst[0] = src[0]
		return 1, nil
	}

	if t.sorter == nil {
		if t.sorter, err = transform.NewDivSufSort(); err != nil {
			return 0, err
		}
	}
	t.sorter.ComputeSuffixArray(src[:n], sa[:n])

	// Assemble the column. The rotation starting at the sentinel sorts
	// first and contributes the final byte of src; the row holding the
	// original string is left out and its position becomes the primary
	// index.
	dst[0] = src[n-1]
	w := 1
	for i := 0; i < n; i++ {
		if sa[i] == 0 {
			p = i + 1
			continue
		}
		dst[w] = src[sa[i]-1]
		w++
	}
	if p < 1 || p > n {
		return 0, errors.Errorf("bwt: suffix sort produced invalid primary index %d", p)
	}
	return p, nil
}

// A Walker reconstructs a block from its transformed column, one byte per
// Next call. Exactly len(col) calls yield the original block.
type Walker struct {
	col  []byte
	next []int32
	p    int
	i    int
}

// NewWalker returns a Walker over the column col with primary index p, which
// must be in [1, len(col)]. next is scratch for the successor array and must
// hold at least len(col) entries.
func NewWalker(col []byte, next []int32, p int) *Walker {
	next = next[:len(col)]

	// Bucket the column: t[b] becomes the first position of byte b in the
	// sorted column.
	var t [257]int32
	for _, b := range col {
		t[int(b)+1]++
	}
	for i := 1; i < 256; i++ {
		t[i] += t[i-1]
	}

	// Link each column position to its successor row, restoring the shift
	// the missing sentinel row introduced.
	for i, b := range col {
		k := int32(i)
		if i >= p {
			k++
		}
		next[t[b]] = k
		t[b]++
	}

	return &Walker{col: col, next: next, p: p, i: p}
}

// Next returns the next byte of the reconstructed block. A corrupted column
// can close the successor cycle early; Next then yields zero bytes rather
// than walking out of bounds.
func (w *Walker) Next() byte {
	if w.i == 0 {
		return 0
	}
	w.i = int(w.next[w.i-1])
	j := w.i
	if j >= w.p {
		j--
	}
	return w.col[j]
}
