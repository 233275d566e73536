// Package sfdc implements Stratified Fixed/Dynamic Coding: a compact
// in-memory codec for a finite symbol sequence that supports random-access
// decoding of any single position, or any contiguous range, without
// decoding the whole sequence.
//
// A canonical Huffman-style prefix code is computed over the input, and the
// resulting codewords are stored not concatenated end-to-end but
// stratified by bit position into L parallel fixed layers plus one dynamic
// overflow layer, so that reading the symbol at index i costs at most one
// bit read per fixed layer plus a small amount of overflow bookkeeping.
//
// This is not a streaming compressor: it does not minimize total bits, and
// it is not resilient to corrupt input. It is meant for in-memory
// acceleration of point and range lookups into frequency-skewed sequences
// that are built once and read many times.
package sfdc

import (
	"fmt"
	"io"
)

// Codec is an immutable, stratified encoding of a symbol sequence. It is
// built once by New (or a variant) and is safe for concurrent readers
// afterward: every query touches only immutable memory.
type Codec[T Symbol] struct {
	n       int
	tree    *huffmanTree[T]
	fixed   []fixedLayer
	dynamic *dynamicLayer
}

// New builds a Codec over symbols using up to layers fixed bit-layers.
//
// layers is clamped up to 2 if the caller passes 0 or 1, and capped down to
// the tree's longest codeword so no fixed layer is allocated that no
// codeword could ever reach (see DESIGN.md for why the floor is re-applied
// after the cap). The only error is an empty symbols slice.
func New[T Symbol](symbols []T, layers int) (*Codec[T], error) {
	return newCodec(symbols, layers, nil)
}

// NewBytes is the byte-alphabet convenience constructor matching the
// reference profile: an 8-bit octet sequence.
func NewBytes(symbols []byte, layers int) (*Codec[byte], error) {
	return New(symbols, layers)
}

// NewWithDiagnostics is New, plus a written summary of the tree shape and
// layer sizing to w (distinct symbol count, longest codeword, and
// per-layer bit/byte counts). w may be nil, in which case this behaves
// exactly like New.
func NewWithDiagnostics[T Symbol](symbols []T, layers int, w io.Writer) (*Codec[T], error) {
	return newCodec(symbols, layers, w)
}

func newCodec[T Symbol](symbols []T, layers int, w io.Writer) (*Codec[T], error) {
	n := len(symbols)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	tree := buildHuffmanTree(symbols)
	maxCodeLen := tree.maxCodeLength()

	L := layers
	if L < 2 {
		L = 2
	}
	if L > maxCodeLen {
		L = maxCodeLen
	}
	if L < 2 {
		// Re-apply the floor: a degenerate single-symbol tree has
		// maxCodeLen == 1, and the store's layer count must never drop
		// below 2 regardless of how the cap above landed.
		L = 2
	}

	c := &Codec[T]{n: n, tree: tree}
	c.fixed = make([]fixedLayer, L)
	for j := range c.fixed {
		c.fixed[j] = newFixedLayer(n)
	}
	c.dynamic = newDynamicLayer(n)

	c.encode(symbols)

	if w != nil {
		c.writeDiagnostics(w, maxCodeLen)
	}

	return c, nil
}

// encode populates the fixed and dynamic layers from symbols. Preconditions
// (held by newCodec): the fixed layers and dynamic layer are already
// allocated and zeroed to length n.
func (c *Codec[T]) encode(symbols []T) {
	codes := make(map[T][]byte, len(c.tree.symbols))
	for s := range c.tree.symbols {
		codes[s] = c.tree.code(s)
	}

	L := len(c.fixed)
	var pending dynamicLayer // transient overflow stack; push/pop only

	for i, s := range symbols {
		code := codes[s]
		m := len(code)

		f := m
		if f > L {
			f = L
		}
		for j := 0; j < f; j++ {
			c.fixed[j].set(i, code[j])
		}

		// Overflow push: the last overflow bit produced ends up at the
		// bottom of pending, so the first overflow bit (index L) ends up
		// on top and is the next one committed to the dynamic layer.
		if m > L {
			for j := m - 1; j >= L; j-- {
				pending.push(code[j])
			}
		}

		if b, ok := pending.pop(); ok {
			c.dynamic.set(i, b)
		}
	}

	for {
		b, ok := pending.pop()
		if !ok {
			break
		}
		c.dynamic.push(b)
	}
}

// Len returns the number of symbols in the encoded sequence.
func (c *Codec[T]) Len() int {
	return c.n
}

// pendingDescent is an internal node whose fixed-layer descent ran out of
// layers before reaching a leaf, parked for a dynamic-layer bit at column.
type pendingDescent struct {
	node   int
	column int
}

// DecodeOne returns the symbol at index i. Out-of-range i clamps to the
// last valid index.
func (c *Codec[T]) DecodeOne(i int) T {
	return c.DecodeRange(i, i)[0]
}

// DecodeRange returns the symbols at indices start..end, inclusive. Both
// bounds clamp to the last valid index; in particular a range with both
// bounds >= Len() returns a single-element slice holding the last symbol.
func (c *Codec[T]) DecodeRange(start, end int) []T {
	n := c.n
	if start >= n {
		start = n - 1
	}
	if end >= n {
		end = n - 1
	}

	expected := end - start + 1
	if expected < 1 {
		expected = 1
	}

	result := make([]T, expected)
	found := 0

	var pending []pendingDescent
	L := len(c.fixed)

	for k := start; found < expected; k++ {
		if k < n {
			cur := c.tree.root
			h := 0
			for h < L && !c.tree.pool[cur].isLeaf() {
				if c.fixed[h].get(k) == 1 {
					cur = c.tree.pool[cur].left
				} else {
					cur = c.tree.pool[cur].right
				}
				h++
			}

			if c.tree.pool[cur].isLeaf() {
				if k <= end {
					result[k-start] = c.tree.pool[cur].symbol
					found++
				}
			} else {
				pending = append(pending, pendingDescent{node: cur, column: k})
			}
		}

		if len(pending) > 0 {
			top := pending[len(pending)-1]
			pending = pending[:len(pending)-1]

			cur := top.node
			if c.dynamic.get(k) == 1 {
				cur = c.tree.pool[cur].left
			} else {
				cur = c.tree.pool[cur].right
			}

			if c.tree.pool[cur].isLeaf() {
				if top.column <= end {
					result[top.column-start] = c.tree.pool[cur].symbol
					found++
				}
			} else {
				pending = append(pending, pendingDescent{node: cur, column: top.column})
			}
		}
	}

	return result
}

func (c *Codec[T]) writeDiagnostics(w io.Writer, maxCodeLen int) {
	fmt.Fprintf(w, "input length         %d\n", c.n)
	fmt.Fprintf(w, "distinct symbols     %d\n", len(c.tree.symbols))
	fmt.Fprintf(w, "longest codeword     %d bits\n", maxCodeLen)
	fmt.Fprintf(w, "fixed layers         %d\n", len(c.fixed))
	fmt.Fprintf(w, "fixed layer size     %d bytes each\n", wordsFor(c.n)*8)
	fmt.Fprintf(w, "dynamic layer        %d bits (%d overflow)\n", c.dynamic.len(), c.dynamic.len()-c.n)
}
