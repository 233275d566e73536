package sfdc

import (
	"container/heap"
	"sort"

	"golang.org/x/exp/constraints"
)

// Symbol is the constraint SFDC requires of its alphabet: a totally ordered,
// comparable type, usable both as a map key (for the encode-side lookup) and
// as a sort key for the deterministic tie-break when counts collide.
type Symbol interface {
	constraints.Ordered
}

// none marks an absent parent/left/right reference in the node pool. The
// pool is an arena addressed by index rather than a pointer tree: it keeps
// the tree compact, lets the priority queue hold plain ints, and makes the
// whole structure trivially copyable.
const none = -1

// huffmanNode is one entry in a huffmanTree's pool. Internal nodes have both
// left and right populated; leaves have neither.
type huffmanNode[T Symbol] struct {
	count     int
	symbol    T
	hasSymbol bool
	index     int
	parent    int
	left      int
	right     int
}

func (n *huffmanNode[T]) isLeaf() bool {
	return n.left == none && n.right == none
}

type huffmanTree[T Symbol] struct {
	pool    []huffmanNode[T]
	root    int
	symbols map[T]int // symbol -> leaf index
}

// nodeHeap is a container/heap min-heap over pool indices, ordered by
// (count ascending, index ascending). The index tie-break is what makes
// construction deterministic when counts collide; without it, two builds
// over equal input could walk different trees.
type nodeHeap[T Symbol] struct {
	tree *huffmanTree[T]
	idx  []int
}

func (h nodeHeap[T]) Len() int { return len(h.idx) }

func (h nodeHeap[T]) Less(i, j int) bool {
	ni, nj := &h.tree.pool[h.idx[i]], &h.tree.pool[h.idx[j]]
	if ni.count != nj.count {
		return ni.count < nj.count
	}
	return ni.index < nj.index
}

func (h nodeHeap[T]) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }

func (h *nodeHeap[T]) Push(x any) {
	h.idx = append(h.idx, x.(int))
}

func (h *nodeHeap[T]) Pop() any {
	old := h.idx
	n := len(old)
	item := old[n-1]
	h.idx = old[:n-1]
	return item
}

// buildHuffmanTree counts occurrences of every distinct symbol in input and
// builds a canonical Huffman tree over them. input must be non-empty; the
// caller (New) is responsible for rejecting the empty case.
func buildHuffmanTree[T Symbol](input []T) *huffmanTree[T] {
	counts := make(map[T]int)
	distinct := make([]T, 0, 16)
	for _, s := range input {
		if _, ok := counts[s]; !ok {
			distinct = append(distinct, s)
		}
		counts[s]++
	}

	// Seed the pool: sort leaves by (count ascending, symbol ascending) and
	// assign index by sorted position. This stable tie-break keeps two
	// builds over equal input identical.
	sort.Slice(distinct, func(i, j int) bool {
		ci, cj := counts[distinct[i]], counts[distinct[j]]
		if ci != cj {
			return ci < cj
		}
		return distinct[i] < distinct[j]
	})

	tree := &huffmanTree[T]{
		pool:    make([]huffmanNode[T], 0, 2*len(distinct)-1),
		symbols: make(map[T]int, len(distinct)),
	}

	h := nodeHeap[T]{tree: tree, idx: make([]int, 0, len(distinct))}
	for i, s := range distinct {
		tree.pool = append(tree.pool, huffmanNode[T]{
			count:     counts[s],
			symbol:    s,
			hasSymbol: true,
			index:     i,
			parent:    none,
			left:      none,
			right:     none,
		})
		tree.symbols[s] = i
		h.idx = append(h.idx, i)
	}
	heap.Init(&h)

	// Combine the two smallest subtrees repeatedly until one remains.
	for h.Len() > 1 {
		n1 := heap.Pop(&h).(int)
		n2 := heap.Pop(&h).(int)

		p := huffmanNode[T]{
			count:  tree.pool[n1].count + tree.pool[n2].count,
			parent: none,
			left:   n1,
			right:  n2,
			index:  len(tree.pool),
		}

		tree.pool[n1].parent = p.index
		tree.pool[n2].parent = p.index
		tree.pool = append(tree.pool, p)
		heap.Push(&h, p.index)
	}

	tree.root = h.idx[0]
	return tree
}

// code returns the codeword for sym: the root-to-leaf path read "1" on a
// left step and "0" on a right step, reversed so the first bit emitted is
// the one closest to the root.
//
// A tree with a single distinct symbol is degenerate: the leaf is the root,
// and there is no path to walk. Its codeword is defined to be the single
// bit 1, so an encoder still emits one bit per occurrence; the decoder
// never needs to read it back, since it resolves a leaf root before
// consulting any layer.
func (t *huffmanTree[T]) code(sym T) []byte {
	leaf, ok := t.symbols[sym]
	if !ok {
		panic("sfdc: symbol not present in tree")
	}
	if leaf == t.root {
		return []byte{1}
	}

	bits := make([]byte, 0, 8)
	idx := leaf
	for idx != t.root {
		parent := t.pool[idx].parent
		if t.pool[parent].left == idx {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
		idx = parent
	}

	for i, j := 0, len(bits)-1; i < j; i, j = i+1, j-1 {
		bits[i], bits[j] = bits[j], bits[i]
	}
	return bits
}

// maxCodeLength returns the length of the longest codeword in the tree,
// i.e. the depth of its deepest leaf. For a degenerate single-leaf tree
// this is 1, matching the single-bit codeword defined for that case, not
// the leaf's actual tree depth of 0.
func (t *huffmanTree[T]) maxCodeLength() int {
	type frame struct {
		idx, depth int
	}

	stack := []frame{{t.root, 0}}
	max := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &t.pool[cur.idx]
		if node.isLeaf() {
			if cur.depth > max {
				max = cur.depth
			}
			continue
		}

		stack = append(stack,
			frame{node.left, cur.depth + 1},
			frame{node.right, cur.depth + 1},
		)
	}

	if max == 0 {
		return 1
	}
	return max
}
