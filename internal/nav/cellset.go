package nav

import "math/bits"

// CellSet is a set of cell ids over one grid, bitset-backed so the
// intersection used by messy visibility is exact and cheap.
type CellSet struct {
	n     int
	words []uint64
}

func NewCellSet(cells int) *CellSet {
	return &CellSet{n: cells, words: make([]uint64, (cells+63)/64)}
}

func (s *CellSet) Add(id int) {
	if id < 0 || id >= s.n {
		return
	}
	s.words[id>>6] |= 1 << (uint(id) & 63)
}

func (s *CellSet) Contains(id int) bool {
	if id < 0 || id >= s.n {
		return false
	}
	return s.words[id>>6]&(1<<(uint(id)&63)) != 0
}

func (s *CellSet) Len() int {
	total := 0
	for _, w := range s.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// Intersect keeps only ids present in both sets.
func (s *CellSet) Intersect(other *CellSet) {
	for i := range s.words {
		s.words[i] &= other.words[i]
	}
}

func (s *CellSet) Equal(other *CellSet) bool {
	if s.n != other.n {
		return false
	}
	for i := range s.words {
		if s.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// IDs returns the member ids in ascending order.
func (s *CellSet) IDs() []int {
	ids := make([]int, 0, s.Len())
	for wi, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			ids = append(ids, wi*64+b)
			w &= w - 1
		}
	}
	return ids
}
