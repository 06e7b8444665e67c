// Copyright (c) 2024 The Elang Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package utils

// BitMap is a fixed-size set of small integers, indexed by block id or
// virtual register number. Dominator sets and liveness vectors intersect
// and unite whole maps far more often than they test single bits, so the
// backing store is word-sized.
type BitMap struct {
	words []uint64
	size  int
}

func NewBitMap(size int) *BitMap {
	return &BitMap{
		words: make([]uint64, (size+63)/64),
		size:  size,
	}
}

func (bm *BitMap) Size() int {
	return bm.size
}

func (bm *BitMap) Set(i int) {
	bm.words[i/64] |= 1 << uint(i%64)
}

func (bm *BitMap) IsSet(i int) bool {
	return bm.words[i/64]&(1<<uint(i%64)) != 0
}

// Unite adds every member of o, reporting whether the set grew.
func (bm *BitMap) Unite(o *BitMap) bool {
	Assert(bm.size == o.size, "sanity check")
	changed := false
	for i, w := range o.words {
		nw := bm.words[i] | w
		if nw != bm.words[i] {
			bm.words[i] = nw
			changed = true
		}
	}
	return changed
}

// Intersect drops members absent from o, reporting whether the set shrank.
func (bm *BitMap) Intersect(o *BitMap) bool {
	Assert(bm.size == o.size, "sanity check")
	changed := false
	for i, w := range o.words {
		nw := bm.words[i] & w
		if nw != bm.words[i] {
			bm.words[i] = nw
			changed = true
		}
	}
	return changed
}

// Remove drops every member of o, reporting whether the set shrank.
func (bm *BitMap) Remove(o *BitMap) bool {
	Assert(bm.size == o.size, "sanity check")
	changed := false
	for i, w := range o.words {
		nw := bm.words[i] &^ w
		if nw != bm.words[i] {
			bm.words[i] = nw
			changed = true
		}
	}
	return changed
}

// SetFrom overwrites this set with o, reporting whether anything changed.
func (bm *BitMap) SetFrom(o *BitMap) bool {
	Assert(bm.size == o.size, "sanity check")
	changed := false
	for i, w := range o.words {
		if w != bm.words[i] {
			bm.words[i] = w
			changed = true
		}
	}
	return changed
}

func (bm *BitMap) Copy() *BitMap {
	words := make([]uint64, len(bm.words))
	copy(words, bm.words)
	return &BitMap{
		words: words,
		size:  bm.size,
	}
}

// ForEach calls f with every member in ascending order.
func (bm *BitMap) ForEach(f func(int)) {
	for wi, w := range bm.words {
		for w != 0 {
			bit := 0
			for w&(1<<uint(bit)) == 0 {
				bit++
			}
			w &^= 1 << uint(bit)
			i := wi*64 + bit
			if i < bm.size {
				f(i)
			}
		}
	}
}
