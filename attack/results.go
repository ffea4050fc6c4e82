package attack

import "math/big"

// ResultList is a growable list of candidate messages. Clearing only resets
// the logical size: the big integers already allocated are reused by later
// appends, so a list can be recycled across cracks without reallocating.
type ResultList struct {
	list []*big.Int // initialised slots, len(list) is the init count
	size int
}

// NewResultList creates a list with room for capacity results.
func NewResultList(capacity int) *ResultList {
	return &ResultList{list: make([]*big.Int, 0, capacity)}
}

// Append copies x to the end of the list and returns the new size.
func (l *ResultList) Append(x *big.Int) int {
	if l.size < len(l.list) {
		l.list[l.size].Set(x)
	} else {
		l.list = append(l.list, new(big.Int).Set(x))
	}
	l.size++
	return l.size
}

// Clear empties the list, retaining its storage.
func (l *ResultList) Clear() {
	l.size = 0
}

// Compactify releases storage beyond the current size and returns the size.
func (l *ResultList) Compactify() int {
	for i := l.size; i < len(l.list); i++ {
		l.list[i] = nil
	}
	l.list = append([]*big.Int(nil), l.list[:l.size]...)
	return l.size
}

// Len returns the number of results in the list.
func (l *ResultList) Len() int {
	return l.size
}

// InitCount returns the number of allocated result slots, at least Len.
func (l *ResultList) InitCount() int {
	return len(l.list)
}

// At returns the i'th result. The value is owned by the list.
func (l *ResultList) At(i int) *big.Int {
	if i < 0 || i >= l.size {
		panic("attack: result index out of range")
	}
	return l.list[i]
}

// Find returns the index of the first result equal to x.
func (l *ResultList) Find(x *big.Int) (int, bool) {
	for i := 0; i < l.size; i++ {
		if l.list[i].Cmp(x) == 0 {
			return i, true
		}
	}
	return -1, false
}

// Values returns copies of the results in order.
func (l *ResultList) Values() []*big.Int {
	out := make([]*big.Int, l.size)
	for i := range out {
		out[i] = new(big.Int).Set(l.list[i])
	}
	return out
}
