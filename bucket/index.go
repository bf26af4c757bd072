package bucket

// listKind tags where a bucket's positions live.
type listKind uint8

const (
	inline listKind = iota
	spilled
)

// list is one bucket of the inverted index. While kind is inline the
// positions occupy a fixed window of the shared flat array. Once that window
// is full they move to a private growable slice.
type list struct {
	kind  listKind
	n     int
	spill []uint32
}

// invertedIndex maps each bucket to the element positions assigned to it.
type invertedIndex struct {
	offset int
	flat   []uint32
	lists  []list
}

func newInvertedIndex(bucketCount, offset int) *invertedIndex {
	return &invertedIndex{
		offset: offset,
		flat:   make([]uint32, bucketCount*offset),
		lists:  make([]list, bucketCount),
	}
}

func (x *invertedIndex) push(b int, pos uint32) {
	l := &x.lists[b]
	switch l.kind {
	case inline:
		if l.n < x.offset {
			x.flat[b*x.offset+l.n] = pos
			l.n++
			return
		}
		// first overflow: carry the prefix over
		l.spill = make([]uint32, l.n, 2*l.n+1)
		copy(l.spill, x.window(b))
		l.kind = spilled
		fallthrough
	case spilled:
		l.spill = append(l.spill, pos)
		l.n++
	}
}

func (x *invertedIndex) window(b int) []uint32 {
	return x.flat[b*x.offset : (b+1)*x.offset]
}

// positions returns the live positions of bucket b. The slice aliases the
// index and may be rewritten in place.
func (x *invertedIndex) positions(b int) []uint32 {
	l := &x.lists[b]
	if l.kind == spilled {
		return l.spill[:l.n]
	}
	return x.window(b)[:l.n]
}

// truncate shrinks bucket b to its first n positions and moves a spilled list
// back inline once it fits.
func (x *invertedIndex) truncate(b, n int) {
	l := &x.lists[b]
	l.n = n
	if l.kind == spilled && n <= x.offset {
		copy(x.window(b), l.spill[:n])
		l.spill = nil
		l.kind = inline
	}
}

func (x *invertedIndex) len(b int) int {
	return x.lists[b].n
}
