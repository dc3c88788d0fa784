package entities

// DisplayIndex maps 1-based numbers shown to the user to storage positions.
//
// A nil index means nothing was ever listed and numbers address storage positions
// directly. An empty non-nil index means the last listing was invalidated by a
// mutation and every number is rejected until the user lists again.
type DisplayIndex map[int]int

// BuildDisplayIndex numbers the rendered tasks 1..N in the order given.
// positionOf resolves each task back to its storage position.
func BuildDisplayIndex(rendered []Task, positionOf func(id string) int) DisplayIndex {
	idx := make(DisplayIndex, len(rendered))
	for i := range rendered {
		if pos := positionOf(rendered[i].ID); pos >= 0 {
			idx[i+1] = pos
		}
	}
	return idx
}

// Resolve returns the storage position for number n.
func (d DisplayIndex) Resolve(n int) (int, bool) {
	if n < 1 {
		return 0, false
	}
	if d == nil {
		return n - 1, true
	}
	pos, ok := d[n]
	return pos, ok
}

// Invalidate clears the index after a mutation that reorders or resizes the collection.
func (r *UserRecord) Invalidate() {
	r.IndexMap = DisplayIndex{}
}
