package nav

// ray tracks one boundary of a visibility cone as the sweep advances
// row-by-row away from the observer. All arithmetic is integer-exact:
// geometrically equivalent cases can never diverge through rounding.
type ray struct {
	// Horizontal and vertical components of the ray vector. diffX may be
	// negative transiently while a ray is re-anchored; diffY is never zero
	// while the sweep runs.
	diffX int
	diffY int
	// yStep starts at -1 (convergent) and increments once per row.
	yStep int
	// rounding biases the division toward conservative occlusion:
	// 0 for convergent rays, diffY-1 for divergent ones.
	rounding int
}

// border returns the horizontal reach of the ray at the current row:
// ((diffY + yStep) * diffX - rounding) / diffY.
func (r ray) border() int {
	if r.diffY == 0 {
		return 0
	}
	return ((r.diffY+r.yStep)*r.diffX - r.rounding) / r.diffY
}

func (r *ray) advance() {
	r.yStep++
}
