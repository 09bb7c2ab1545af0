package nav

// span is an inclusive horizontal run of visible walkable cells on one row.
type span struct {
	lo, hi int
}

// cone is one visibility wedge on the sweep worklist. The two rays bound it
// horizontally; cur* is the walkable segment it occupies on the row about to
// be emitted, prev* the bounds it came from.
type cone struct {
	left  ray
	right ray

	curLo, curHi, curY int
	prevLo, prevHi     int
}

// Visible computes the set of cells observable from the given observer,
// honoring its messy flags: a messy observer sees exactly the intersection
// of what each constituent cell sees, since an occluder hiding a cell from
// any one sub-position hides it from the combined observer.
func Visible(v *GridView, obs ObserverState) (*CellSet, error) {
	if err := obs.Validate(v); err != nil {
		return nil, err
	}
	cells := obs.Cells()
	out := visibleFrom(v, cells[0].X, cells[0].Y)
	for _, c := range cells[1:] {
		out.Intersect(visibleFrom(v, c.X, c.Y))
	}
	return out, nil
}

// visibleFrom runs the cone-tracing sweep from a single clean cell.
// A blocked start sees nothing.
func visibleFrom(v *GridView, startX, startY int) *CellSet {
	visible := NewCellSet(v.CellCount())
	if v.Blocked(startX, startY) {
		return visible
	}

	lanes := make([][]span, v.rows)

	rowLo, rowHi := walkableBounds(v, startX, startY)
	lanes[startY] = append(lanes[startY], span{rowLo, rowHi})

	sweep(v, startX, startY, +1, rowLo, rowHi, lanes)
	sweep(v, startX, startY, -1, rowLo, rowHi, lanes)

	for y, spans := range lanes {
		for _, s := range spans {
			for x := s.lo; x <= s.hi; x++ {
				if x >= 0 && x < v.cols {
					visible.Add(v.ID(x, y))
				}
			}
		}
	}
	return visible
}

// walkableBounds expands (x, y) to the inclusive bounds of its maximal
// walkable segment on row y.
func walkableBounds(v *GridView, x, y int) (lo, hi int) {
	lo, hi = x, x
	for lo > 0 && !v.Blocked(lo-1, y) {
		lo--
	}
	for hi < v.cols-1 && !v.Blocked(hi+1, y) {
		hi++
	}
	return lo, hi
}

// segmentsInRange returns every maximal walkable segment on row y that
// overlaps [lo, hi], in left-to-right order. Segments may extend past the
// range; the cone's rays clamp what actually becomes visible.
func segmentsInRange(v *GridView, y, lo, hi int) []span {
	var segs []span
	x := lo
	for x <= hi {
		for x <= hi && v.Blocked(x, y) {
			x++
		}
		if x > hi {
			break
		}
		segLo, segHi := walkableBounds(v, x, y)
		if segHi >= lo && segLo <= hi {
			segs = append(segs, span{segLo, segHi})
		}
		x = segHi + 1
	}
	return segs
}

// sweep scans away from the observer's row in one vertical direction,
// processing cones from an explicit worklist so splitting never recurses.
func sweep(v *GridView, startX, startY, dir, rowLo, rowHi int, lanes [][]span) {
	nextY := startY + dir
	if nextY < 0 || nextY >= v.rows {
		return
	}

	segs := segmentsInRange(v, nextY, rowLo, rowHi)
	var first *span
	for i := range segs {
		if startX >= segs[i].lo && startX <= segs[i].hi {
			first = &segs[i]
			break
		}
	}
	if first == nil {
		return
	}

	initial := cone{
		right:  ray{diffX: rowHi - startX, diffY: 1, yStep: -1},
		left:   ray{diffX: startX - rowLo, diffY: 1, yStep: -1},
		curLo:  first.lo,
		curHi:  first.hi,
		curY:   nextY,
		prevLo: rowLo,
		prevHi: rowHi,
	}

	pending := []cone{initial}
	for len(pending) > 0 {
		c := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		pending = stepCone(v, startX, startY, dir, c, lanes, pending)
	}
}

// stepCone advances one cone row-by-row until it collapses, leaves the grid,
// or finds no walkable continuation. Split-off siblings are appended to the
// worklist with the current ray state.
func stepCone(v *GridView, startX, startY, dir int, c cone, lanes [][]span, pending []cone) []cone {
	for {
		// Right boundary: advance, clamp against the previous row, and
		// re-anchor on the segment end when the ray has drifted past it.
		c.right.advance()
		borderR := startX + c.right.border()
		if borderR > c.prevHi {
			borderR = c.prevHi
		}
		if borderR >= c.curHi {
			c.right.diffX = c.curHi - startX
			c.right.diffY = dir * (c.curY - startY)
			if c.right.diffX >= 0 {
				c.right.diffY++
				c.right.yStep = -1
				c.right.rounding = 0
				borderR = c.curHi
			} else {
				c.right.yStep = 1
				c.right.diffY--
				c.right.rounding = c.right.diffY - 1
				borderR = startX + c.right.border()
			}
		} else if borderR < c.curLo {
			return pending
		}

		// Left boundary, mirrored.
		c.left.advance()
		borderL := startX - c.left.border()
		if borderL <= c.curLo {
			c.left.diffX = startX - c.curLo
			c.left.diffY = dir * (c.curY - startY)
			if c.left.diffX >= 0 {
				c.left.yStep = -1
				c.left.diffY++
				c.left.rounding = 0
				borderL = c.curLo
			} else {
				c.left.yStep = 1
				c.left.diffY--
				c.left.rounding = c.left.diffY - 1
				borderL = startX - c.left.border()
			}
		} else if borderL > c.curHi {
			return pending
		}

		// Collapsed to nothing.
		if borderR < borderL-1 {
			return pending
		}

		// Visible cells on this row: ray reach intersected with the
		// walkable segment.
		lo := max(borderL, c.curLo)
		hi := min(borderR, c.curHi)
		if c.curY < 0 || c.curY >= v.rows || lo > hi {
			return pending
		}
		lanes[c.curY] = append(lanes[c.curY], span{lo, hi})

		c.prevLo = c.curLo
		c.prevHi = c.curHi

		nextY := c.curY + dir
		if nextY < 0 || nextY >= v.rows {
			return pending
		}

		segs := segmentsInRange(v, nextY, c.curLo, c.curHi)
		if len(segs) == 0 {
			return pending
		}

		// First segment continues this cone; the rest split off and are
		// deferred with a copy of the current ray state.
		for i, seg := range segs {
			if i == 0 {
				c.curLo = seg.lo
				c.curHi = seg.hi
				c.curY = nextY
				continue
			}
			split := cone{
				left:   c.left,
				right:  c.right,
				curLo:  seg.lo,
				curHi:  seg.hi,
				curY:   nextY,
				prevLo: c.prevLo,
				prevHi: c.prevHi,
			}
			pending = append(pending, split)
		}
	}
}
