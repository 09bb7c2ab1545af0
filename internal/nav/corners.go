package nav

import "strings"

// Direction is a bitmask of diagonal corner directions. A single cell can
// carry up to all four tags at once.
type Direction uint8

const (
	NW Direction = 1 << iota
	NE
	SW
	SE
)

func (d Direction) Has(dir Direction) bool { return d&dir != 0 }

func (d Direction) String() string {
	var parts []string
	if d.Has(NW) {
		parts = append(parts, "NW")
	}
	if d.Has(NE) {
		parts = append(parts, "NE")
	}
	if d.Has(SW) {
		parts = append(parts, "SW")
	}
	if d.Has(SE) {
		parts = append(parts, "SE")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// cardinals returns the two cardinal neighbors adjacent to a diagonal
// direction, e.g. NW -> North and West.
func (d Direction) cardinals(p Position) (a, b Position) {
	switch d {
	case NW:
		return Position{p.X, p.Y - 1}, Position{p.X - 1, p.Y}
	case NE:
		return Position{p.X, p.Y - 1}, Position{p.X + 1, p.Y}
	case SW:
		return Position{p.X, p.Y + 1}, Position{p.X - 1, p.Y}
	default: // SE
		return Position{p.X, p.Y + 1}, Position{p.X + 1, p.Y}
	}
}

// diagonal returns the diagonal neighbor in direction d.
func (d Direction) diagonal(p Position) Position {
	switch d {
	case NW:
		return Position{p.X - 1, p.Y - 1}
	case NE:
		return Position{p.X + 1, p.Y - 1}
	case SW:
		return Position{p.X - 1, p.Y + 1}
	default: // SE
		return Position{p.X + 1, p.Y + 1}
	}
}

var allDirections = []Direction{NW, NE, SW, SE}

// Corner is a structural fact about the grid at one revision: a free cell
// around which travel can pivot between a vertical and a horizontal
// direction. It does not depend on any observer.
type Corner struct {
	Pos  Position
	Dirs Direction
}

// DetectAll scans the grid for corners. A free cell is a corner in
// direction D when both cardinal neighbors adjacent to D are free and the
// diagonal neighbor in D is blocked (off-grid counts as blocked).
func DetectAll(v *GridView) []Corner {
	var corners []Corner
	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.cols; x++ {
			if v.Blocked(x, y) {
				continue
			}
			p := Position{x, y}
			var dirs Direction
			for _, d := range allDirections {
				a, b := d.cardinals(p)
				diag := d.diagonal(p)
				if !v.Blocked(a.X, a.Y) && !v.Blocked(b.X, b.Y) && v.Blocked(diag.X, diag.Y) {
					dirs |= d
				}
			}
			if dirs != 0 {
				corners = append(corners, Corner{Pos: p, Dirs: dirs})
			}
		}
	}
	return corners
}

// Interesting narrows corners to the ones worth routing through for a given
// observer: visible corners that open onto at least one cardinal neighbor
// the observer cannot see. If both cardinals of every tagged direction are
// already visible the corner offers nothing new.
//
// The observer's own cell, if it is a corner, is always interesting: it
// represents the need to step around itself.
//
// messyX is accepted so every call site states the observer's messy context
// explicitly; the structural rule itself does not depend on it.
func Interesting(all []Corner, visible *CellSet, v *GridView, obsX, obsY int, messyX bool) []Corner {
	_ = messyX
	var out []Corner
	for _, c := range all {
		if !visible.Contains(v.ID(c.Pos.X, c.Pos.Y)) {
			continue
		}
		if c.Pos.X == obsX && c.Pos.Y == obsY {
			out = append(out, c)
			continue
		}
		if opensHiddenArea(c, visible, v) {
			out = append(out, c)
		}
	}
	return out
}

// opensHiddenArea reports whether some tagged direction of the corner has a
// cardinal neighbor that is not visible. Blocked and off-grid neighbors
// count as not visible.
func opensHiddenArea(c Corner, visible *CellSet, v *GridView) bool {
	for _, d := range allDirections {
		if !c.Dirs.Has(d) {
			continue
		}
		a, b := d.cardinals(c.Pos)
		if !cardinalVisible(a, visible, v) || !cardinalVisible(b, visible, v) {
			return true
		}
	}
	return false
}

func cardinalVisible(p Position, visible *CellSet, v *GridView) bool {
	if !v.InBounds(p.X, p.Y) || v.Blocked(p.X, p.Y) {
		return false
	}
	return visible.Contains(v.ID(p.X, p.Y))
}
