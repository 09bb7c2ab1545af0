package nav

import "sync"

// Grid is the mutable obstacle map owned by the surrounding application.
// Every edit that actually changes a cell bumps the revision counter.
//
// Queries never read a Grid directly: they call Snapshot and work against
// the returned GridView, so a single query observes one fixed revision
// start-to-finish even while edits land concurrently.
type Grid struct {
	mu     sync.Mutex
	rows   int
	cols   int
	cells  []bool // true = blocked
	rev    uint64
	shared bool // cells is referenced by at least one snapshot
}

// NewGrid returns an all-free grid.
func NewGrid(rows, cols int) *Grid {
	if rows < 1 || cols < 1 {
		panic("nav: grid dimensions must be positive")
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]bool, rows*cols),
	}
}

// GridWithBlocked returns a grid with the given cell ids blocked.
// Ids outside the grid are ignored.
func GridWithBlocked(rows, cols int, blocked []int) *Grid {
	g := NewGrid(rows, cols)
	for _, id := range blocked {
		if id >= 0 && id < rows*cols {
			g.cells[id] = true
		}
	}
	return g
}

func (g *Grid) Dimensions() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) Revision() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rev
}

// SetBlocked sets the cell at (x, y). Out-of-bounds writes are ignored.
// The revision is bumped only when the cell value changes.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := x + y*g.cols
	if g.cells[id] == blocked {
		return
	}
	g.mutate()
	g.cells[id] = blocked
	g.rev++
}

// Toggle flips the cell at (x, y).
func (g *Grid) Toggle(x, y int) {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := x + y*g.cols
	g.mutate()
	g.cells[id] = !g.cells[id]
	g.rev++
}

// mutate makes cells safe to write while snapshots still reference the old
// slice. Callers must hold g.mu.
func (g *Grid) mutate() {
	if !g.shared {
		return
	}
	next := make([]bool, len(g.cells))
	copy(next, g.cells)
	g.cells = next
	g.shared = false
}

// Snapshot captures an immutable view of the grid at its current revision.
func (g *Grid) Snapshot() *GridView {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shared = true
	return &GridView{rows: g.rows, cols: g.cols, cells: g.cells, rev: g.rev}
}

// GridView is a read-only grid frozen at one revision.
type GridView struct {
	rows  int
	cols  int
	cells []bool
	rev   uint64
}

func (v *GridView) Rows() int        { return v.rows }
func (v *GridView) Cols() int        { return v.cols }
func (v *GridView) Revision() uint64 { return v.rev }
func (v *GridView) CellCount() int   { return v.rows * v.cols }

func (v *GridView) InBounds(x, y int) bool {
	return x >= 0 && x < v.cols && y >= 0 && y < v.rows
}

// Blocked reports whether (x, y) is blocked. Out of bounds counts as blocked.
func (v *GridView) Blocked(x, y int) bool {
	if !v.InBounds(x, y) {
		return true
	}
	return v.cells[x+y*v.cols]
}

func (v *GridView) BlockedID(id int) bool {
	if id < 0 || id >= len(v.cells) {
		return true
	}
	return v.cells[id]
}

// ID converts coordinates to a cell id. Callers must pass in-bounds coords.
func (v *GridView) ID(x, y int) int {
	return x + y*v.cols
}

func (v *GridView) Coords(id int) (x, y int) {
	return id % v.cols, id / v.cols
}

// BlockedIDs returns all blocked cell ids in ascending order.
func (v *GridView) BlockedIDs() []int {
	var ids []int
	for id, b := range v.cells {
		if b {
			ids = append(ids, id)
		}
	}
	return ids
}
