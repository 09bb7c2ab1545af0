package nav

import "testing"

func cornerAt(t *testing.T, corners []Corner, x, y int) Corner {
	t.Helper()
	for _, c := range corners {
		if c.Pos.X == x && c.Pos.Y == y {
			return c
		}
	}
	t.Fatalf("no corner at (%d,%d); have %v", x, y, corners)
	return Corner{}
}

func hasCornerAt(corners []Corner, x, y int) bool {
	for _, c := range corners {
		if c.Pos.X == x && c.Pos.Y == y {
			return true
		}
	}
	return false
}

func TestDetectAll_SingleBlock(t *testing.T) {
	// 4x4 grid, one block at (2,2): exactly four corners, one per diagonal
	// of the block.
	v := GridWithBlocked(4, 4, []int{10}).Snapshot()
	corners := DetectAll(v)

	if len(corners) != 4 {
		t.Fatalf("corner count = %d, want 4: %v", len(corners), corners)
	}
	want := []struct {
		x, y int
		dirs Direction
	}{
		{1, 1, SE},
		{3, 1, SW},
		{1, 3, NE},
		{3, 3, NW},
	}
	for _, w := range want {
		c := cornerAt(t, corners, w.x, w.y)
		if c.Dirs != w.dirs {
			t.Fatalf("corner (%d,%d) dirs = %v, want %v", w.x, w.y, c.Dirs, w.dirs)
		}
	}
}

func TestDetectAll_TwoBlockWall(t *testing.T) {
	// 3 rows x 4 cols, blocks at (2,1) and (3,1): travel can only pivot at
	// (1,0) and (1,2).
	v := GridWithBlocked(3, 4, []int{6, 7}).Snapshot()
	corners := DetectAll(v)

	if len(corners) != 2 {
		t.Fatalf("corner count = %d, want 2: %v", len(corners), corners)
	}
	if c := cornerAt(t, corners, 1, 0); c.Dirs != SE {
		t.Fatalf("corner (1,0) dirs = %v, want SE", c.Dirs)
	}
	if c := cornerAt(t, corners, 1, 2); c.Dirs != NE {
		t.Fatalf("corner (1,2) dirs = %v, want NE", c.Dirs)
	}
}

func TestDetectAll_AllFourDirections(t *testing.T) {
	// Diagonal blocks around the center make it a corner in all four
	// directions at once.
	v := GridWithBlocked(3, 3, []int{0, 2, 6, 8}).Snapshot()
	corners := DetectAll(v)

	c := cornerAt(t, corners, 1, 1)
	if c.Dirs != NW|NE|SW|SE {
		t.Fatalf("center dirs = %v, want all four", c.Dirs)
	}
}

func TestDetectAll_EmptyGridHasNoCorners(t *testing.T) {
	v := NewGrid(5, 5).Snapshot()
	if corners := DetectAll(v); len(corners) != 0 {
		t.Fatalf("empty grid corners = %v, want none", corners)
	}
}

func TestInteresting_HiddenCardinalRule(t *testing.T) {
	v := GridWithBlocked(4, 4, []int{10}).Snapshot()
	all := []Corner{{Pos: Position{1, 1}, Dirs: SE}}

	// Cardinals of the SE tag at (1,1) are (1,2) and (2,1).
	full := NewCellSet(v.CellCount())
	for _, id := range []int{v.ID(1, 1), v.ID(1, 2), v.ID(2, 1)} {
		full.Add(id)
	}
	if got := Interesting(all, full, v, 0, 0, false); len(got) != 0 {
		t.Fatalf("corner with both cardinals visible should not be interesting, got %v", got)
	}

	partial := NewCellSet(v.CellCount())
	partial.Add(v.ID(1, 1))
	partial.Add(v.ID(2, 1))
	got := Interesting(all, partial, v, 0, 0, false)
	if len(got) != 1 || got[0].Pos != (Position{1, 1}) {
		t.Fatalf("corner with a hidden cardinal should be interesting, got %v", got)
	}

	hidden := NewCellSet(v.CellCount())
	if got := Interesting(all, hidden, v, 0, 0, false); len(got) != 0 {
		t.Fatalf("invisible corner should never be interesting, got %v", got)
	}
}

func TestInteresting_ObserverOwnCellAlwaysCounts(t *testing.T) {
	v := GridWithBlocked(4, 4, []int{10}).Snapshot()
	all := []Corner{{Pos: Position{1, 1}, Dirs: SE}}

	// Both cardinals visible, which would normally disqualify the corner,
	// but the observer stands on it and must be able to step around itself.
	full := NewCellSet(v.CellCount())
	for _, id := range []int{v.ID(1, 1), v.ID(1, 2), v.ID(2, 1)} {
		full.Add(id)
	}
	got := Interesting(all, full, v, 1, 1, false)
	if len(got) != 1 || got[0].Pos != (Position{1, 1}) {
		t.Fatalf("observer's own corner cell should be interesting, got %v", got)
	}
}

func TestInteresting_FromRealVisibility(t *testing.T) {
	// Observer on (1,1) of the 4x4 single-block grid: it sees rows 0-1
	// fully and only x<=1 of rows 2-3, so (3,3) is dark, and both visible
	// far corners open onto hidden cardinals.
	v := GridWithBlocked(4, 4, []int{10}).Snapshot()
	all := DetectAll(v)
	visible := mustVisible(t, v, ObserverState{Pos: Position{1, 1}})

	got := Interesting(all, visible, v, 1, 1, false)
	if len(got) != 3 {
		t.Fatalf("interesting corners = %v, want (1,1) (3,1) (1,3)", got)
	}
	for _, want := range []Position{{1, 1}, {3, 1}, {1, 3}} {
		if !hasCornerAt(got, want.X, want.Y) {
			t.Fatalf("missing interesting corner %v in %v", want, got)
		}
	}
	if hasCornerAt(got, 3, 3) {
		t.Fatalf("(3,3) is not visible from (1,1) and must not be interesting")
	}
}
