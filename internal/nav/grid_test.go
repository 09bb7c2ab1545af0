package nav

import "testing"

func TestGrid_RevisionBumpsOnlyOnChange(t *testing.T) {
	g := NewGrid(4, 4)
	if got := g.Revision(); got != 0 {
		t.Fatalf("fresh grid revision = %d, want 0", got)
	}

	g.SetBlocked(1, 1, true)
	if got := g.Revision(); got != 1 {
		t.Fatalf("revision after edit = %d, want 1", got)
	}

	// Writing the same value is not an edit.
	g.SetBlocked(1, 1, true)
	if got := g.Revision(); got != 1 {
		t.Fatalf("revision after no-op write = %d, want 1", got)
	}

	g.SetBlocked(1, 1, false)
	g.Toggle(2, 2)
	if got := g.Revision(); got != 3 {
		t.Fatalf("revision after two more edits = %d, want 3", got)
	}
}

func TestGrid_SnapshotIsImmutable(t *testing.T) {
	g := GridWithBlocked(3, 3, []int{4})
	view := g.Snapshot()

	g.SetBlocked(0, 0, true)

	if view.Blocked(0, 0) {
		t.Fatalf("snapshot observed an edit made after it was taken")
	}
	if !view.Blocked(1, 1) {
		t.Fatalf("snapshot lost cell (1,1)")
	}
	if view.Revision() == g.Revision() {
		t.Fatalf("snapshot revision should lag the edited grid")
	}
}

func TestGridView_OutOfBoundsIsBlocked(t *testing.T) {
	v := NewGrid(3, 3).Snapshot()
	for _, p := range []Position{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {-1, -1}, {3, 3}} {
		if !v.Blocked(p.X, p.Y) {
			t.Fatalf("out-of-bounds %v should read as blocked", p)
		}
	}
}

func TestGridView_IDRoundTrip(t *testing.T) {
	v := NewGrid(5, 7).Snapshot()
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			id := v.ID(x, y)
			gx, gy := v.Coords(id)
			if gx != x || gy != y {
				t.Fatalf("id round trip (%d,%d) -> %d -> (%d,%d)", x, y, id, gx, gy)
			}
		}
	}
}

func TestGrid_BlockedIDs(t *testing.T) {
	g := GridWithBlocked(4, 4, []int{3, 7, 7, 99})
	ids := g.Snapshot().BlockedIDs()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("BlockedIDs = %v, want [3 7]", ids)
	}
}
