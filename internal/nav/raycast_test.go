package nav

import (
	"errors"
	"testing"
)

// wallGrid is a 10x10 grid split by a vertical wall at x=5 covering
// y=0..8, with a single gap at (5,9).
func wallGrid() *Grid {
	var blocked []int
	for y := 0; y <= 8; y++ {
		blocked = append(blocked, 5+y*10)
	}
	return GridWithBlocked(10, 10, blocked)
}

func mustVisible(t *testing.T, v *GridView, obs ObserverState) *CellSet {
	t.Helper()
	set, err := Visible(v, obs)
	if err != nil {
		t.Fatalf("Visible(%v): %v", obs.Pos, err)
	}
	return set
}

func TestVisible_EmptyGridSeesEverything(t *testing.T) {
	v := NewGrid(10, 10).Snapshot()
	set := mustVisible(t, v, ObserverState{Pos: Position{5, 5}})
	if got := set.Len(); got != 100 {
		t.Fatalf("visible cells = %d, want 100", got)
	}
}

func TestVisible_BlockedStartSeesNothing(t *testing.T) {
	v := GridWithBlocked(10, 10, []int{55}).Snapshot()
	set := mustVisible(t, v, ObserverState{Pos: Position{5, 5}})
	if got := set.Len(); got != 0 {
		t.Fatalf("visible cells from blocked start = %d, want 0", got)
	}
}

func TestVisible_WallConfinesSight(t *testing.T) {
	v := wallGrid().Snapshot()
	set := mustVisible(t, v, ObserverState{Pos: Position{0, 5}})

	// The wall and everything behind it stays dark; the observer's whole
	// side is open.
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := x <= 4
			if got := set.Contains(v.ID(x, y)); got != want {
				t.Fatalf("visibility of (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestVisible_Reciprocity(t *testing.T) {
	grids := map[string]*Grid{
		"wall":         wallGrid(),
		"single_block": GridWithBlocked(7, 7, []int{24}), // (3,3)
		"two_blocks":   GridWithBlocked(3, 4, []int{6, 7}),
	}
	for name, g := range grids {
		v := g.Snapshot()
		sets := make([]*CellSet, v.CellCount())
		for id := 0; id < v.CellCount(); id++ {
			if v.BlockedID(id) {
				continue
			}
			x, y := v.Coords(id)
			sets[id] = mustVisible(t, v, ObserverState{Pos: Position{x, y}})
		}
		for a := 0; a < v.CellCount(); a++ {
			if sets[a] == nil {
				continue
			}
			for b := a + 1; b < v.CellCount(); b++ {
				if sets[b] == nil {
					continue
				}
				if sets[a].Contains(b) != sets[b].Contains(a) {
					t.Fatalf("%s: visibility between %d and %d is not reciprocal", name, a, b)
				}
			}
		}
	}
}

func TestVisible_MessyIsIntersection(t *testing.T) {
	v := wallGrid().Snapshot()

	cases := []ObserverState{
		{Pos: Position{2, 5}, MessyX: true},
		{Pos: Position{2, 5}, MessyY: true},
		{Pos: Position{2, 5}, MessyX: true, MessyY: true},
		{Pos: Position{3, 8}, MessyX: true, MessyY: true},
	}
	for _, obs := range cases {
		got := mustVisible(t, v, obs)

		want := mustVisible(t, v, ObserverState{Pos: obs.Cells()[0]})
		for _, c := range obs.Cells()[1:] {
			want.Intersect(mustVisible(t, v, ObserverState{Pos: c}))
		}
		if !got.Equal(want) {
			t.Fatalf("messy visibility for %+v is not the constituent intersection", obs)
		}

		// The combined observer never sees more than its anchor alone.
		anchor := mustVisible(t, v, ObserverState{Pos: obs.Pos})
		for _, id := range got.IDs() {
			if !anchor.Contains(id) {
				t.Fatalf("messy observer %+v sees %d which its anchor cannot", obs, id)
			}
		}
	}
}

func TestVisible_CleanEqualsOwnIntersection(t *testing.T) {
	v := wallGrid().Snapshot()
	a := mustVisible(t, v, ObserverState{Pos: Position{1, 2}})
	b := mustVisible(t, v, ObserverState{Pos: Position{1, 2}})
	b.Intersect(a)
	if !a.Equal(b) {
		t.Fatalf("clean visibility should be a fixed point of intersection")
	}
}

func TestVisible_MessySpanPrecondition(t *testing.T) {
	v := NewGrid(6, 6).Snapshot()
	cases := []ObserverState{
		{Pos: Position{5, 2}, MessyX: true},
		{Pos: Position{2, 5}, MessyY: true},
		{Pos: Position{5, 5}, MessyX: true, MessyY: true},
	}
	for _, obs := range cases {
		if _, err := Visible(v, obs); !errors.Is(err, ErrMessySpan) {
			t.Fatalf("Visible(%+v) err = %v, want ErrMessySpan", obs, err)
		}
	}

	if _, err := Visible(v, ObserverState{Pos: Position{6, 0}}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out-of-bounds observer err = %v, want ErrOutOfBounds", err)
	}
}
