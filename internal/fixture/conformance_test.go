package fixture_test

import (
	"testing"

	"gridnav.ai/internal/fixture"
	"gridnav.ai/internal/nav"
)

// Every fixture is checked as exported plus its three mirrored variants;
// the engine's output must not depend on grid orientation.
func TestFixtures_Conformance(t *testing.T) {
	fixtures, err := fixture.LoadDir("testdata")
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) == 0 {
		t.Fatal("no fixtures in testdata")
	}

	for _, f := range fixtures {
		for _, variant := range []fixture.Fixture{f, f.FlipH(), f.FlipV(), f.FlipBoth()} {
			variant := variant
			t.Run(variant.TestName, func(t *testing.T) {
				runFixture(t, variant)
			})
		}
	}
}

func runFixture(t *testing.T, f fixture.Fixture) {
	t.Helper()
	v := f.Grid().Snapshot()
	obs := f.Observer()

	visible, err := nav.Visible(v, obs)
	if err != nil {
		t.Fatalf("visibility from %v: %v", obs.Pos, err)
	}

	if f.ExpectedVisible != nil {
		checkIDs(t, "visible", visible.IDs(), f.ExpectedVisible)
	}

	if f.ExpectedInteresting != nil {
		corners := nav.Interesting(nav.DetectAll(v), visible, v, obs.Pos.X, obs.Pos.Y, obs.MessyX)
		got := make([]int, 0, len(corners))
		for _, c := range corners {
			got = append(got, v.ID(c.Pos.X, c.Pos.Y))
		}
		checkIDs(t, "interesting", got, f.ExpectedInteresting)
	}
}

func checkIDs(t *testing.T, what string, got, want []int) {
	t.Helper()
	seen := make(map[int]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	if len(seen) != len(want) {
		t.Fatalf("%s: got %d cells %v, want %d cells %v", what, len(seen), got, len(want), want)
	}
	for _, id := range want {
		if !seen[id] {
			t.Fatalf("%s: missing cell %d (got %v)", what, id, got)
		}
	}
}
