// Package fixture loads grid conformance fixtures exported from the
// reference engine and derives their flipped variants.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gridnav.ai/internal/nav"
)

// Fixture is one exported scenario: a grid, an observer, and the cell
// sets the engine is expected to produce. ExpectedVisible and
// ExpectedInteresting are both optional; a fixture checks whichever
// are present.
type Fixture struct {
	TestName     string `json:"testName"`
	GridRows     int    `json:"gridRows"`
	GridCols     int    `json:"gridCols"`
	BlockedCells []int  `json:"blockedCells"`
	StartX       int    `json:"startX"`
	StartY       int    `json:"startY"`
	MessyX       bool   `json:"messyX,omitempty"`
	MessyY       bool   `json:"messyY,omitempty"`

	ExpectedVisible     []int `json:"expectedVisible,omitempty"`
	ExpectedInteresting []int `json:"expectedInteresting,omitempty"`
}

func Load(path string) (Fixture, error) {
	var f Fixture
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := f.Validate(); err != nil {
		return f, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// LoadDir loads every *.json fixture in dir, sorted by file name.
func LoadDir(dir string) ([]Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (f Fixture) Validate() error {
	if f.TestName == "" {
		return fmt.Errorf("testName must not be empty")
	}
	if f.GridRows <= 0 || f.GridCols <= 0 {
		return fmt.Errorf("grid dims must be positive, got %dx%d", f.GridRows, f.GridCols)
	}
	n := f.GridRows * f.GridCols
	checkIDs := func(name string, ids []int) error {
		for _, id := range ids {
			if id < 0 || id >= n {
				return fmt.Errorf("%s id %d out of range [0,%d)", name, id, n)
			}
		}
		return nil
	}
	if err := checkIDs("blockedCells", f.BlockedCells); err != nil {
		return err
	}
	if err := checkIDs("expectedVisible", f.ExpectedVisible); err != nil {
		return err
	}
	if err := checkIDs("expectedInteresting", f.ExpectedInteresting); err != nil {
		return err
	}
	maxX, maxY := f.GridCols-1, f.GridRows-1
	if f.MessyX {
		maxX--
	}
	if f.MessyY {
		maxY--
	}
	if f.StartX < 0 || f.StartX > maxX || f.StartY < 0 || f.StartY > maxY {
		return fmt.Errorf("observer (%d,%d) span does not fit the grid", f.StartX, f.StartY)
	}
	return nil
}

func (f Fixture) Grid() *nav.Grid {
	return nav.GridWithBlocked(f.GridRows, f.GridCols, f.BlockedCells)
}

func (f Fixture) Observer() nav.ObserverState {
	return nav.ObserverState{
		Pos:    nav.Position{X: f.StartX, Y: f.StartY},
		MessyX: f.MessyX,
		MessyY: f.MessyY,
	}
}

// FlipH mirrors the fixture across the vertical axis. A messy-X span
// covers two columns, so its anchor lands at cols-x-2 rather than the
// plain cols-x-1 used for single cells.
func (f Fixture) FlipH() Fixture {
	out := f
	out.TestName = f.TestName + "_flip_h"
	out.BlockedCells = flipIDs(f.BlockedCells, f.GridCols, flipXID)
	out.ExpectedVisible = flipIDs(f.ExpectedVisible, f.GridCols, flipXID)
	out.ExpectedInteresting = flipIDs(f.ExpectedInteresting, f.GridCols, flipXID)
	out.StartX = f.GridCols - f.StartX - 1
	if f.MessyX {
		out.StartX = f.GridCols - f.StartX - 2
	}
	return out
}

// FlipV mirrors the fixture across the horizontal axis, with the same
// two-row adjustment for a messy-Y anchor.
func (f Fixture) FlipV() Fixture {
	out := f
	out.TestName = f.TestName + "_flip_v"
	flip := func(id, cols int) int {
		x, y := id%cols, id/cols
		return (f.GridRows-y-1)*cols + x
	}
	out.BlockedCells = flipIDs(f.BlockedCells, f.GridCols, flip)
	out.ExpectedVisible = flipIDs(f.ExpectedVisible, f.GridCols, flip)
	out.ExpectedInteresting = flipIDs(f.ExpectedInteresting, f.GridCols, flip)
	out.StartY = f.GridRows - f.StartY - 1
	if f.MessyY {
		out.StartY = f.GridRows - f.StartY - 2
	}
	return out
}

func (f Fixture) FlipBoth() Fixture {
	out := f.FlipH().FlipV()
	out.TestName = f.TestName + "_flip_both"
	return out
}

func flipXID(id, cols int) int {
	x, y := id%cols, id/cols
	return y*cols + (cols - x - 1)
}

func flipIDs(ids []int, cols int, flip func(id, cols int) int) []int {
	if ids == nil {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = flip(id, cols)
	}
	sort.Ints(out)
	return out
}
