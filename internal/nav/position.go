package nav

import (
	"errors"
	"fmt"
	"math"
)

// Precondition failures surfaced by Visible and FindPath.
var (
	ErrOutOfBounds = errors.New("position out of bounds")
	ErrMessySpan   = errors.New("messy span exceeds grid bounds")
)

// Position is an integer grid coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) DistanceSq(q Position) int {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

func (p Position) Distance(q Position) float64 {
	return math.Sqrt(float64(p.DistanceSq(q)))
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ObserverState is a query position. A messy flag means the observer spans
// this cell and its positive neighbor on that axis, so a fully messy
// observer occupies the 2x2 block {x,x+1}x{y,y+1}.
type ObserverState struct {
	Pos    Position
	MessyX bool
	MessyY bool
}

// Validate fails fast when the position is outside the grid or a messy span
// would leave it. Violations are never clamped.
func (o ObserverState) Validate(v *GridView) error {
	if !v.InBounds(o.Pos.X, o.Pos.Y) {
		return fmt.Errorf("%w: %v on %dx%d grid", ErrOutOfBounds, o.Pos, v.cols, v.rows)
	}
	if o.MessyX && o.Pos.X >= v.cols-1 {
		return fmt.Errorf("%w: messy_x at x=%d requires x < %d", ErrMessySpan, o.Pos.X, v.cols-1)
	}
	if o.MessyY && o.Pos.Y >= v.rows-1 {
		return fmt.Errorf("%w: messy_y at y=%d requires y < %d", ErrMessySpan, o.Pos.Y, v.rows-1)
	}
	return nil
}

// Messy reports whether either flag is set.
func (o ObserverState) Messy() bool {
	return o.MessyX || o.MessyY
}

// Cells returns the constituent cells the observer occupies, anchor first.
func (o ObserverState) Cells() []Position {
	cells := []Position{o.Pos}
	if o.MessyX {
		cells = append(cells, Position{o.Pos.X + 1, o.Pos.Y})
	}
	if o.MessyY {
		cells = append(cells, Position{o.Pos.X, o.Pos.Y + 1})
	}
	if o.MessyX && o.MessyY {
		cells = append(cells, Position{o.Pos.X + 1, o.Pos.Y + 1})
	}
	return cells
}
