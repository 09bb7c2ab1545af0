package nav

import "container/heap"

// Path is an ordered waypoint sequence from start to destination. The
// trivial start==dest query yields an empty waypoint list.
type Path struct {
	Waypoints []Position
	Distance  float64
}

// Planner answers shortest-route queries over the sparse corner graph of
// one grid revision. All corner expansions go through the CornerCache with
// clean flags; only the literal start of a query is ever evaluated messy.
type Planner struct {
	cache  *CornerCache
	budget int
}

type PlannerOption func(*Planner)

// WithExpansionBudget bounds the number of corner expansions per query, to
// cap worst-case fan-out on pathological maps. Zero means unlimited. A
// query that exhausts the budget returns the best route found so far, or
// no path.
func WithExpansionBudget(n int) PlannerOption {
	return func(p *Planner) { p.budget = n }
}

func NewPlanner(cache *CornerCache, opts ...PlannerOption) *Planner {
	p := &Planner{cache: cache}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Revision returns the grid revision the planner's answers are valid for.
// Callers should re-query when the live grid has moved past it.
func (p *Planner) Revision() uint64 { return p.cache.Revision() }

type nodeKind uint8

const (
	nodeStart nodeKind = iota
	nodeAligned
	nodeCorner
)

type pathNode struct {
	pos  Position
	dist float64
	path []Position
	kind nodeKind
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	// Deterministic tie-break so equal-length routes always pop in the
	// same order.
	if h[i].pos.X != h[j].pos.X {
		return h[i].pos.X < h[j].pos.X
	}
	return h[i].pos.Y < h[j].pos.Y
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*pathNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// FindPath finds a shortest route from start to dest, or nil when no chain
// of mutually visible corners connects them. nil with a nil error is the
// normal unreachable outcome; errors are reserved for precondition
// violations such as a messy span leaving the grid.
func (p *Planner) FindPath(start ObserverState, dest Position) (*Path, error) {
	v := p.cache.view
	if err := start.Validate(v); err != nil {
		return nil, err
	}
	if err := (ObserverState{Pos: dest}).Validate(v); err != nil {
		return nil, err
	}

	if start.Pos == dest {
		return &Path{Waypoints: []Position{}}, nil
	}

	if start.Pos.Y == dest.Y {
		if path, ok := p.sameRowPath(start, dest); ok {
			return path, nil
		}
	}

	visStart, err := Visible(v, start)
	if err != nil {
		return nil, err
	}

	// Direct shortcut: destination already in sight.
	if visStart.Contains(v.ID(dest.X, dest.Y)) {
		return newPath([]Position{start.Pos, dest}), nil
	}

	startCorners := Interesting(p.cache.AllCorners(), visStart, v, start.Pos.X, start.Pos.Y, start.MessyX)

	finished, err := p.finishingCorners(dest)
	if err != nil {
		return nil, err
	}
	if len(finished) == 0 {
		return nil, nil
	}

	return p.search(start, dest, visStart, startCorners, finished)
}

// sameRowPath handles start and dest on the same walkable segment. A messy-Y
// start must settle onto a clean row first: when dest lies outside the
// bounds of the segment on the row below, one alignment waypoint is emitted
// at the segment boundary (which may coincide with start itself).
func (p *Planner) sameRowPath(start ObserverState, dest Position) (*Path, bool) {
	v := p.cache.view
	if v.Blocked(start.Pos.X, start.Pos.Y) || v.Blocked(dest.X, dest.Y) {
		return nil, false
	}
	lo, hi := walkableBounds(v, start.Pos.X, start.Pos.Y)
	if dest.X < lo || dest.X > hi {
		return nil, false
	}

	if !start.Messy() {
		return newPath([]Position{start.Pos, dest}), true
	}

	if start.MessyY {
		below := start.Pos.Y + 1
		if v.Blocked(start.Pos.X, below) {
			// Cannot settle straight down; let the full search sort it out.
			return nil, false
		}
		blo, bhi := walkableBounds(v, start.Pos.X, below)
		waypoints := []Position{start.Pos}
		if start.Pos.X > dest.X {
			if dest.X < blo {
				waypoints = append(waypoints, Position{blo, start.Pos.Y})
			}
		} else if dest.X > bhi {
			waypoints = append(waypoints, Position{bhi, start.Pos.Y})
		}
		waypoints = append(waypoints, dest)
		return newPath(waypoints), true
	}

	// Messy-X only: span is horizontal, travel along the row needs no
	// settling step.
	return newPath([]Position{start.Pos, dest}), true
}

// finishingCorners returns the corners through which the destination is
// directly reachable, mapped to their Euclidean distance from it. When the
// destination is itself a corner it is the sole finishing corner at
// distance zero.
func (p *Planner) finishingCorners(dest Position) (map[Position]float64, error) {
	for _, c := range p.cache.AllCorners() {
		if c.Pos == dest {
			return map[Position]float64{dest: 0}, nil
		}
	}
	_, destCorners, err := p.cache.GetOrCompute(dest)
	if err != nil {
		return nil, err
	}
	finished := make(map[Position]float64, len(destCorners))
	for _, c := range destCorners {
		finished[c.Pos] = c.Pos.Distance(dest)
	}
	return finished, nil
}

func (p *Planner) search(start ObserverState, dest Position, visStart *CellSet, startCorners []Corner, finished map[Position]float64) (*Path, error) {
	v := p.cache.view

	queue := &nodeHeap{}
	heap.Init(queue)
	heap.Push(queue, &pathNode{pos: start.Pos, path: []Position{start.Pos}, kind: nodeStart})

	bestDist := map[Position]float64{start.Pos: 0}
	processed := make(map[Position]bool)

	var best []Position
	minTotal := -1.0
	expansions := 0

	for queue.Len() > 0 {
		node := heap.Pop(queue).(*pathNode)

		// Exact pruning: once a popped node cannot beat the best known
		// total, nothing later in the queue can either.
		if minTotal >= 0 && node.dist >= minTotal {
			break
		}
		if bd, ok := bestDist[node.pos]; ok && node.dist > bd {
			continue
		}

		if finDist, ok := finished[node.pos]; ok {
			total := node.dist + finDist
			if minTotal < 0 || total < minTotal {
				minTotal = total
				best = append([]Position(nil), node.path...)
				if node.pos != dest {
					best = append(best, dest)
				}
			}
			continue
		}

		// The alignment revisit of the start is a distinct search state:
		// it bypasses the processed set and never enters it.
		if node.kind != nodeAligned {
			if processed[node.pos] {
				continue
			}
			processed[node.pos] = true
		}

		if p.budget > 0 {
			expansions++
			if expansions > p.budget {
				break
			}
		}

		var visHere *CellSet
		var neighbors []Corner
		if node.kind == nodeStart {
			visHere = visStart
			neighbors = startCorners
		} else {
			var err error
			visHere, neighbors, err = p.cache.GetOrCompute(node.pos)
			if err != nil {
				return nil, err
			}
		}

		// Finishing corners visible from here are always reachable
		// neighbors, even when they are not interesting in their own right.
		neighbors = withVisibleFinished(neighbors, finished, visHere, v)

		for _, next := range neighbors {
			step := node.pos.Distance(next.Pos)
			enqueueNeighbor(queue, bestDist, node, next.Pos, step, nodeCorner, false)
		}

		// A messy start first settles onto its clean grid position: the
		// start reappears as a waypoint at alignment cost 1.
		if node.kind == nodeStart && start.Messy() {
			enqueueNeighbor(queue, bestDist, node, start.Pos, 1.0, nodeAligned, true)
		}
	}

	if best == nil {
		return nil, nil
	}
	return &Path{Waypoints: best, Distance: minTotal}, nil
}

func enqueueNeighbor(queue *nodeHeap, bestDist map[Position]float64, from *pathNode, to Position, step float64, kind nodeKind, force bool) {
	total := from.dist + step
	if !force {
		if bd, ok := bestDist[to]; ok && total >= bd {
			return
		}
	}
	bestDist[to] = total
	path := make([]Position, 0, len(from.path)+1)
	path = append(path, from.path...)
	path = append(path, to)
	heap.Push(queue, &pathNode{pos: to, dist: total, path: path, kind: kind})
}

func withVisibleFinished(neighbors []Corner, finished map[Position]float64, visible *CellSet, v *GridView) []Corner {
	// neighbors usually aliases the cache's backing array, which other
	// queries read concurrently; copy before the first addition.
	out := neighbors
	owned := false
	for pos := range finished {
		if !visible.Contains(v.ID(pos.X, pos.Y)) {
			continue
		}
		present := false
		for _, c := range out {
			if c.Pos == pos {
				present = true
				break
			}
		}
		if present {
			continue
		}
		if !owned {
			out = append(make([]Corner, 0, len(out)+len(finished)), out...)
			owned = true
		}
		out = append(out, Corner{Pos: pos})
	}
	return out
}

func newPath(waypoints []Position) *Path {
	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		total += waypoints[i-1].Distance(waypoints[i])
	}
	return &Path{Waypoints: waypoints, Distance: total}
}
