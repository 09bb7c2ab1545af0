package nav

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CornerCache memoizes per-position visibility and interesting corners for
// clean grid positions. A cache is bound to the single GridView it was
// built from, so a grid edit invalidates it wholesale: callers build a new
// cache for the new revision instead of patching this one.
//
// It is safe for concurrent use; population is single-flight per position,
// so two queries racing on the same cell compute it once and observe the
// same entry.
type CornerCache struct {
	view *GridView

	cornersOnce sync.Once
	corners     []Corner

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[int]cacheEntry
}

type cacheEntry struct {
	visible     *CellSet
	interesting []Corner
}

func NewCornerCache(view *GridView) *CornerCache {
	return &CornerCache{
		view:    view,
		entries: make(map[int]cacheEntry),
	}
}

// View returns the grid view the cache is valid for.
func (c *CornerCache) View() *GridView { return c.view }

// Revision returns the grid revision the cache is valid for.
func (c *CornerCache) Revision() uint64 { return c.view.rev }

// AllCorners returns the structural corner set of the grid, detected once.
func (c *CornerCache) AllCorners() []Corner {
	c.cornersOnce.Do(func() {
		c.corners = DetectAll(c.view)
	})
	return c.corners
}

// GetOrCompute returns the visibility set and interesting corners for a
// clean position. Messy observers cannot route through here: the signature
// only admits a bare Position, which is what makes the historical bug of
// propagating a start's messy flags into corner expansions impossible.
func (c *CornerCache) GetOrCompute(pos Position) (*CellSet, []Corner, error) {
	obs := ObserverState{Pos: pos}
	if err := obs.Validate(c.view); err != nil {
		return nil, nil, err
	}
	id := c.view.ID(pos.X, pos.Y)

	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return e.visible, e.interesting, nil
	}

	v, err, _ := c.group.Do(strconv.Itoa(id), func() (any, error) {
		c.mu.RLock()
		e, ok := c.entries[id]
		c.mu.RUnlock()
		if ok {
			return e, nil
		}
		visible, err := Visible(c.view, obs)
		if err != nil {
			return cacheEntry{}, err
		}
		interesting := Interesting(c.AllCorners(), visible, c.view, pos.X, pos.Y, false)
		e = cacheEntry{visible: visible, interesting: interesting}
		c.mu.Lock()
		c.entries[id] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, nil, err
	}
	e = v.(cacheEntry)
	return e.visible, e.interesting, nil
}
