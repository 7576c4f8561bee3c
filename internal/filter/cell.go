package filter

import "sync/atomic"

// Cell holds the current Settings snapshot. The control panel replaces
// the whole snapshot with Store; the capture goroutine reads it once per
// frame with Load. Readers never see a partially written snapshot.
type Cell struct {
	current atomic.Pointer[Settings]
}

// NewCell creates a cell holding initial
func NewCell(initial Settings) *Cell {
	c := &Cell{}
	c.Store(initial)
	return c
}

// Load returns a copy of the current snapshot
func (c *Cell) Load() Settings {
	if s := c.current.Load(); s != nil {
		return *s
	}
	return Settings{}
}

// Store installs s as the current snapshot
func (c *Cell) Store(s Settings) {
	c.current.Store(&s)
}
