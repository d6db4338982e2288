package region

import "sync/atomic"

// ActorCown is a reference implementation of Cown grounded on the
// runtime's own actor identifier scheme (an actor is referenced, never
// owned, by any region that holds a cown to it). ID is stable for the
// actor's lifetime and doubles as RefID.
type ActorCown struct {
	ID   uint64
	refs atomic.Int64
}

// NewActorCown wraps an actor identifier as a region-remembered cown.
func NewActorCown(id uint64) *ActorCown {
	return &ActorCown{ID: id}
}

func (c *ActorCown) RefID() uint64 { return c.ID }

func (c *ActorCown) Acquire() { c.refs.Add(1) }

func (c *ActorCown) Release() {
	if c.refs.Add(-1) < 0 {
		panic(errNegativeRefCount("ActorCown.Release"))
	}
}

func (c *ActorCown) RefCount() int64 { return c.refs.Load() }
