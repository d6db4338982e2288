package region

import "sync"

// Immutable is what the immutable SCC layer (Freeze, external per package
// doc) exposes to a region: enough to normalise an interior pointer to its
// component root and to identify that root stably. RootAndClass is the
// Go-level stand-in for §6's root_and_class(&md).
type Immutable interface {
	// RootAndClass resolves the receiver to its SCC representative and
	// reports whether the receiver itself was already that root (RC) or
	// an interior pointer needing normalisation (SCCPtr).
	RootAndClass() (root Immutable, kind Kind)
	// RefID stably identifies the root for remembered-set bookkeeping.
	RefID() uintptr
}

// Cown is a concurrent-owner actor: referenced by a region's remembered
// set but never owned by any region.
type Cown interface {
	RefID() uint64
}

// refOwned is satisfied by an Immutable or Cown that wants acquire/release
// notifications as it enters and leaves a remembered set. It is optional:
// a test double that doesn't implement it is simply never told.
type refOwned interface {
	Acquire()
	Release()
}

// rememberedEntry tracks one immutable or cown the region keeps alive,
// plus whether this collection's mark pass touched it.
type rememberedEntry struct {
	ref    any // Immutable or Cown
	marked bool
}

// RememberedSet is a region's inventory of references to immutables and
// cowns, with per-collection reachability tracking (§4.3, §4.7, glossary).
// It is exclusively owned by its region; the region's single-threaded
// ownership discipline (§5) is what lets Insert/Mark/SweepSet skip their
// own locking for the hot path, though the mutex is still held because a
// remembered set survives into Merge, which runs against two regions that
// were each single-threaded but not to each other.
type RememberedSet struct {
	mu         sync.Mutex
	immutables map[uintptr]*rememberedEntry
	cowns      map[uint64]*rememberedEntry
}

func NewRememberedSet() *RememberedSet {
	return &RememberedSet{
		immutables: make(map[uintptr]*rememberedEntry),
		cowns:      make(map[uint64]*rememberedEntry),
	}
}

// InsertImmutable records a reference to ref, normalised to its SCC root
// (§4.4's "insert normalises o to its SCC root before recording"). When
// transfer is false a fresh reference is acquired; when true the caller is
// donating a reference count it already held.
func (rs *RememberedSet) InsertImmutable(transfer bool, ref Immutable) {
	root, _ := ref.RootAndClass()

	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.immutables[root.RefID()]; exists {
		if owned, ok := root.(refOwned); ok && transfer {
			owned.Release() // already held once on our behalf; drop the donated count
		}

		return
	}

	if owned, ok := root.(refOwned); ok && !transfer {
		owned.Acquire()
	}

	rs.immutables[root.RefID()] = &rememberedEntry{ref: root}
}

// InsertCown records a reference to c. Semantics mirror InsertImmutable.
func (rs *RememberedSet) InsertCown(transfer bool, c Cown) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.cowns[c.RefID()]; exists {
		if owned, ok := c.(refOwned); ok && transfer {
			owned.Release()
		}

		return
	}

	if owned, ok := c.(refOwned); ok && !transfer {
		owned.Acquire()
	}

	rs.cowns[c.RefID()] = &rememberedEntry{ref: c}
}

// MarkImmutable records that root was reached during this collection's
// trace. Called from Mark for every SCCPtr/RC field encountered (§4.6).
func (rs *RememberedSet) MarkImmutable(root Immutable) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if e, ok := rs.immutables[root.RefID()]; ok {
		e.marked = true
	}
}

// MarkCown records that c was reached during this collection's trace.
func (rs *RememberedSet) MarkCown(c Cown) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if e, ok := rs.cowns[c.RefID()]; ok {
		e.marked = true
	}
}

// SweepSet drops every entry the most recent Mark pass did not touch,
// releasing the reference each held, and clears mark bits for the next
// collection (§4.7: "the remembered set performs its own sweep using the
// collected mark bitmap"). When marked is false every entry is dropped
// unconditionally regardless of its mark bit -- the whole-region release
// path (§4.8) uses this to tear the set down completely.
func (rs *RememberedSet) SweepSet(marked bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, e := range rs.immutables {
		if marked && e.marked {
			e.marked = false
			continue
		}

		if owned, ok := e.ref.(refOwned); ok {
			owned.Release()
		}

		delete(rs.immutables, id)
	}

	for id, e := range rs.cowns {
		if marked && e.marked {
			e.marked = false
			continue
		}

		if owned, ok := e.ref.(refOwned); ok {
			owned.Release()
		}

		delete(rs.cowns, id)
	}
}

// Merge absorbs other's entries into rs, releasing the duplicate reference
// whenever both sets already held the same immutable or cown (§4.4:
// "Merges remembered set"). other is left empty.
func (rs *RememberedSet) Merge(other *RememberedSet) {
	other.mu.Lock()
	defer other.mu.Unlock()
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, e := range other.immutables {
		if existing, ok := rs.immutables[id]; ok {
			if owned, ok := e.ref.(refOwned); ok {
				owned.Release()
			}

			existing.marked = existing.marked || e.marked
			continue
		}

		rs.immutables[id] = e
	}

	for id, e := range other.cowns {
		if existing, ok := rs.cowns[id]; ok {
			if owned, ok := e.ref.(refOwned); ok {
				owned.Release()
			}

			existing.marked = existing.marked || e.marked
			continue
		}

		rs.cowns[id] = e
	}

	other.immutables = make(map[uintptr]*rememberedEntry)
	other.cowns = make(map[uint64]*rememberedEntry)
}

// Len reports the number of distinct immutables and cowns currently held,
// for diagnostics and tests.
func (rs *RememberedSet) Len() (immutables, cowns int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return len(rs.immutables), len(rs.cowns)
}

// ExternalHandle is a stable handle held outside a region that must be
// revoked when the interior object it names is freed.
type ExternalHandle interface {
	Revoke()
}

// ExternalRefTable maps interior objects to the stable external handles
// naming them, so that freed objects have their handles revoked (§4.7:
// "External-reference-table entries are erased before free when
// has_ext_ref is set").
type ExternalRefTable struct {
	mu      sync.Mutex
	handles map[*Object]ExternalHandle
}

func NewExternalRefTable() *ExternalRefTable {
	return &ExternalRefTable{handles: make(map[*Object]ExternalHandle)}
}

// Insert records handle as naming o and marks o has_ext_ref.
func (t *ExternalRefTable) Insert(o *Object, handle ExternalHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	o.hasExtRef = true
	t.handles[o] = handle
}

// Erase revokes and removes o's handle, if any, and clears has_ext_ref.
func (t *ExternalRefTable) Erase(o *Object) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.handles[o]; ok {
		h.Revoke()
		delete(t.handles, o)
	}

	o.hasExtRef = false
}

// Merge absorbs other's entries into t. other is left empty.
func (t *ExternalRefTable) Merge(other *ExternalRefTable) {
	other.mu.Lock()
	defer other.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	for o, h := range other.handles {
		t.handles[o] = h
	}

	other.handles = make(map[*Object]ExternalHandle)
}
