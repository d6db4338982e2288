package region

import "sync/atomic"

// SimpleImmutable is a reference implementation of Immutable: a single
// object that is always its own SCC root. It exists so tests and callers
// that don't need real SCC normalisation have something concrete to
// remember into a RememberedSet; a real immutable layer (frozen object
// graphs with interior SCCPtr members) would implement RootAndClass by
// walking its own component structure instead of always answering RC.
type SimpleImmutable struct {
	id   uintptr
	refs atomic.Int64
}

// NewSimpleImmutable returns an immutable identified by id, with a
// starting reference count of zero: the first InsertImmutable against it
// brings the count to one.
func NewSimpleImmutable(id uintptr) *SimpleImmutable {
	return &SimpleImmutable{id: id}
}

func (s *SimpleImmutable) RootAndClass() (Immutable, Kind) { return s, KindRC }

func (s *SimpleImmutable) RefID() uintptr { return s.id }

func (s *SimpleImmutable) Acquire() { s.refs.Add(1) }

func (s *SimpleImmutable) Release() {
	if s.refs.Add(-1) < 0 {
		panic(errNegativeRefCount("SimpleImmutable.Release"))
	}
}

func (s *SimpleImmutable) RefCount() int64 { return s.refs.Load() }

// SCCMember is an interior pointer into a SimpleImmutable-rooted
// component: RootAndClass normalises it to its root rather than reporting
// itself, mirroring KindSCCPtr.
type SCCMember struct {
	root *SimpleImmutable
}

// NewSCCMember returns an interior reference that normalises to root.
func NewSCCMember(root *SimpleImmutable) *SCCMember {
	return &SCCMember{root: root}
}

func (m *SCCMember) RootAndClass() (Immutable, Kind) { return m.root, KindSCCPtr }

func (m *SCCMember) RefID() uintptr { return m.root.RefID() }
