package region

// Descriptor is the function-pointer table a type installs on every object
// it backs: size, trace, finalise, and (for iso-bearing types) the
// iso-field scan used when an object is swept away unreachable. It plays
// the role the original header-layout/Freeze/allocator collaborators play
// externally (see package doc) -- the collector only ever calls through
// this table, never assumes a concrete Go type.
type Descriptor struct {
	// Name is used only in diagnostics and panics.
	Name string
	// Size is charged to the owning region's memory accounting on alloc
	// and credited back on sweep. It need not match unsafe.Sizeof(T); it
	// is whatever the caller wants current_memory_used to track.
	Size uintptr
	// HasFinaliser reports whether Finalise does real work. An object
	// whose descriptor sets this occupies the finaliser ring alongside
	// every other object of the same region that does.
	HasFinaliser bool
	// HasPossiblyIsoFields reports whether Trace can ever push an Object
	// whose Kind is ISO. Sweep calls FindIsoFields only on objects with
	// this flag (§4.7 Phase B).
	HasPossiblyIsoFields bool
	// Trace pushes every region-owned pointer, immutable reference, and
	// cown reference reachable directly from obj onto work.
	Trace func(obj *Object, work *Stack[any])
	// Finalise runs exactly once, before free, on an object swept away
	// unreachable whose descriptor sets HasFinaliser. The collector
	// treats it as infallible: a finaliser that panics is the caller's
	// problem, not the collector's to recover from.
	Finalise func(obj *Object)
	// FindIsoFields pushes onto collect the SubRegion rooted by each
	// iso-valued field of obj. Only called when HasPossiblyIsoFields is
	// set; required for types that set it.
	FindIsoFields func(obj *Object, collect *Stack[SubRegion])
}

// Object is the header every region-managed value carries. It never
// embeds the value itself -- Value holds that -- so a Descriptor's
// Trace/Finalise can be written against a concrete Go type via a type
// assertion without the collector needing to know it.
type Object struct {
	kind Kind
	next *Object // ring link; nil before first insertion and at a ring's tail. An object
	// belongs to exactly one of its region's two rings at a time, so one
	// link field is enough.

	desc *Descriptor

	// reached is a transient mark bit used only for members whose kind is
	// KindISO: such a member roots a child sub-region while still being
	// an ordinary member of its own containing region, so its reachability
	// can't be recorded by toggling kind to KindMarked the way an ordinary
	// mutable object's can -- that would destroy the ISO tag a sweep still
	// needs in order to recognise it as something that must never be freed
	// outright, only cascaded into. Cleared back to false once Sweep has
	// made its keep/drop decision.
	reached bool

	// container is the region that owns this object. For an iso proxy
	// standing in for a SubRegion whose real state lives outside this
	// package (e.g. an arena.Region), it is the region that adopted it.
	container *Header

	// subregion is non-nil iff kind == KindISO: the region this object
	// roots. For an iso that roots this very Header, subregion == the
	// *Header itself (through its SubRegion methods); for a proxy
	// standing in for an arena-backed child, it is that arena.Region.
	subregion SubRegion

	hasExtRef bool

	value any
}

// NewObject allocates a detached object header for desc wrapping value.
// It is not yet a member of any region's rings -- Header.Alloc appends it.
func NewObject(desc *Descriptor, value any) *Object {
	return &Object{desc: desc, kind: KindUnmarked, value: value}
}

func (o *Object) Kind() Kind       { return o.kind }
func (o *Object) Value() any       { return o.value }
func (o *Object) Size() uintptr    { return o.desc.Size }
func (o *Object) Descriptor() *Descriptor { return o.desc }

func (o *Object) HasFinaliser() bool         { return o.desc.HasFinaliser }
func (o *Object) HasPossiblyIsoFields() bool { return o.desc.HasPossiblyIsoFields }
func (o *Object) HasExtRef() bool            { return o.hasExtRef }

// NeedsFinaliserRing reports which ring (by finaliser-need) an object
// belongs to. Invariant 2 requires every ring member agree with the ring's
// iso on this predicate.
func (o *Object) NeedsFinaliserRing() bool { return o.desc.HasFinaliser }

func (o *Object) GetRegion() *Header    { return o.container }
func (o *Object) SetRegion(h *Header)   { o.container = h }

// Rooted reports the SubRegion this object roots, or nil if it is not an
// iso.
func (o *Object) Rooted() SubRegion { return o.subregion }

// Trace invokes the descriptor's trace function, or does nothing for a
// descriptor that owns no pointers.
func (o *Object) Trace(work *Stack[any]) {
	if o.desc.Trace != nil {
		o.desc.Trace(o, work)
	}
}

// Finalise invokes the descriptor's finaliser. The collector calls this at
// most once per object, only on objects descriptor-flagged HasFinaliser,
// only when the object is being swept away unreachable.
func (o *Object) Finalise() {
	if o.desc.Finalise != nil {
		o.desc.Finalise(o)
	}
}

// FindIsoFields invokes the descriptor's iso-field scan, pushing every
// sub-region this object's fields root onto collect.
func (o *Object) FindIsoFields(collect *Stack[SubRegion]) {
	if o.desc.FindIsoFields != nil {
		o.desc.FindIsoFields(o, collect)
	}
}

// initISO re-kinds o as the iso of region h, installing h as both its
// container and the region it roots. Used by Create and by SwapRoot's
// promotion of the new iso.
func (o *Object) initISO(h *Header) {
	o.kind = KindISO
	o.container = h
	o.subregion = h
}

// newArenaProxy builds a lightweight iso stand-in for an object whose
// real storage lives in an arena region rather than this package's own
// Object graph. It is built with no container; its only caller,
// AdoptSubRegion, then sets the container and links it into one of that
// region's rings, so mark/sweep/FindIsoFields can reach the SubRegion it
// roots.
func newArenaProxy(desc *Descriptor, value any, rooted SubRegion) *Object {
	return &Object{desc: desc, kind: KindISO, value: value, subregion: rooted}
}
