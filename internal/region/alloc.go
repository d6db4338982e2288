package region

import (
	"unsafe"

	"github.com/orizon-lang/regiongc/internal/allocator"
)

// Allocator is the narrow collaborator a region charges and uncharges as
// it allocates and frees object storage (§6's external Allocator). It
// deliberately never hands out raw memory to this package: Object.value
// holds ordinary Go values, so the only thing a region needs from an
// allocator is size-class accounting and byte-budget telemetry.
type Allocator interface {
	Charge(n uintptr)
	Uncharge(n uintptr)
	SizeToSizeClass(n uintptr) uint8
	SizeClassToSize(c uint8) uintptr
}

// ThreadLocalAllocator adapts internal/allocator's pool allocator to the
// narrow Allocator interface, so a region's memory accounting rides on
// the same size-classed pools the rest of the runtime uses rather than
// reinventing byte bookkeeping. It is "thread-local" in the same sense a
// region is single-threaded (§5): one instance per region, never shared.
//
// Charge/Uncharge don't just tally counters: when backing is non-nil,
// every Charge reserves n real bytes from it and every matching Uncharge
// returns one of the same size, so a region's current_memory_used is
// always backed by a genuine budget rather than an independent count
// that could drift from what the shared pool actually thinks is live.
// outstanding buckets those reservations by size rather than by the
// specific object that requested them, since Charge/Uncharge are called
// with only a byte count (not an identity) and any reservation of the
// matching size is interchangeable.
type ThreadLocalAllocator struct {
	backing     allocator.Allocator
	stats       allocator.AllocatorStats
	outstanding map[uintptr][]unsafe.Pointer
}

// NewThreadLocalAllocator wraps backing for use by a single region.
func NewThreadLocalAllocator(backing allocator.Allocator) *ThreadLocalAllocator {
	return &ThreadLocalAllocator{backing: backing}
}

// NewPooledAllocator builds a ThreadLocalAllocator backed by a real
// size-classed internal/allocator pool sized for poolSizes, so a region's
// accounting rides on genuine reserved-and-released memory instead of a
// bookkeeping-only stand-in. poolSizes should cover every Descriptor.Size
// the resulting region will actually allocate; a size with no matching
// pool falls through to the pool's own system-allocator fallback.
func NewPooledAllocator(poolSizes []uintptr) (*ThreadLocalAllocator, error) {
	pool, err := allocator.NewPoolAllocator(poolSizes, &allocator.Config{
		PoolSizes:     poolSizes,
		AlignmentSize: 8,
	})
	if err != nil {
		return nil, err
	}

	return NewThreadLocalAllocator(pool), nil
}

// NewArenaBackedAllocator builds a ThreadLocalAllocator backed by a real
// internal/allocator bump arena of the given size, for regions whose
// descriptors are too varied in size for NewPooledAllocator's fixed
// size-class pools to suit -- a single contiguous reservation instead of
// one pool per size.
func NewArenaBackedAllocator(arenaSize uintptr) (*ThreadLocalAllocator, error) {
	arena, err := allocator.NewArenaAllocator(arenaSize, &allocator.Config{AlignmentSize: 8})
	if err != nil {
		return nil, err
	}

	return NewThreadLocalAllocator(arena), nil
}

func (t *ThreadLocalAllocator) Charge(n uintptr) {
	t.stats.TotalAllocated += n
	t.stats.BytesInUse += n
	t.stats.AllocationCount++
	t.stats.ActiveAllocations++
	if t.stats.ActiveAllocations > t.stats.PeakAllocations {
		t.stats.PeakAllocations = t.stats.ActiveAllocations
	}

	if t.backing == nil {
		return
	}

	ptr := t.backing.Alloc(n)
	if ptr == nil {
		return
	}

	if t.outstanding == nil {
		t.outstanding = make(map[uintptr][]unsafe.Pointer)
	}

	t.outstanding[n] = append(t.outstanding[n], ptr)
}

func (t *ThreadLocalAllocator) Uncharge(n uintptr) {
	t.stats.TotalFreed += n
	t.stats.FreeCount++
	t.stats.ActiveAllocations--

	if n > t.stats.BytesInUse {
		t.stats.BytesInUse = 0
	} else {
		t.stats.BytesInUse -= n
	}

	bucket := t.outstanding[n]
	if len(bucket) == 0 {
		return
	}

	last := len(bucket) - 1
	ptr := bucket[last]
	t.outstanding[n] = bucket[:last]
	t.backing.Free(ptr)
}

func (t *ThreadLocalAllocator) SizeToSizeClass(n uintptr) uint8 { return allocator.SizeToSizeClass(n) }

func (t *ThreadLocalAllocator) SizeClassToSize(c uint8) uintptr { return allocator.SizeClassToSize(c) }

func (t *ThreadLocalAllocator) Stats() allocator.AllocatorStats { return t.stats }

// Backing returns the wrapped pool allocator, for callers that want to
// drive it directly (e.g. to pre-warm a pool before a region starts
// allocating from it).
func (t *ThreadLocalAllocator) Backing() allocator.Allocator { return t.backing }

// Create allocates the iso for a brand-new region: desc describes the iso
// type, value is its payload. The returned *Header has exactly one
// primary-ring member, its own iso, and no not-root members (§4.2).
func Create(id RegionID, alloc Allocator, desc *Descriptor, value any) (*Header, *Object) {
	if desc.Size == 0 {
		panic(errZeroSize(desc.Name))
	}

	h := NewHeader(id, alloc)

	iso := NewObject(desc, value)
	iso.initISO(h)
	h.iso = iso

	h.primary.append(iso)
	h.chargeAlloc(desc.Size)

	return h, iso
}

// Alloc allocates a fresh, non-root object of desc/value owned by h,
// inserting it into whichever ring matches its finaliser-need against
// the region's current iso (§4.2, Invariant 2).
func (h *Header) Alloc(desc *Descriptor, value any) *Object {
	if desc.Size == 0 {
		panic(errZeroSize(desc.Name))
	}

	o := NewObject(desc, value)
	o.container = h

	h.appendMember(o)
	h.chargeAlloc(desc.Size)

	return o
}

// AdoptSubRegion allocates an ordinary member of h whose fields are
// understood to root a sub-region of their own -- rooted, which may be
// another tracing Header or an arena.Region -- the ISO-kinded interior
// member §4.6 and §4.10 describe as the thing the collect-stack cascade
// dispatches through. desc must set HasPossiblyIsoFields and
// FindIsoFields so sweep can discover rooted when this member turns out
// unreachable; it is otherwise an ordinary ring member, not h's own iso,
// and is inserted into whichever ring matches its finaliser-need exactly
// like Alloc does.
//
// Until this existed, the only way to build this wiring was Create,
// which always self-roots its own region and can never stand in for a
// different Header or SubRegion -- so no caller outside this package
// could construct the shape §4.10 is built to cascade through.
func (h *Header) AdoptSubRegion(desc *Descriptor, value any, rooted SubRegion) *Object {
	if desc.Size == 0 {
		panic(errZeroSize(desc.Name))
	}

	if !desc.HasPossiblyIsoFields || desc.FindIsoFields == nil {
		panic(errMissingIsoFieldScan(desc.Name))
	}

	o := newArenaProxy(desc, value, rooted)
	o.container = h

	h.appendMember(o)
	h.chargeAlloc(desc.Size)

	return o
}
