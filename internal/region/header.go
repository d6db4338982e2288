package region

import (
	"sync"

	"github.com/orizon-lang/regiongc/internal/allocator"
)

// RegionID uniquely names a region for diagnostics and for the allocator's
// charge/uncharge bookkeeping; it carries no ordering meaning.
type RegionID uint64

// Header is the per-region control block: ring heads, memory accounting,
// and the two cross-region reference tables (§4.1-§4.3).
//
// primary always ends at the iso (Invariant 1, 3); secondary holds
// everything whose finaliser-need disagrees with the iso's (Invariant
// 2). Which physical ring is "primary" is a property of the region's
// current iso, not fixed storage: SwapRoot exchanges primary and
// secondary wholesale in O(1) when the new iso's finaliser-need differs
// from the old one's, rather than reclassifying every member.
type Header struct {
	id RegionID

	primary   objRing
	secondary objRing

	// iso is the one object that roots this region (Invariant 3). It is
	// always also the primary ring's tail.
	iso *Object

	// currentMemoryUsed is the live byte count charged to this region's
	// allocator budget; previousMemoryUsed is the size class of the live
	// bytes left at the end of the most recent sweep, used by the
	// collector's grow/shrink heuristics (§4.6, §9).
	currentMemoryUsed  uintptr
	previousMemoryUsed uint8

	allocator Allocator

	remembered *RememberedSet
	extRefs    *ExternalRefTable

	// mu serialises the rare cross-region operation, Merge, which locks
	// both regions. SwapRoot and ordinary alloc/trace/sweep never touch it.
	mu sync.Mutex
}

// NewHeader allocates a region with no members and no iso. Callers reach
// a usable region by following up with Create, which both allocates the
// iso and installs it via initISO.
func NewHeader(id RegionID, alloc Allocator) *Header {
	return &Header{
		id:         id,
		allocator:  alloc,
		remembered: NewRememberedSet(),
		extRefs:    NewExternalRefTable(),
	}
}

func (h *Header) ID() RegionID { return h.id }

func (h *Header) Iso() *Object { return h.iso }

func (h *Header) CurrentMemoryUsed() uintptr { return h.currentMemoryUsed }

func (h *Header) PreviousMemoryUsed() uint8 { return h.previousMemoryUsed }

func (h *Header) RememberedSet() *RememberedSet { return h.remembered }

func (h *Header) ExternalRefTable() *ExternalRefTable { return h.extRefs }

// chargeAlloc adds n bytes to the region's live accounting and reports it
// to the allocator collaborator, if one is attached.
func (h *Header) chargeAlloc(n uintptr) {
	h.currentMemoryUsed += n
	if h.allocator != nil {
		h.allocator.Charge(n)
	}
}

// chargeFree subtracts n bytes from the region's live accounting and
// reports it to the allocator collaborator.
func (h *Header) chargeFree(n uintptr) {
	h.currentMemoryUsed -= n
	if h.allocator != nil {
		h.allocator.Uncharge(n)
	}
}

// sizeToSizeClass compresses n via alloc's size-class table, or the
// package-level allocator fallback when a region was built without one
// attached (tests that don't care about byte accounting commonly do).
func sizeToSizeClass(alloc Allocator, n uintptr) uint8 {
	if alloc != nil {
		return alloc.SizeToSizeClass(n)
	}

	return allocator.SizeToSizeClass(n)
}
