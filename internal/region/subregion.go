package region

// SubRegion is the region-kind dispatch the collector needs whenever it
// discovers, during sweep or release, that an unreachable object was the
// iso of its own region (§4.10's collect stack holds these). A *Header
// satisfies it for tracing regions; internal/arena.Region satisfies it
// structurally for the free-list-allocated sibling without either package
// importing the other.
type SubRegion interface {
	// KindTag identifies the region variant for diagnostics; the
	// collector itself never branches on it, only on the interface.
	KindTag() string
	// ReleaseSubRegion tears the whole region down: for a tracing region
	// this is Header.ReleaseInternal, for an arena it is destroying the
	// backing slab. Implementations that can themselves discover further
	// unreachable sub-regions (tracing regions can; arenas can't) drain
	// that cascade recursively before returning, so a caller draining
	// the top-level collect stack never needs to reach back into this
	// call's internals.
	ReleaseSubRegion() error
}

// KindTag identifies a tracing region to the collect-stack dispatch.
func (h *Header) KindTag() string { return "tracing" }
