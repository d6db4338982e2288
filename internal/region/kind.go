// Package region implements a per-region tracing garbage collector for an
// actor-style heap: each region is rooted at a distinguished iso object,
// owns every mutable object reachable from it, and is collected on its own
// by a stop-the-region mark-and-sweep pass. References that cross region
// boundaries are mediated by immutables and cowns, never traced into
// directly.
//
// The design mirrors internal/arena's free-list allocator in spirit --
// both are region.SubRegion implementations -- but where arena hands out
// and reclaims blocks of a slab without tracing what they hold, this
// package traces, finalises, and sweeps.
package region

// Kind tags what an object header currently is to the collector. Mutable
// objects alternate between Unmarked and Marked across collections; Iso,
// SCCPtr, RC, and Cown identify things the marker must never trace into
// directly.
type Kind uint8

const (
	// KindISO marks the one object that roots a region. An Iso is always
	// the last node of its region's primary ring and is never freed by a
	// normal sweep of its own region.
	KindISO Kind = iota
	// KindUnmarked is the steady-state kind of every live interior object
	// between collections.
	KindUnmarked
	// KindMarked is transient: set during mark, cleared back to Unmarked
	// by the matching sweep before GC returns.
	KindMarked
	// KindSCCPtr is a pointer into the interior of an immutable strongly
	// connected component; the marker normalises it to its SCC root
	// before recording it in the remembered set.
	KindSCCPtr
	// KindRC is an already-rooted reference-counted immutable.
	KindRC
	// KindCown is a concurrent-owner actor, referenced but never owned by
	// any region.
	KindCown
)

func (k Kind) String() string {
	switch k {
	case KindISO:
		return "iso"
	case KindUnmarked:
		return "unmarked"
	case KindMarked:
		return "marked"
	case KindSCCPtr:
		return "scc_ptr"
	case KindRC:
		return "rc"
	case KindCown:
		return "cown"
	default:
		return "unknown"
	}
}
