package region

import "github.com/orizon-lang/regiongc/internal/allocator"

// GrowthPolicy turns the heuristic input §9 names but leaves unspecified
// -- previous_memory_used as "a GC heuristic input" -- into an actual
// decision: whether a region has grown enough since its last collection
// to be worth collecting again. It is deliberately external to Header:
// the collector itself never decides when to run, only how (§4.10 starts
// from an already-chosen iso).
type GrowthPolicy struct {
	// Factor is how many times larger current_memory_used must be than
	// the previous sweep's snapshot before ShouldCollect reports true.
	// A factor below 1 would recommend collecting a region that hasn't
	// grown at all, which is never useful, so it is clamped at 1 (which
	// still means "collect on no growth" - the exercised minimum, not an
	// error).
	Factor float64
}

// DefaultGrowthPolicy doubles live bytes before recommending another
// collection, the same shape of heuristic the size-class snapshot exists
// to support cheaply.
func DefaultGrowthPolicy() GrowthPolicy { return GrowthPolicy{Factor: 2.0} }

// ShouldCollect reports whether h has grown past this policy's threshold
// relative to the live-byte count observed at its last sweep.
func (p GrowthPolicy) ShouldCollect(h *Header) bool {
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}

	if h.PreviousMemoryUsed() == 0 {
		// No prior sweep to compare against; a region that has allocated
		// anything at all is worth its first collection.
		return h.CurrentMemoryUsed() > 0
	}

	baseline := allocator.SizeClassToSize(h.PreviousMemoryUsed())

	return float64(h.CurrentMemoryUsed()) >= float64(baseline)*factor
}
