package region

// GC runs a full collection of the region rooted at iso, then cascades
// into every sub-region that collection discovered was no longer
// reachable, regardless of whether that sub-region is this package's own
// tracing kind or a structurally-distinct kind such as internal/arena's
// free-list allocator (§4.10). The dispatch is purely interface-shaped: GC
// never asks what concrete type a SubRegion is, only calls its methods.
func GC(iso *Object) {
	h := iso.GetRegion()
	if h == nil || h.iso != iso {
		panic(errInvalidIso("GC"))
	}

	work := NewStack[any](16)
	collect := NewStack[SubRegion](4)

	h.Mark(work)
	h.Sweep(collect)

	for !collect.Empty() {
		sub := collect.Pop()
		if err := sub.ReleaseSubRegion(); err != nil {
			// A collaborator's teardown failed; the
			// collector has no way to retry a partially torn-down
			// sub-region, so this surfaces as a panic rather than a
			// silently abandoned region (§7: contract violations are
			// fatal, not recoverable).
			panic(err)
		}
	}
}
