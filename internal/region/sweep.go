package region

// isReachable reports whether o survived this collection's mark pass.
// ISO-kinded members (those rooting a child sub-region) record this via
// the reached bit rather than a kind change; every other kind uses
// KindMarked.
func isReachable(o *Object) bool {
	if o.kind == KindISO {
		return o.reached
	}

	return o.kind == KindMarked
}

// Sweep runs the collection phase following Mark (§4.7), across both
// rings. Phase A walks every member of both rings and runs exactly one
// finaliser call on each unreachable one that has one, before anything is
// freed: a finaliser must be able to observe other unreachable objects'
// fields exactly as they were at the point of death, not already
// half-torn-down. Phase B then frees every unreachable member from both
// rings, and scans each freed member's descriptor for iso-rooted fields
// to push their sub-regions onto collect for the caller to release
// (§4.10 cascades from there).
//
// Every surviving member has its transient mark state (Marked kind, or
// the reached bit for ISO members) cleared before Sweep returns, so the
// next collection starts from steady state.
func (h *Header) Sweep(collect *Stack[SubRegion]) {
	finaliseIfDying := func(o *Object) {
		if !isReachable(o) && o.HasFinaliser() {
			o.Finalise()
		}
	}

	h.primaryIter(func(o *Object) bool {
		if o != h.iso {
			finaliseIfDying(o)
		}

		return true
	})
	h.secondaryIter(func(o *Object) bool {
		finaliseIfDying(o)
		return true
	})

	drop := func(o *Object) {
		if o.HasPossiblyIsoFields() {
			o.FindIsoFields(collect)
		}

		if o.HasExtRef() {
			h.extRefs.Erase(o)
		}

		h.chargeFree(o.Size())
	}

	keep := func(o *Object) bool {
		if o == h.iso {
			o.reached = false
			return true
		}

		survives := isReachable(o)

		if o.kind == KindISO {
			o.reached = false
		} else if o.kind == KindMarked {
			o.kind = KindUnmarked
		}

		return survives
	}

	h.splicePrimary(keep, drop)
	h.spliceSecondary(keep, drop)

	h.remembered.SweepSet(true)

	h.previousMemoryUsed = sizeToSizeClass(h.allocator, h.currentMemoryUsed)
}
