package region

// ReleaseInternal tears h down unconditionally: every not-root member is
// finalised (if it has one) and freed, the iso itself is finalised and
// freed, the remembered set and external-reference table are drained,
// and every sub-region any member's fields rooted is pushed onto collect
// for the caller to cascade into (§4.8). Unlike Sweep, reachability plays
// no part -- a released region's members are never coming back regardless
// of what they still point to.
//
// ReleaseInternal is what makes *Header satisfy SubRegion: it is the
// method a parent region's collect-stack dispatch calls when it finds
// this region's iso unreachable in the parent.
func (h *Header) ReleaseInternal(collect *Stack[SubRegion]) {
	finalise := func(o *Object) bool {
		if o != h.iso && o.HasFinaliser() {
			o.Finalise()
		}

		return true
	}
	h.primaryIter(finalise)
	h.secondaryIter(finalise)

	if h.iso != nil && h.iso.HasFinaliser() {
		h.iso.Finalise()
	}

	free := func(o *Object) bool {
		if o.HasPossiblyIsoFields() {
			o.FindIsoFields(collect)
		}

		if o.HasExtRef() {
			h.extRefs.Erase(o)
		}

		h.chargeFree(o.Size())

		return true
	}
	h.primaryIter(free)
	h.secondaryIter(free)

	h.remembered.SweepSet(false)

	h.primary = objRing{}
	h.secondary = objRing{}
	h.iso = nil
}

// ReleaseSubRegion satisfies region.SubRegion for *Header: it drains its
// own cascade (any further sub-regions this region's own members rooted)
// before returning, so a caller walking the top-level collect stack never
// needs to reach back into a released region's internals.
func (h *Header) ReleaseSubRegion() error {
	nested := NewStack[SubRegion](4)

	h.ReleaseInternal(nested)

	for !nested.Empty() {
		if err := nested.Pop().ReleaseSubRegion(); err != nil {
			return err
		}
	}

	return nil
}
