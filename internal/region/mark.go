package region

import (
	stderrors "github.com/orizon-lang/regiongc/internal/errors"
)

// Mark runs the tracing phase of a collection rooted at h's iso (§4.6):
// every object reachable from the iso is kinded Marked, every immutable
// or cown reachable is recorded as marked in the remembered set, and
// every other region's sub-region iso reachable has its reached bit set
// but is not traced into (the collector never traces across a region
// boundary; it only notices the boundary exists).
//
// work is caller-supplied; GC allocates one Stack per collection and
// passes it here.
func (h *Header) Mark(work *Stack[any]) {
	if h.iso == nil {
		return
	}

	work.Push(h.iso)

	for !work.Empty() {
		switch v := work.Pop().(type) {
		case *Object:
			h.markObject(v, work)
		case Immutable:
			root, _ := v.RootAndClass()
			h.remembered.MarkImmutable(root)
		case Cown:
			h.remembered.MarkCown(v)
		default:
			panic(stderrors.NewStandardError(stderrors.CategoryValidation, "UNKNOWN_WORK_ITEM",
				"Mark encountered a work-list item of unknown kind", nil))
		}
	}
}

func (h *Header) markObject(o *Object, work *Stack[any]) {
	switch o.kind {
	case KindMarked:
		return // already visited this collection
	case KindISO:
		// Every ISO-kinded object -- h's own iso included -- keeps its
		// kind across the collection; reached records reachability
		// instead of kind, since toggling kind to KindMarked would erase
		// the tag sweep relies on to know this slot roots a sub-region.
		if o.reached {
			return
		}

		o.reached = true

		if o == h.iso {
			o.Trace(work) // the root is always traced into
		}

		return // a sub-region's root is never traced into from here
	case KindSCCPtr, KindRC, KindCown:
		// Should never reach markObject directly; Trace pushes these as
		// their own interface types, not as *Object. Defensive only.
		return
	}

	o.kind = KindMarked
	o.Trace(work)
}
