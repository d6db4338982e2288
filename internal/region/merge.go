package region

import "github.com/orizon-lang/regiongc/internal/allocator"

// Merge absorbs region src into dst: src's iso is demoted to an ordinary
// member of dst, every member of both of src's rings is re-parented and
// reclassified against dst's iso, its remembered set and external-
// reference table are merged, and its memory accounting is folded in
// (§4.4). src is left empty and must not be used again; callers
// typically drop its Header after Merge returns.
//
// §4.1 describes appending a donated chain in O(1) by splicing it
// straight into the matching ring. That is only sound when the donated
// chain's members all share dst's iso's finaliser class, which merge
// cannot assume in general (src's own iso, and therefore src's ring
// partition, was computed against a different iso that may disagree with
// dst's on HasFinaliser). This reclassifies each member individually
// against dst's current iso instead, which is O(n) in src's member count
// but correct regardless of whether the two regions' isos agree in
// class.
//
// previous_memory_used: the collector this is modeled on computes the
// merged size-class from double the donor's previous bytes alone,
// dropping the receiver's contribution -- an open question the
// collector's own notes flag rather than resolve. This implementation
// deliberately does not reproduce that: it sums both operands' expanded
// byte counts and re-derives the size-class from the sum, matching how
// current_memory_used itself is merged (invariant 6) and giving the next
// collection's grow/shrink heuristic an honest picture of the combined
// region. The decision is recorded here rather than guessed silently.
func Merge(dst, src *Header) {
	if dst == src {
		return
	}

	dst.mu.Lock()
	src.mu.Lock()
	defer src.mu.Unlock()
	defer dst.mu.Unlock()

	oldIso := src.iso
	oldIso.kind = KindUnmarked
	oldIso.subregion = nil

	var members []*Object
	src.primaryIter(func(o *Object) bool { members = append(members, o); return true })
	src.secondaryIter(func(o *Object) bool { members = append(members, o); return true })

	for _, o := range members {
		o.container = dst
		dst.appendMember(o)
	}

	dst.remembered.Merge(src.remembered)
	dst.extRefs.Merge(src.extRefs)

	dst.currentMemoryUsed += src.currentMemoryUsed

	combinedPrev := allocator.SizeClassToSize(dst.previousMemoryUsed) + allocator.SizeClassToSize(src.previousMemoryUsed)
	dst.previousMemoryUsed = allocator.SizeToSizeClass(combinedPrev)

	src.currentMemoryUsed = 0
	src.iso = nil
	src.primary = objRing{}
	src.secondary = objRing{}
}
