package region

// SwapRoot changes which member of h's region is the iso: next becomes
// the new root and prev, the old root, is demoted to an ordinary member
// (§4.5). prev must be h's current iso; next must already be a member of
// h's rings and must not itself already root a region.
//
// If next's finaliser-need differs from prev's, every other member's ring
// assignment was computed against prev's class and is now backwards
// against next's: the member whose class matched prev now mismatches
// next, and vice versa. Since a member's own class never changes, the
// two rings' contents are still correctly partitioned relative to each
// other -- only the label is wrong -- so this exchanges which physical
// ring is primary and which is secondary in O(1) rather than
// reclassifying every member (§4.5's "the two rings are physically
// swapped").
func (h *Header) SwapRoot(prev, next *Object) {
	if prev != h.iso {
		panic(errInvalidIso("SwapRoot"))
	}

	if next.kind == KindISO {
		panic(errInvalidIso("SwapRoot: next already roots a region"))
	}

	classFlips := next.NeedsFinaliserRing() != prev.NeedsFinaliserRing()

	if !h.primary.remove(prev) {
		panic(errInvalidIso("SwapRoot: prev not found in its region's primary ring"))
	}

	if !h.primary.remove(next) && !h.secondary.remove(next) {
		panic(errInvalidIso("SwapRoot: next not found in its region's rings"))
	}

	prev.kind = KindUnmarked
	prev.subregion = nil

	next.kind = KindISO
	next.subregion = h

	if classFlips {
		// Every remaining member's correctness now depends on the new
		// iso's class; exchange which physical ring is which instead of
		// walking the membership, since the two rings' contents are
		// already correctly partitioned relative to each other -- only
		// the label needs to flip.
		h.primary, h.secondary = h.secondary, h.primary
	}

	h.iso = next
	h.primary.append(next)
	h.appendMember(prev)
}
