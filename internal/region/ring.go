package region

// objRing is one of a region's two intrusive singly-linked lists,
// represented by explicit head/tail pointers rather than aliasing the
// region header as a circular sentinel: §9's design notes call this out
// as the alternative to sentinel-aliasing "in implementations where such
// aliasing is awkward", which it is here -- swap_root needs to exchange
// an entire ring's identity (which one is "primary") in O(1), and that
// is a pointer-field swap against this representation but would require
// relinking every member against an embedded-sentinel one.
type objRing struct {
	head *Object
	tail *Object
}

func (r *objRing) empty() bool { return r.head == nil }

// append adds o at the ring's tail.
func (r *objRing) append(o *Object) {
	o.next = nil

	if r.head == nil {
		r.head = o
		r.tail = o
		return
	}

	r.tail.next = o
	r.tail = o
}

// prepend adds o at the ring's head.
func (r *objRing) prepend(o *Object) {
	o.next = r.head
	r.head = o
	if r.tail == nil {
		r.tail = o
	}
}

// appendChain splices an already-linked head..tail run onto the ring's
// tail in one O(1) operation (§4.1's "splice a chain when merging").
// Merge does not use it: it reclassifies and appends members one by one.
func (r *objRing) appendChain(head, tail *Object) {
	if head == nil {
		return
	}

	if r.head == nil {
		r.head = head
	} else {
		r.tail.next = head
	}

	r.tail = tail
}

// remove splices target out of the ring, wherever it is. Reports whether
// target was found. Used only by SwapRoot, which is rare enough that an
// O(n) scan is preferable to threading a back-pointer through every
// Object for O(1) removal.
func (r *objRing) remove(target *Object) bool {
	var prev *Object

	for cur := r.head; cur != nil; prev, cur = cur, cur.next {
		if cur != target {
			continue
		}

		if prev == nil {
			r.head = cur.next
		} else {
			prev.next = cur.next
		}

		if r.tail == cur {
			r.tail = prev
		}

		cur.next = nil

		return true
	}

	return false
}

func (r *objRing) iter(visit func(*Object) bool) {
	for cur := r.head; cur != nil; cur = cur.next {
		if !visit(cur) {
			return
		}
	}
}

// splice rebuilds the ring keeping only members for which keep returns
// true, invoking drop on each removed member.
func (r *objRing) splice(keep func(*Object) bool, drop func(*Object)) {
	var head, tail *Object

	for cur := r.head; cur != nil; {
		next := cur.next

		if keep(cur) {
			cur.next = nil
			if head == nil {
				head = cur
				tail = cur
			} else {
				tail.next = cur
				tail = cur
			}
		} else {
			drop(cur)
		}

		cur = next
	}

	r.head = head
	r.tail = tail
}

// needsFinaliserRing reports whether o belongs in the finaliser ring
// given iso's own finaliser-need (Invariant 2): the predicate an append
// must match against, not against a ring's current contents.
func needsFinaliserRing(iso, o *Object) bool {
	return o.NeedsFinaliserRing() == iso.NeedsFinaliserRing()
}

// appendMember routes o into whichever of h's two rings matches its
// finaliser-need against the current iso's (§4.1). Primary-ring members
// go in at the head so that the iso stays the primary ring's tail.
func (h *Header) appendMember(o *Object) {
	if needsFinaliserRing(h.iso, o) {
		h.primary.prepend(o)
	} else {
		h.secondary.append(o)
	}
}

func (h *Header) primaryIter(visit func(*Object) bool)   { h.primary.iter(visit) }
func (h *Header) secondaryIter(visit func(*Object) bool) { h.secondary.iter(visit) }

func (h *Header) splicePrimary(keep func(*Object) bool, drop func(*Object)) {
	h.primary.splice(keep, drop)
}

func (h *Header) spliceSecondary(keep func(*Object) bool, drop func(*Object)) {
	h.secondary.splice(keep, drop)
}
