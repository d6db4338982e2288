package region

// Iterator walks a region's members across both rings, primary then
// secondary (§4.9): the primary ring newest member first, ending at the
// iso, then the secondary ring in insertion order. It holds no lock across calls: a
// region's single-threaded ownership discipline (§5) means a caller
// iterating while also mutating the same region is a programmer error,
// not something the iterator tries to guard against.
type Iterator struct {
	region    *Header
	cur       *Object
	inPrimary bool
	started   bool
	done      bool
}

// NewIterator returns an iterator positioned before h's first member.
func NewIterator(h *Header) *Iterator {
	return &Iterator{region: h, inPrimary: true}
}

// Next advances to and returns the next member, or (nil, false) once both
// rings are exhausted.
func (it *Iterator) Next() (*Object, bool) {
	if it.done {
		return nil, false
	}

	if !it.started {
		it.started = true
		it.cur = it.region.primary.head
	} else {
		it.cur = it.cur.next
	}

	for it.cur == nil {
		if it.inPrimary {
			it.inPrimary = false
			it.cur = it.region.secondary.head

			continue
		}

		it.done = true

		return nil, false
	}

	return it.cur, true
}

// Reset rewinds the iterator to before the first member.
func (it *Iterator) Reset() {
	it.cur = nil
	it.inPrimary = true
	it.started = false
	it.done = false
}
