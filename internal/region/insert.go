package region

// InsertImmutable and InsertCown record a reference from the mutator's
// region into an immutable or a cown it does not own (§4.3). Another
// region's iso is adopted as a child by Header.AdoptSubRegion instead.
//
// transfer mirrors the spec's <transfer> template parameter: when true
// the caller already held a reference count on ref and is donating it to
// the remembered set; when false the insert acquires a fresh one. It is
// a bool argument rather than a generic parameter because, unlike the
// ISO/immutable/cown split, it changes no type, only a branch.
func InsertImmutable(into *Header, transfer bool, ref Immutable) {
	into.remembered.InsertImmutable(transfer, ref)
}

func InsertCown(into *Header, transfer bool, c Cown) {
	into.remembered.InsertCown(transfer, c)
}

// InsertExternal records that handle, held outside any region, names o.
// o.HasExtRef becomes true; Sweep and ReleaseInternal must erase the
// entry (via into's ExternalRefTable) before o is ever freed.
func InsertExternal(into *Header, o *Object, handle ExternalHandle) {
	into.extRefs.Insert(o, handle)
}
