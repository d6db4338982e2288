package region

import (
	"testing"

	"github.com/orizon-lang/regiongc/internal/allocator"
)

// nodeValue is the payload every test object carries: a label and a set of
// outgoing pointers to other objects, immutables, or cowns, which traceAll
// walks to build each descriptor's Trace function.
type nodeValue struct {
	label string
	out   []*Object
}

func tracingDescriptor(name string, hasFinaliser bool, finalised *[]string) *Descriptor {
	return &Descriptor{
		Name:         name,
		Size:         16,
		HasFinaliser: hasFinaliser,
		Trace: func(obj *Object, work *Stack[any]) {
			nv := obj.Value().(*nodeValue)
			for _, p := range nv.out {
				work.Push(p)
			}
		},
		Finalise: func(obj *Object) {
			if finalised != nil {
				nv := obj.Value().(*nodeValue)
				*finalised = append(*finalised, nv.label)
			}
		},
	}
}

func newTestAllocator() Allocator {
	return NewThreadLocalAllocator(nil)
}

func countRing(h *Header) (primary, secondary int) {
	h.primaryIter(func(*Object) bool { primary++; return true })
	h.secondaryIter(func(*Object) bool { secondary++; return true })

	return primary, secondary
}

func TestEmptyRegionGC(t *testing.T) {
	desc := tracingDescriptor("A", false, nil)
	h, a := Create(1, newTestAllocator(), desc, &nodeValue{label: "A"})

	GC(a)

	if a.Kind() != KindISO {
		t.Fatalf("iso kind after empty gc = %v, want ISO", a.Kind())
	}

	if got := h.CurrentMemoryUsed(); got != desc.Size {
		t.Fatalf("current_memory_used = %d, want %d", got, desc.Size)
	}

	primary, secondary := countRing(h)
	if primary != 1 || secondary != 0 {
		t.Fatalf("rings after empty gc = (%d,%d), want (1,0)", primary, secondary)
	}
}

func TestThreadLocalAllocatorBacksRealPool(t *testing.T) {
	alloc, err := NewPooledAllocator([]uintptr{16})
	if err != nil {
		t.Fatalf("NewPooledAllocator: %v", err)
	}

	pool, ok := alloc.Backing().(*allocator.PoolAllocatorImpl)
	if !ok {
		t.Fatalf("Backing() = %T, want *allocator.PoolAllocatorImpl", alloc.Backing())
	}

	descA := tracingDescriptor("A", false, nil)
	descB := tracingDescriptor("B", false, nil)

	h, a := Create(1, alloc, descA, &nodeValue{label: "A"})
	_ = h.Alloc(descB, &nodeValue{label: "B"})

	if got := pool.TotalAllocated(); got == 0 {
		t.Fatalf("pool TotalAllocated = %d, want > 0: Create/Alloc should reserve real pool memory", got)
	}

	a.Value().(*nodeValue).out = nil // B is unreachable once swept

	GC(a)

	if got := pool.TotalFreed(); got == 0 {
		t.Fatalf("pool TotalFreed = %d, want > 0: sweeping B should release its pool reservation", got)
	}
}

func TestThreadLocalAllocatorBacksRealArena(t *testing.T) {
	alloc, err := NewArenaBackedAllocator(4096)
	if err != nil {
		t.Fatalf("NewArenaBackedAllocator: %v", err)
	}

	arena, ok := alloc.Backing().(*allocator.ArenaAllocatorImpl)
	if !ok {
		t.Fatalf("Backing() = %T, want *allocator.ArenaAllocatorImpl", alloc.Backing())
	}

	desc := tracingDescriptor("A", false, nil)
	Create(1, alloc, desc, &nodeValue{label: "A"})

	if got := arena.TotalAllocated(); got == 0 {
		t.Fatalf("arena TotalAllocated = %d, want > 0: Create should reserve real arena memory", got)
	}
}

func TestUnreachableInterior(t *testing.T) {
	var finalised []string

	descA := tracingDescriptor("A", false, nil)
	descB := tracingDescriptor("B", true, &finalised)

	h, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	b := h.Alloc(descB, &nodeValue{label: "B"})

	GC(a)

	if len(finalised) != 1 || finalised[0] != "B" {
		t.Fatalf("finalised = %v, want [B]", finalised)
	}

	primary, secondary := countRing(h)
	if primary != 1 || secondary != 0 {
		t.Fatalf("rings after collecting B = (%d,%d), want (1,0)", primary, secondary)
	}

	if b.Kind() != KindUnmarked {
		t.Fatalf("freed object retained kind %v", b.Kind())
	}
}

func TestReachableChain(t *testing.T) {
	descA := tracingDescriptor("A", false, nil)
	descB := tracingDescriptor("B", false, nil)
	descC := tracingDescriptor("C", false, nil)

	h, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	b := h.Alloc(descB, &nodeValue{label: "B"})
	c := h.Alloc(descC, &nodeValue{label: "C"})

	a.Value().(*nodeValue).out = []*Object{b}
	b.Value().(*nodeValue).out = []*Object{c}

	GC(a)

	primary, secondary := countRing(h)
	if primary+secondary != 3 {
		t.Fatalf("surviving members = %d, want 3", primary+secondary)
	}

	want := descA.Size + descB.Size + descC.Size
	if got := h.CurrentMemoryUsed(); got != want {
		t.Fatalf("current_memory_used = %d, want %d", got, want)
	}

	for _, o := range []*Object{a, b, c} {
		if o.Kind() != KindISO && o.Kind() != KindUnmarked {
			t.Fatalf("object %q left in kind %v after gc", o.Value().(*nodeValue).label, o.Kind())
		}
	}
}

func TestMixedFinaliserRings(t *testing.T) {
	var finalised []string

	descA := tracingDescriptor("A", false, nil) // iso has no finaliser
	descB := tracingDescriptor("B", true, &finalised)
	descC := tracingDescriptor("C", false, nil)
	descD := tracingDescriptor("D", true, &finalised)

	h, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	_ = h.Alloc(descB, &nodeValue{label: "B"})
	c := h.Alloc(descC, &nodeValue{label: "C"})
	d := h.Alloc(descD, &nodeValue{label: "D"})

	// Keep C (A's no-finaliser primary ring) and D (secondary ring)
	// reachable; drop B.
	a.Value().(*nodeValue).out = []*Object{c, d}

	_, secondaryBefore := countRing(h)
	if secondaryBefore != 2 {
		t.Fatalf("secondary ring before gc = %d, want 2 (B and D)", secondaryBefore)
	}

	GC(a)

	if len(finalised) != 1 || finalised[0] != "B" {
		t.Fatalf("finalised = %v, want [B]", finalised)
	}

	primary, secondary := countRing(h)
	if primary != 2 { // A, C
		t.Fatalf("primary ring after gc = %d, want 2", primary)
	}

	if secondary != 1 { // D survives, B does not
		t.Fatalf("secondary ring after gc = %d, want 1", secondary)
	}
}

func TestSubRegionCascade(t *testing.T) {
	var finalised []string

	descA := tracingDescriptor("A", false, nil)
	descX := &Descriptor{
		Name: "X", Size: 16, HasPossiblyIsoFields: true,
		FindIsoFields: func(obj *Object, collect *Stack[SubRegion]) {
			collect.Push(obj.Rooted())
		},
	}
	descY := tracingDescriptor("Y", true, &finalised)

	h, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	hx, hxIso := Create(2, newTestAllocator(), &Descriptor{Name: "Xiso", Size: 16}, &nodeValue{label: "Xiso"})

	if hxIso.Kind() != KindISO {
		t.Fatalf("hx's own iso has kind %v, want ISO", hxIso.Kind())
	}

	// X is a regular member of A's region whose fields root the separate
	// region hx; AdoptSubRegion is exactly this wiring, the same way a
	// real caller outside this package would build it.
	x := h.AdoptSubRegion(descX, &nodeValue{label: "X"}, hx)

	_ = hx.Alloc(descY, &nodeValue{label: "Y"})

	// A never points to X: models the dropped A->X edge directly rather
	// than setting then clearing it.
	a.Value().(*nodeValue).out = nil

	GC(a)

	if len(finalised) != 1 || finalised[0] != "Y" {
		t.Fatalf("finalised = %v, want [Y] (cascade into X's region)", finalised)
	}

	if a.Kind() != KindISO {
		t.Fatalf("A's kind after cascade = %v, want ISO", a.Kind())
	}

	if x.Kind() != KindISO {
		t.Fatalf("X's kind after being swept away = %v, want ISO (kind is never touched by drop)", x.Kind())
	}
}

func TestRootSwapAcrossFinaliserClass(t *testing.T) {
	var finalised []string

	descA := tracingDescriptor("A", true, &finalised)
	descB := tracingDescriptor("B", false, nil)

	h, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	b := h.Alloc(descB, &nodeValue{label: "B"})

	if _, secondary := countRing(h); secondary != 1 {
		t.Fatalf("secondary ring before swap should hold B")
	}

	// B keeps a back-reference to A so A stays reachable once B becomes
	// the root -- otherwise the swap would simply orphan A, which is not
	// what this scenario is probing.
	b.Value().(*nodeValue).out = []*Object{a}

	h.SwapRoot(a, b)

	if b.Kind() != KindISO {
		t.Fatalf("B's kind after swap = %v, want ISO", b.Kind())
	}

	if a.Kind() != KindUnmarked {
		t.Fatalf("A's kind after swap = %v, want Unmarked", a.Kind())
	}

	primary, secondary := countRing(h)
	if primary != 1 || secondary != 1 {
		t.Fatalf("rings after swap = (%d,%d), want (1,1)", primary, secondary)
	}

	GC(b)

	if len(finalised) != 0 {
		t.Fatalf("finalised = %v, want none (A has no reachable finaliser path post-swap)", finalised)
	}

	if a.Kind() != KindUnmarked {
		t.Fatalf("A should survive the post-swap gc, got kind %v", a.Kind())
	}
}

func TestMerge(t *testing.T) {
	descA := tracingDescriptor("A", false, nil)
	descB := tracingDescriptor("B", false, nil)
	descX := tracingDescriptor("X", false, nil)
	descY := tracingDescriptor("Y", false, nil)

	h1, a := Create(1, newTestAllocator(), descA, &nodeValue{label: "A"})
	b := h1.Alloc(descB, &nodeValue{label: "B"})
	_ = a
	_ = b

	h2, x := Create(2, newTestAllocator(), descX, &nodeValue{label: "X"})
	y := h2.Alloc(descY, &nodeValue{label: "Y"})
	_ = y

	wantMemory := h1.CurrentMemoryUsed() + h2.CurrentMemoryUsed()

	Merge(h1, h2)

	if got := h1.CurrentMemoryUsed(); got != wantMemory {
		t.Fatalf("current_memory_used after merge = %d, want %d", got, wantMemory)
	}

	primary, secondary := countRing(h1)
	if primary+secondary != 4 {
		t.Fatalf("merged member count = %d, want 4", primary+secondary)
	}

	if x.Kind() != KindUnmarked {
		t.Fatalf("donor iso kind after merge = %v, want Unmarked", x.Kind())
	}

	if x.GetRegion() != h1 {
		t.Fatalf("donor iso not re-parented to receiver region")
	}
}

func TestRememberedSetInsertMarkSweep(t *testing.T) {
	rs := NewRememberedSet()
	im := NewSimpleImmutable(42)

	rs.InsertImmutable(false, im)

	if im.RefCount() != 1 {
		t.Fatalf("ref count after insert = %d, want 1", im.RefCount())
	}

	rs.MarkImmutable(im)
	rs.SweepSet(true)

	if n, _ := rs.Len(); n != 1 {
		t.Fatalf("remembered set after sweep with mark = %d, want 1", n)
	}

	rs.SweepSet(true) // not re-marked this round: should drop

	if n, _ := rs.Len(); n != 0 {
		t.Fatalf("remembered set after unmarked sweep = %d, want 0", n)
	}

	if im.RefCount() != 0 {
		t.Fatalf("ref count after drop = %d, want 0", im.RefCount())
	}
}
