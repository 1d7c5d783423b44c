package fact

import "crucible/internal/atom"

// AlphaMembership is a handle an alpha memory hands back when a fact
// passes one of its pattern nodes. Retract walks a fact's membership list
// and calls Remove on each, instead of re-sweeping the whole network
// (spec.md §4.3).
type AlphaMembership interface {
	Remove()
}

// Fact is a single working-memory record. Index is the spec's monotone
// `index`; Generation lets a FactAddress atom detect reuse without
// dangling pointers (spec.md §9's generational-index design note).
type Fact struct {
	Index      uint64
	Generation uint32
	TimeTag    uint64

	Template *Template
	Slots    []*atom.Atom

	// BasisSlots is an optional snapshot of Slots taken when the fact
	// becomes a partial-match basis, so later in-place `modify` calls
	// cannot change what a still-live partial match believes it matched
	// against.
	BasisSlots []*atom.Atom

	hash uint64

	Garbage    bool
	BusyCount  int
	Memberships []AlphaMembership

	// Supports is an opaque list of TMS support handles; only the tms
	// package interprets its contents (spec.md §4.7).
	Supports []any

	// global list links
	next, prev *Fact
	// per-template list links
	templateNext, templatePrev *Fact
}

// IsDeleted reports whether the fact has been moved to the garbage list.
func (f *Fact) IsDeleted() bool { return f == nil || f.Garbage }

// Address returns the fact's generational reference, suitable for boxing
// into a FactRef atom.
func (f *Fact) Address() atom.FactAddress {
	return atom.FactAddress{Index: f.Index, Generation: f.Generation}
}

// Retain increments the busy count (spec invariant I7): a partial match or
// an external hold is about to reference this fact.
func (f *Fact) Retain() { f.BusyCount++ }

// Release decrements the busy count. It never reclaims memory itself —
// that is the Store's job at the end of the enclosing garbage-frame epoch
// (spec.md §9, deferred free).
func (f *Fact) Release() {
	if f.BusyCount > 0 {
		f.BusyCount--
	}
}

// Slot returns the value at a named slot, or nil if unknown.
func (f *Fact) Slot(name string) *atom.Atom {
	idx := f.Template.SlotIndex(name)
	if idx < 0 || idx >= len(f.Slots) {
		return nil
	}
	return f.Slots[idx]
}

// SnapshotBasis copies the current slot vector into BasisSlots. Invoked
// once, the first time the fact becomes the basis of a partial match.
func (f *Fact) SnapshotBasis() {
	if f.BasisSlots != nil {
		return
	}
	f.BasisSlots = append([]*atom.Atom(nil), f.Slots...)
}
