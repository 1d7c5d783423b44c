package fact

import (
	"fmt"
	"hash/fnv"

	"crucible/internal/atom"
)

// Store is the working-memory data plane: the ordered global fact list
// keyed by monotone index, the hash index used for duplicate suppression,
// and the deferred-free garbage list (spec.md §3).
type Store struct {
	nextIndex   uint64
	nextTimeTag uint64

	head, tail *Fact
	count      int

	// hashIndex maps canonical content hash to candidate facts sharing
	// that hash, for O(1)-expected duplicate detection (spec.md §4.3's
	// "hashed alpha" idea applied one level up, to whole-fact content).
	hashIndex map[uint64][]*Fact

	garbage []*Fact

	// DuplicateCheck mirrors CLIPS's set-fact-duplication behavior: when
	// true, asserting a fact whose content already exists in the store is
	// rejected (spec.md §8, scenario f).
	DuplicateCheck bool
}

// NewStore constructs an empty working memory with duplicate checking on,
// the CLIPS default. Fact indexes start at 1, so the first fact is f-1.
func NewStore() *Store {
	return &Store{
		nextIndex:      1,
		hashIndex:      make(map[uint64][]*Fact),
		DuplicateCheck: true,
	}
}

// NextIndex previews the index the next assert would receive, without
// consuming it.
func (s *Store) NextIndex() uint64 { return s.nextIndex }

// Count returns the number of live (non-garbage) facts.
func (s *Store) Count() int { return s.count }

// All returns the live facts in assert order.
func (s *Store) All() []*Fact {
	out := make([]*Fact, 0, s.count)
	for f := s.head; f != nil; f = f.next {
		out = append(out, f)
	}
	return out
}

func contentHash(tmpl *Template, slots []*atom.Atom) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tmpl.Name))
	for _, v := range slots {
		_, _ = h.Write([]byte{byte(v.Tag())})
		_, _ = h.Write([]byte(v.String()))
	}
	return h.Sum64()
}

func (s *Store) findDuplicate(tmpl *Template, slots []*atom.Atom, h uint64) *Fact {
	for _, cand := range s.hashIndex[h] {
		if cand.Garbage || cand.Template != tmpl || len(cand.Slots) != len(slots) {
			continue
		}
		same := true
		for i := range slots {
			if !atom.Equal(cand.Slots[i], slots[i]) {
				same = false
				break
			}
		}
		if same {
			return cand
		}
	}
	return nil
}

// AssignDefaults walks slot definitions, filling Void slots per their
// DefaultKind (spec.md §4.2). It returns an error naming the first
// NoDefault slot that is still Void.
func AssignDefaults(tmpl *Template, slots []*atom.Atom) error {
	for i, def := range tmpl.Slots {
		if i >= len(slots) || slots[i] != nil && slots[i].Tag() != atom.Void {
			continue
		}
		switch def.Default {
		case StaticDefault:
			if def.StaticVal != nil {
				slots[i] = def.StaticVal
			}
		case DynamicDefault:
			if def.DynamicFn != nil {
				v, err := def.DynamicFn()
				if err != nil {
					return fmt.Errorf("slot %s dynamic default: %w", def.Name, err)
				}
				slots[i] = v
			}
		case NoDefault:
			if slots[i] == nil || slots[i].Tag() == atom.Void {
				return fmt.Errorf("slot %s has no value and no default", def.Name)
			}
		}
	}
	return nil
}

// ValidateSlots checks every slot's tag/kind/constraint agreement.
func ValidateSlots(tmpl *Template, slots []*atom.Atom) error {
	for i, def := range tmpl.Slots {
		if i >= len(slots) {
			return fmt.Errorf("slot %s missing", def.Name)
		}
		v := slots[i]
		if v == nil {
			continue
		}
		if def.Kind == SingleSlot && v.Tag() == atom.Multifield {
			return fmt.Errorf("slot %s is single-valued but received a multifield", def.Name)
		}
		if def.Kind == MultiSlot && v.Tag() != atom.Multifield && v.Tag() != atom.Void {
			return fmt.Errorf("slot %s is multi-valued but received a scalar", def.Name)
		}
		if def.Constraint != nil {
			if v.Tag() == atom.Multifield {
				mf, _ := v.Multifield()
				for j := 0; j < mf.Len(); j++ {
					if viol := def.Constraint.Check(mf.At(j)); viol != nil {
						return fmt.Errorf("slot %s element %d: %w", def.Name, j, viol)
					}
				}
			} else if viol := def.Constraint.Check(v); viol != nil {
				return fmt.Errorf("slot %s: %w", def.Name, viol)
			}
		}
	}
	return nil
}

// Assert inserts a new fact. It assigns defaults, validates constraints,
// and — unless DuplicateCheck is off — rejects content-equal facts,
// returning (nil, nil) in that case much like CLIPS's assert
// returning FALSE (spec.md §8, scenario f).
func (s *Store) Assert(tmpl *Template, slots []*atom.Atom) (*Fact, error) {
	if err := AssignDefaults(tmpl, slots); err != nil {
		return nil, err
	}
	if err := ValidateSlots(tmpl, slots); err != nil {
		return nil, err
	}

	h := contentHash(tmpl, slots)
	if s.DuplicateCheck {
		if dup := s.findDuplicate(tmpl, slots, h); dup != nil {
			return nil, nil
		}
	}

	f := &Fact{
		Index:    s.nextIndex,
		TimeTag:  s.nextTimeTag,
		Template: tmpl,
		Slots:    slots,
		hash:     h,
	}
	s.nextIndex++
	s.nextTimeTag++

	s.linkGlobal(f)
	tmpl.linkFact(f)
	s.hashIndex[h] = append(s.hashIndex[h], f)
	s.count++
	return f, nil
}

// reassertPreservingIdentity is used by `modify` to reinsert a fact under
// its original Index/Generation, so downstream FactRef atoms stay valid
// (spec.md §4.8).
func (s *Store) reassertPreservingIdentity(f *Fact, newSlots []*atom.Atom) error {
	if err := AssignDefaults(f.Template, newSlots); err != nil {
		return err
	}
	if err := ValidateSlots(f.Template, newSlots); err != nil {
		return err
	}
	f.Slots = newSlots
	f.BasisSlots = nil
	f.hash = contentHash(f.Template, newSlots)
	f.Garbage = false
	f.TimeTag = s.nextTimeTag
	s.nextTimeTag++

	s.linkGlobal(f)
	f.Template.linkFact(f)
	s.hashIndex[f.hash] = append(s.hashIndex[f.hash], f)
	s.count++
	return nil
}

// Modify implements `modify(fact, slot←value, …)` (spec.md §4.8): retract
// flagged as a modify operation, then reassert under the same index and
// generation, so downstream FactRef atoms and the watch trace see only
// the changed slots. The list position is not kept: the reasserted fact
// is re-linked at the tail of the global and per-template fact lists.
func (s *Store) Modify(f *Fact, newSlots []*atom.Atom) error {
	s.Retract(f, true)
	return s.reassertPreservingIdentity(f, newSlots)
}

func (s *Store) linkGlobal(f *Fact) {
	f.prev = s.tail
	f.next = nil
	if s.tail != nil {
		s.tail.next = f
	} else {
		s.head = f
	}
	s.tail = f
}

func (s *Store) unlinkGlobal(f *Fact) {
	if f.prev != nil {
		f.prev.next = f.next
	} else {
		s.head = f.next
	}
	if f.next != nil {
		f.next.prev = f.prev
	} else {
		s.tail = f.prev
	}
	f.next, f.prev = nil, nil
}

// Retract moves a fact to the garbage list. Per invariant I2, a garbage
// fact is immediately removed from the hash index and the global/template
// lists, but its slot payload is only dropped when the Sweep epoch runs
// (alpha memberships are already gone by then), so that pointers taken during the
// current traversal remain valid (spec.md §4.4, "garbage partial match").
//
// modifyOperation, when true, skips bumping Generation and leaves the fact
// off the garbage list — it is about to be reasserted in place by modify
// (spec.md §4.8) and must not look deleted to a concurrent traversal that
// already holds its address.
func (s *Store) Retract(f *Fact, modifyOperation bool) {
	if f.Garbage {
		return
	}
	s.unlinkGlobal(f)
	f.Template.unlinkFact(f)
	s.removeFromHashIndex(f)
	s.count--

	if modifyOperation {
		return
	}
	f.Garbage = true
	f.Generation++
	s.garbage = append(s.garbage, f)
}

func (s *Store) removeFromHashIndex(f *Fact) {
	bucket := s.hashIndex[f.hash]
	for i, cand := range bucket {
		if cand == f {
			s.hashIndex[f.hash] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
}

// Sweep reclaims every garbage fact whose BusyCount has dropped to zero.
// Alpha/beta network teardown already happened synchronously at retract
// time (the caller runs alpha.Retract, which propagates through the beta
// network, before calling Store.Retract) — by the time a fact reaches
// Sweep its Memberships list is already empty. Sweep's only job is
// dropping the fact's own payload once nothing still holds it busy.
// Facts still referenced by a live partial match or external hold are
// left for the next Sweep. Returns the facts actually reclaimed.
func (s *Store) Sweep() []*Fact {
	var reclaimed, kept []*Fact
	for _, f := range s.garbage {
		if f.BusyCount > 0 {
			kept = append(kept, f)
			continue
		}
		f.Memberships = nil
		f.Slots = nil
		f.BasisSlots = nil
		reclaimed = append(reclaimed, f)
	}
	s.garbage = kept
	return reclaimed
}

// GarbageLen reports how many facts are awaiting reclamation, for tests
// and `watch` diagnostics.
func (s *Store) GarbageLen() int { return len(s.garbage) }

// Clear tears down the entire store. Templates are left to the caller
// (the engine owns template lifecycle across modules).
func (s *Store) Clear() {
	s.head, s.tail = nil, nil
	s.count = 0
	s.garbage = nil
	s.hashIndex = make(map[uint64][]*Fact)
}
