// Package atom provides the process-wide intern table for symbols, strings,
// and boxed numerics, plus the tagged Atom value type used everywhere in
// Crucible's working memory, alpha network, and join network.
//
// Atom values wrap github.com/google/mangle/ast.Constant for the Sym/Str/
// Int/Float tags so equality, hashing, and the constant-kind taxonomy come
// from a real typed-term library rather than a hand-rolled enum. Tags with
// no Mangle analogue (FactRef, ExternalAddr, Multifield, Void) are native.
package atom

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/mangle/ast"
	"github.com/google/uuid"
)

// Tag identifies the kind of value an Atom carries.
type Tag int

const (
	// Void marks an uninitialized slot; assign_defaults clears it before a
	// fact becomes visible, unless the slot has no_default.
	Void Tag = iota
	Sym
	Str
	Int
	Float
	InstanceName
	FactRef
	ExternalAddr
	Multifield
)

func (t Tag) String() string {
	switch t {
	case Void:
		return "VOID"
	case Sym:
		return "SYMBOL"
	case Str:
		return "STRING"
	case Int:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case InstanceName:
		return "INSTANCE-NAME"
	case FactRef:
		return "FACT-ADDRESS"
	case ExternalAddr:
		return "EXTERNAL-ADDRESS"
	case Multifield:
		return "MULTIFIELD"
	default:
		return "UNKNOWN"
	}
}

// FactAddress is a generational reference to a fact: Index is the monotone
// fact index (spec I1), Generation distinguishes reused slots in an arena
// so a stale FactRef atom is detectable instead of dangling.
type FactAddress struct {
	Index      uint64
	Generation uint32
}

// Atom is an interned or boxed value with a reference count. Two Atoms with
// the same Tag and underlying Mangle constant compare pointer-equal once
// installed through the Table, turning join variable-equality tests into
// pointer comparisons at run time.
type Atom struct {
	tag      Tag
	constant ast.Constant // valid for Sym, Str, Int, Float, InstanceName
	fact     FactAddress  // valid for FactRef
	external uuid.UUID    // valid for ExternalAddr
	mf       *MultifieldValue

	mu       sync.Mutex
	refcount int
}

// Tag returns the atom's type tag.
func (a *Atom) Tag() Tag {
	if a == nil {
		return Void
	}
	return a.tag
}

// Refcount returns the current install count. Intended for tests and
// diagnostics, not for synchronizing across goroutines (the engine's
// contract is single-threaded; see spec.md §5).
func (a *Atom) Refcount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refcount
}

func (a *Atom) retain() *Atom {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	a.refcount++
	a.mu.Unlock()
	return a
}

// Release decrements the refcount. When it reaches zero the atom is evicted
// from the intern table (for Sym/Str/Int/Float/InstanceName) so that a
// later Intern* call can reclaim the slot; FactRef/ExternalAddr/Multifield atoms
// are simply dropped for the garbage collector.
func (a *Atom) Release(t *Table) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.refcount--
	dead := a.refcount <= 0
	a.mu.Unlock()
	if dead && t != nil {
		t.evict(a)
	}
	if dead && a.mf != nil {
		a.mf.release()
	}
}

// AsConstant exposes the underlying Mangle constant for Sym/Str/Int/Float/
// InstanceName atoms, so the beta network's secondary test evaluator and
// the RHS evaluator can hand values straight to Mangle-aware code.
func (a *Atom) AsConstant() (ast.Constant, bool) {
	switch a.tag {
	case Sym, Str, Int, Float, InstanceName:
		return a.constant, true
	default:
		return ast.Constant{}, false
	}
}

// SymbolText returns the bare CLIPS-style text of a Sym, InstanceName, or
// Str atom. Sym/InstanceName constants are backed by Mangle Name constants,
// whose Constant.Symbol carries the "/" prefix Mangle's grammar requires
// (internal/atom/intern.go's normalizeName); this strips it back off so
// callers outside the intern table never see the Mangle-internal spelling.
// Str constants have no such prefix and are returned as stored.
func (a *Atom) SymbolText() (string, bool) {
	if a == nil {
		return "", false
	}
	switch a.tag {
	case Sym, InstanceName:
		return denormalizeName(a.constant.Symbol), true
	case Str:
		return a.constant.Symbol, true
	default:
		return "", false
	}
}

// Number returns the numeric value of an Int or Float atom as a float64,
// for range tests and arithmetic builtins that don't care about the
// distinction.
func (a *Atom) Number() (float64, bool) {
	switch a.tag {
	case Int:
		return float64(a.constant.NumValue), true
	case Float:
		return math.Float64frombits(uint64(a.constant.NumValue)), true
	default:
		return 0, false
	}
}

// FactAddress returns the generational fact reference for a FactRef atom.
func (a *Atom) FactAddress() (FactAddress, bool) {
	if a.tag != FactRef {
		return FactAddress{}, false
	}
	return a.fact, true
}

// ExternalID returns the UUID identity for an ExternalAddr atom.
func (a *Atom) ExternalID() (uuid.UUID, bool) {
	if a.tag != ExternalAddr {
		return uuid.Nil, false
	}
	return a.external, true
}

// Multifield returns the backing multifield container.
func (a *Atom) Multifield() (*MultifieldValue, bool) {
	if a.tag != Multifield {
		return nil, false
	}
	return a.mf, true
}

// String renders the atom the way CLIPS-family printers do: symbols and
// instance names bare, strings quoted, numbers in their native format.
func (a *Atom) String() string {
	if a == nil || a.tag == Void {
		return "<void>"
	}
	switch a.tag {
	case Sym, InstanceName:
		return denormalizeName(a.constant.Symbol)
	case Str:
		return fmt.Sprintf("%q", a.constant.Symbol)
	case Int:
		return fmt.Sprintf("%d", a.constant.NumValue)
	case Float:
		return a.constant.String()
	case FactRef:
		return fmt.Sprintf("<Fact-%d>", a.fact.Index)
	case ExternalAddr:
		return fmt.Sprintf("<External-%s>", a.external)
	case Multifield:
		return a.mf.String()
	default:
		return "<unknown>"
	}
}

// Equal reports identity-or-value equality. Installed constants are
// pointer-equal when interned; this also handles atoms built outside the
// table (e.g. literals freshly parsed) by falling back to value equality.
func Equal(a, b *Atom) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case Sym, Str, Int, Float, InstanceName:
		return a.constant.Equals(b.constant)
	case FactRef:
		return a.fact == b.fact
	case ExternalAddr:
		return a.external == b.external
	case Multifield:
		return a.mf == b.mf
	default:
		return true // both Void
	}
}
