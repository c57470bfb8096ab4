// Package ilp holds primitives shared by the Available-Connections
// Builder, Pathfinder Compiler, and Reservation Engine: the injective
// variable table (vt), deterministic key ordering, and GLPK model
// template rendering.
package ilp

import (
	"fmt"
	"sort"
)

// Tuple identifies one potential internal transition: channel j entering
// component i may be switched to channel l leaving component k (k is
// itself a component name, the out-port-as-component-key convention
// this codebase uses throughout the tuple space).
type Tuple struct {
	Component    string
	InChannel    string
	OutComponent string
	OutChannel   string
}

// VarTable is the compile-time skeleton mapping a Tuple to a dense,
// positive, unique variable id. Zero means "no variable / infeasible
// tuple" and is never assigned to a real Tuple.
type VarTable struct {
	ids     map[Tuple]int
	tuples  []Tuple // ids[tuples[i]] == i+1, for deterministic iteration
}

// NewVarTable creates an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{ids: make(map[Tuple]int)}
}

// Assign adds t to the table if absent and returns its var-id. Calling
// Assign twice with the same Tuple returns the same id (idempotent),
// preserving injectivity.
func (vt *VarTable) Assign(t Tuple) int {
	if id, ok := vt.ids[t]; ok {
		return id
	}
	vt.tuples = append(vt.tuples, t)
	id := len(vt.tuples)
	vt.ids[t] = id
	return id
}

// Lookup returns the var-id for t, or 0 if t was never assigned.
func (vt *VarTable) Lookup(t Tuple) int {
	return vt.ids[t]
}

// TupleForID returns the Tuple for a 1-based var-id, or the zero Tuple
// and false if id is out of range.
func (vt *VarTable) TupleForID(id int) (Tuple, bool) {
	if id < 1 || id > len(vt.tuples) {
		return Tuple{}, false
	}
	return vt.tuples[id-1], true
}

// NumVars returns the count of assigned (nonzero) variables.
func (vt *VarTable) NumVars() int {
	return len(vt.tuples)
}

// Invertible reports whether every assigned var-id maps back to exactly
// one Tuple (it always does by construction; kept to catch bugs in
// future mutators).
func (vt *VarTable) Invertible() bool {
	seen := make(map[int]Tuple, len(vt.tuples))
	for t, id := range vt.ids {
		if other, ok := seen[id]; ok && other != t {
			return false
		}
		seen[id] = t
	}
	return true
}

// SortedTuples returns all assigned tuples ordered by var-id, the
// deterministic order the data-file renderer iterates in.
func (vt *VarTable) SortedTuples() []Tuple {
	out := make([]Tuple, len(vt.tuples))
	copy(out, vt.tuples)
	return out
}

// String renders a Tuple for diagnostics as its four space-separated fields.
func (t Tuple) String() string {
	return fmt.Sprintf("%s %s %s %s", t.Component, t.InChannel, t.OutComponent, t.OutChannel)
}

// SortStrings is a small determinism helper used by data-file renderers
// that need stable key ordering beyond a VarTable's own insertion order
// (e.g. component names, which are rendered in declared topology order
// and so are passed in pre-sorted already; this exists for the few call
// sites — diagnostics, test fixtures — that start from an unordered set).
func SortStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
