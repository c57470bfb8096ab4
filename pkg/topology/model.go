package topology

import (
	"sort"
	"strings"
)

// Model is the immutable, arena-backed topology. All cross-references
// (Component→Port, PortPair→Port) are integer indices into the slices
// below, never pointers, so the graph has no ownership cycles to manage.
type Model struct {
	channelTables map[string]*ChannelTable // keyed by id, optical only
	components    []Component
	componentIx   map[string]int
	ports         []Port
	portIx        map[string]int
	portPairs     []PortPair
}

// ChannelTables returns the retained (optical) channel tables, sorted
// by id.
func (m *Model) ChannelTables() []*ChannelTable {
	out := make([]*ChannelTable, 0, len(m.channelTables))
	for _, ct := range m.channelTables {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChannelTable looks up a retained channel table by id.
func (m *Model) ChannelTable(id string) (*ChannelTable, bool) {
	ct, ok := m.channelTables[id]
	return ct, ok
}

// AllChannels returns every channel across every retained channel table,
// ordered (table, no) — the default trial order when -ch is absent.
func (m *Model) AllChannels() []Channel {
	var out []Channel
	for _, ct := range m.ChannelTables() {
		out = append(out, ct.Channels...)
	}
	return out
}

// Components returns all components in declared order.
func (m *Model) Components() []*Component {
	out := make([]*Component, len(m.components))
	for i := range m.components {
		out[i] = &m.components[i]
	}
	return out
}

// ComponentByName looks up a component by name.
func (m *Model) ComponentByName(name string) (*Component, bool) {
	i, ok := m.componentIx[name]
	if !ok {
		return nil, false
	}
	return &m.components[i], true
}

// Ports returns all ports in declared order.
func (m *Model) Ports() []*Port {
	out := make([]*Port, len(m.ports))
	for i := range m.ports {
		out[i] = &m.ports[i]
	}
	return out
}

// PortByName looks up a port by its canonical "{component}_{number}" name
// or by its display name; a canonical name wins where the two collide.
func (m *Model) PortByName(name string) (*Port, bool) {
	i, ok := m.portIx[name]
	if !ok {
		return nil, false
	}
	return &m.ports[i], true
}

// PortsByDirection returns ports matching io, in declared order.
func (m *Model) PortsByDirection(io PortIO) []*Port {
	var out []*Port
	for i := range m.ports {
		if m.ports[i].IO == io {
			out = append(out, &m.ports[i])
		}
	}
	return out
}

// ComponentOf returns the component owning p.
func (m *Model) ComponentOf(p *Port) *Component {
	return &m.components[p.componentIx]
}

// PortsOf returns c's ports in declared order.
func (m *Model) PortsOf(c *Component) []*Port {
	out := make([]*Port, len(c.PortIdx))
	for i, idx := range c.PortIdx {
		out[i] = &m.ports[idx]
	}
	return out
}

// PortPairs returns all port-pairs in declared order.
func (m *Model) PortPairs() []*PortPair {
	out := make([]*PortPair, len(m.portPairs))
	for i := range m.portPairs {
		out[i] = &m.portPairs[i]
	}
	return out
}

// PairFor returns the PortPair connecting p to its neighbor, if any.
func (m *Model) PairFor(p *Port) (*PortPair, bool) {
	for i := range m.portPairs {
		pp := &m.portPairs[i]
		if pp.Endpoints[0] == p.idx || pp.Endpoints[1] == p.idx {
			return pp, true
		}
	}
	return nil, false
}

// OppositePort returns the other endpoint of pp relative to p.
func (m *Model) OppositePort(pp *PortPair, p *Port) (*Port, bool) {
	if pp.Endpoints[0] == p.idx {
		return &m.ports[pp.Endpoints[1]], true
	}
	if pp.Endpoints[1] == p.idx {
		return &m.ports[pp.Endpoints[0]], true
	}
	return nil, false
}

// OppositeBidi finds the opposite bidi port of p by flipping a trailing
// "IN"/"OUT" substring of its display name.
func (m *Model) OppositeBidi(p *Port) (*Port, bool) {
	if p.IO != PortBidi {
		return nil, false
	}
	var flipped string
	switch {
	case strings.HasSuffix(p.DisplayName, "IN"):
		flipped = strings.TrimSuffix(p.DisplayName, "IN") + "OUT"
	case strings.HasSuffix(p.DisplayName, "OUT"):
		flipped = strings.TrimSuffix(p.DisplayName, "OUT") + "IN"
	default:
		return nil, false
	}
	for i := range m.ports {
		if m.ports[i].DisplayName == flipped && m.ports[i].componentIx == p.componentIx {
			return &m.ports[i], true
		}
	}
	return nil, false
}

// SharesChannelTable reports whether a and b have at least one supported
// channel table in common.
func (m *Model) SharesChannelTable(a, b *Port) bool {
	set := make(map[string]struct{}, len(a.SupPortChannel))
	for _, id := range a.SupPortChannel {
		set[id] = struct{}{}
	}
	for _, id := range b.SupPortChannel {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Validate re-checks core invariants: unique port names and consistent
// port-pair channel tables. vt invertibility is checked separately by
// the pathfinder package once vt is built.
func (m *Model) Validate() []error {
	var errs []error

	seen := make(map[string]bool, len(m.ports))
	for i := range m.ports {
		name := m.ports[i].Name
		if seen[name] {
			errs = append(errs, &dupPortNameError{Name: name})
		}
		seen[name] = true
	}

	for i := range m.portPairs {
		pp := &m.portPairs[i]
		a := &m.ports[pp.Endpoints[0]]
		b := &m.ports[pp.Endpoints[1]]
		if !m.SharesChannelTable(a, b) {
			errs = append(errs, &inconsistentPairError{Key: pp.Key, A: a.Name, B: b.Name})
		}
	}

	return errs
}

type dupPortNameError struct{ Name string }

func (e *dupPortNameError) Error() string {
	return "duplicate port name: " + e.Name
}

type inconsistentPairError struct{ Key, A, B string }

func (e *inconsistentPairError) Error() string {
	return "port-pair " + e.Key + " endpoints " + e.A + " and " + e.B + " share no supported channel table"
}
