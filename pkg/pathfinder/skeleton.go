// Package pathfinder combines the topology, port-pair costs, and each
// component's enumerated AvailableConnections (from acbuilder) into a
// compile-time Skeleton: the dense injective vt table plus the
// per-channel data every pathfind/reserve request overlays live state
// onto, and (optionally) the per-device decomposed skeleton solvec
// fan-out consumes.
package pathfinder

import (
	"fmt"

	"github.com/lightpath-network/nrm/pkg/acbuilder"
	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/topology"
)

// ijkKey is the (component, inChannel, outComponentKey) index used by
// IJK2Ls for its IJK2Ls[v, j, k] lookup.
type ijkKey struct {
	Component    string
	InChannel    string
	OutComponent string
}

// Skeleton is the compiled, request-independent pathfinding problem.
// Every field here is rebuilt once from the topology and the
// Available-Connections Builder's output; request-time overlays
// (inuse_X, inuse_C, widthOK, OUT_OF_SERVICES, NextEroPorts) start from
// this skeleton's defaults and never mutate it.
type Skeleton struct {
	Model *topology.Model
	VT    *ilp.VarTable

	V                []string            // component names, declared order
	FlowInPorts      map[string][]string // component -> in-facing port names
	FlowOutPorts     map[string][]string // component -> out-facing port names
	FlowInChannels   map[string][]string // component -> channels reachable on its in-ports
	IJK2Ls           map[ijkKey][]string // (v,j,k) -> out-channels l
	AllChannels      []string
	ChNo             map[string]int
	Cost             map[ilp.Tuple]float64
	Pair             map[ilp.Tuple]int // var-id of the twin tuple, 0 if none
	WidthOK          map[string]bool   // skeleton default: every channel eligible
	ChannelRange     map[string][]string
	OutOfServices    map[ilp.Tuple]bool // skeleton default: empty
	NextEroPorts     map[string]bool    // skeleton default: empty
	DeviceComponents map[string][]string
}

// NumVars is the count of nonzero vt entries, the skeleton's NUM_VARS.
func (s *Skeleton) NumVars() int {
	return s.VT.NumVars()
}

// Compile builds a Skeleton from model and the per-component connection
// sets produced by acbuilder.Build.
func Compile(model *topology.Model, conns map[string]*acbuilder.ConnectionSet) (*Skeleton, error) {
	s := &Skeleton{
		Model:            model,
		VT:               ilp.NewVarTable(),
		FlowInPorts:      map[string][]string{},
		FlowOutPorts:     map[string][]string{},
		FlowInChannels:   map[string][]string{},
		IJK2Ls:           map[ijkKey][]string{},
		ChNo:             map[string]int{},
		Cost:             map[ilp.Tuple]float64{},
		Pair:             map[ilp.Tuple]int{},
		WidthOK:          map[string]bool{},
		ChannelRange:     map[string][]string{},
		OutOfServices:    map[ilp.Tuple]bool{},
		NextEroPorts:     map[string]bool{},
		DeviceComponents: map[string][]string{},
	}

	for _, ch := range model.AllChannels() {
		name := ch.Name()
		s.AllChannels = append(s.AllChannels, name)
		s.ChNo[name] = ch.No
		s.WidthOK[name] = true
		s.ChannelRange[name] = []string{name}
	}

	for _, comp := range model.Components() {
		s.V = append(s.V, comp.Name)
		if comp.SolvecEligible() {
			s.DeviceComponents[comp.Name] = []string{comp.Name}
		}

		for _, p := range model.PortsOf(comp) {
			if p.IO == topology.PortInput || p.IO == topology.PortBidi {
				s.FlowInPorts[comp.Name] = append(s.FlowInPorts[comp.Name], p.Name)
				s.FlowInChannels[comp.Name] = appendUniqueStrings(s.FlowInChannels[comp.Name], channelsOf(model, p)...)
			}
			if p.IO == topology.PortOutput || p.IO == topology.PortBidi {
				s.FlowOutPorts[comp.Name] = append(s.FlowOutPorts[comp.Name], p.Name)
			}
		}

		cs := conns[comp.Name]
		if cs == nil {
			continue
		}
		for _, c := range cs.Conns {
			inPort, ok := model.PortByName(c.InPort)
			if !ok {
				return nil, fmt.Errorf("pathfinder: connection references unknown port %s", c.InPort)
			}
			outPort, ok := model.PortByName(c.OutPort)
			if !ok {
				return nil, fmt.Errorf("pathfinder: connection references unknown port %s", c.OutPort)
			}

			k := neighborComponentKey(model, outPort)
			tuple := ilp.Tuple{Component: comp.Name, InChannel: c.InChannel, OutComponent: k, OutChannel: c.OutChannel}
			s.VT.Assign(tuple)

			key := ijkKey{Component: comp.Name, InChannel: c.InChannel, OutComponent: k}
			s.IJK2Ls[key] = appendUniqueStrings(s.IJK2Ls[key], c.OutChannel)

			s.Cost[tuple] = componentTransitionCost(model, comp, inPort, outPort, s.ChNo[c.InChannel], s.ChNo[c.OutChannel])
		}
	}

	// Second pass: pair[] requires every tuple already assigned, since a
	// twin may be discovered by a connection processed later than its
	// counterpart.
	for _, comp := range model.Components() {
		cs := conns[comp.Name]
		if cs == nil {
			continue
		}
		for _, c := range cs.Conns {
			inPort, _ := model.PortByName(c.InPort)
			outPort, _ := model.PortByName(c.OutPort)
			if inPort.IO != topology.PortBidi || outPort.IO != topology.PortBidi {
				continue
			}
			k := neighborComponentKey(model, outPort)
			tuple := ilp.Tuple{Component: comp.Name, InChannel: c.InChannel, OutComponent: k, OutChannel: c.OutChannel}

			twinK := neighborComponentKey(model, inPort)
			twin := ilp.Tuple{Component: comp.Name, InChannel: c.OutChannel, OutComponent: twinK, OutChannel: c.InChannel}
			if id := s.VT.Lookup(twin); id != 0 {
				s.Pair[tuple] = id
			}
		}
	}

	return s, nil
}

// neighborComponentKey resolves the out-port-as-component-key
// convention: the name of the component on the other side of p's
// port-pair, or "" when p has no pair (a topology-boundary port, the
// ultimate src/dst of a request).
func neighborComponentKey(model *topology.Model, p *topology.Port) string {
	pp, ok := model.PairFor(p)
	if !ok {
		return ""
	}
	opp, ok := model.OppositePort(pp, p)
	if !ok {
		return ""
	}
	return model.ComponentOf(opp).Name
}

// componentTransitionCost is Component cost(v) + PortPair cost at the
// incoming side + PortPair cost at the outgoing side, plus the
// 0.0001*(chNo[j]+chNo[l]) low-channel-number tiebreak.
func componentTransitionCost(model *topology.Model, comp *topology.Component, inPort, outPort *topology.Port, inChNo, outChNo int) float64 {
	cost := comp.Cost
	if pp, ok := model.PairFor(inPort); ok {
		cost += pp.Cost
	}
	if pp, ok := model.PairFor(outPort); ok {
		cost += pp.Cost
	}
	cost += 0.0001 * float64(inChNo+outChNo)
	return cost
}

func channelsOf(model *topology.Model, p *topology.Port) []string {
	var out []string
	for _, tableID := range p.SupPortChannel {
		ct, ok := model.ChannelTable(tableID)
		if !ok {
			continue
		}
		for _, ch := range ct.Channels {
			out = append(out, ch.Name())
		}
	}
	return out
}

func appendUniqueStrings(existing []string, add ...string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, a := range add {
		if !seen[a] {
			existing = append(existing, a)
			seen[a] = true
		}
	}
	return existing
}
