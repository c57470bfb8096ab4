// Package acbuilder enumerates, per component, the set of feasible
// internal (inPort, inChannel, outPort, outChannel) transitions by
// repeated cutting-plane solves against that component's model
// template, then emits the per-component connection file and adjusted
// model file the Pathfinder Compiler consumes.
package acbuilder

import (
	"fmt"
	"sort"
	"strings"
)

// Connection is one feasible internal transition through a component:
// channel InChannel entering InPort may be switched to OutChannel
// leaving OutPort.
type Connection struct {
	InPort     string
	InChannel  string
	OutPort    string
	OutChannel string
}

func (c Connection) String() string {
	return fmt.Sprintf("%s %s %s %s", c.InPort, c.InChannel, c.OutPort, c.OutChannel)
}

// ConnectionSet is the full enumeration result for one component.
type ConnectionSet struct {
	Component string
	Conns     []Connection
}

// OutChannels returns every out-channel reachable from (inPort,
// inChannel, outPort), the per-component analogue of the global
// pathfinder's IJK2Ls lookup.
func (cs *ConnectionSet) OutChannels(inPort, inChannel, outPort string) []string {
	var out []string
	for _, c := range cs.Conns {
		if c.InPort == inPort && c.InChannel == inChannel && c.OutPort == outPort {
			out = append(out, c.OutChannel)
		}
	}
	return out
}

// sortStable orders Conns by (InPort, InChannel, OutPort, OutChannel)
// so WriteConnFile's output is stable across re-runs with identical
// topology and solver behavior.
func (cs *ConnectionSet) sortStable() {
	sort.Slice(cs.Conns, func(i, j int) bool {
		a, b := cs.Conns[i], cs.Conns[j]
		if a.InPort != b.InPort {
			return a.InPort < b.InPort
		}
		if a.InChannel != b.InChannel {
			return a.InChannel < b.InChannel
		}
		if a.OutPort != b.OutPort {
			return a.OutPort < b.OutPort
		}
		return a.OutChannel < b.OutChannel
	})
}

// ConnFileText renders the "<component>.conn.txt" contents: one line
// per Connection in stable order.
func (cs *ConnectionSet) ConnFileText() string {
	cs.sortStable()
	var b strings.Builder
	for _, c := range cs.Conns {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	return b.String()
}
