package engine

import (
	"fmt"

	"github.com/lightpath-network/nrm/pkg/registry"
	"github.com/lightpath-network/nrm/pkg/topology"
)

// segment is one leg of a request after ERO splitting: src port, dst
// port, and the ERO ports that must not appear in this leg's route
// because a later segment still needs to reach them.
type segment struct {
	Src          string
	Dst          string
	NextEroPorts []string
}

// buildSegments splits src->dst into n+1 segments around an ERO list:
// src->p1, p1->p2, ..., pn->dst. A segment's NextEroPorts is the ERO
// ports still unvisited after it, which must remain reachable by later
// segments and so are excluded from this one's route.
func buildSegments(src, dst string, ero []string) []segment {
	points := make([]string, 0, len(ero)+2)
	points = append(points, src)
	points = append(points, ero...)
	points = append(points, dst)

	segs := make([]segment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		var next []string
		if i+1 < len(ero) {
			next = append(next, ero[i+1:]...)
		}
		segs = append(segs, segment{Src: points[i], Dst: points[i+1], NextEroPorts: next})
	}
	return segs
}

func (s *Server) componentForPort(portName string) (string, bool) {
	p, ok := s.Model.PortByName(portName)
	if !ok {
		return "", false
	}
	return s.Model.ComponentOf(p).Name, true
}

// orderPath chains a solution's x-set tuples starting from the
// component that owns startPort, following OutComponent links until a
// topology-boundary tuple (OutComponent == "") ends the chain.
func orderPath(sol registry.Solution, startComponent string) []string {
	byComp := map[string]string{}
	for _, t := range sol.X {
		byComp[t.Component] = t.OutComponent
	}

	var order []string
	cur := startComponent
	seen := map[string]bool{}
	for {
		next, ok := byComp[cur]
		if !ok || seen[cur] {
			break
		}
		seen[cur] = true
		order = append(order, cur)
		if next == "" {
			break
		}
		cur = next
	}
	return order
}

// renderRouteLines renders one line per selected tuple along the path
// starting at startComponent, in path order, for operator readability.
func (s *Server) renderRouteLines(startComponent string, sol registry.Solution) []string {
	tupleByComponent := map[string]struct{ InChannel, OutComponent, OutChannel string }{}
	for _, t := range sol.X {
		tupleByComponent[t.Component] = struct {
			InChannel, OutComponent, OutChannel string
		}{t.InChannel, t.OutComponent, t.OutChannel}
	}

	var lines []string
	for _, comp := range orderPath(sol, startComponent) {
		t := tupleByComponent[comp]
		dst := t.OutComponent
		if dst == "" {
			dst = "(terminal)"
		}
		lines = append(lines, fmt.Sprintf("%s IN %s -> %s OUT %s", comp, t.InChannel, dst, t.OutChannel))
	}
	return lines
}

func componentOutOfService(model *topology.Model, name string) bool {
	c, ok := model.ComponentByName(name)
	return ok && c.OutOfService
}
