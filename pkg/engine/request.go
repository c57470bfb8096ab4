package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/protocol"
	"github.com/lightpath-network/nrm/pkg/registry"
	"github.com/lightpath-network/nrm/pkg/solver"
)

// handlePathfind implements both "pathfind" (commit=false, a dry run)
// and "reserve" (commit=true): walk the channel trial set in order,
// stop at the first channel every ERO segment solves on, and — when
// committing — fan out the solvec decomposition before the reservation
// is recorded.
func (s *Server) handlePathfind(ctx context.Context, req *protocol.Request, commit bool) []string {
	if req.Src == "" || req.Dst == "" {
		return []string{"error: pathfind/reserve requires -s and -d"}
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = s.Skeleton.AllChannels
	}
	if req.WDMSA {
		channels = []string{s.nextWDMSAChannel()}
	}

	segs := buildSegments(req.Src, req.Dst, req.Ero)

	// reserve must serialize the in-use read, the solve, and the commit
	// under one exclusive hold so two concurrent reservations never
	// solve against the same stale snapshot and double-book a tuple;
	// pathfind is a dry run and only needs the shared lock InUse takes
	// on its own.
	var inuseX map[ilp.Tuple]bool
	var inuseC map[ilp.Tuple]int
	if commit {
		s.Reg.Lock()
		defer s.Reg.Unlock()
		inuseX, inuseC = s.Reg.InUseLocked()
	} else {
		inuseX, inuseC = s.Reg.InUse()
	}

	var lastErr error
	for _, ch := range channels {
		sol, routeText, err := s.solveRoute(ctx, segs, ch, req.Bidi, inuseX, inuseC)
		if err != nil {
			if errors.Is(err, nrmerr.ErrNoFeasibleSolution) {
				lastErr = err
				continue
			}
			return []string{"error: " + err.Error()}
		}

		if !commit {
			return strings.Split(routeText, "\n")
		}

		if err := s.runSolvec(ctx, sol, req.NumThreads); err != nil {
			return []string{"error: " + err.Error()}
		}

		regReq := registry.Request{Src: req.Src, Dst: req.Dst, Ero: req.Ero, Channels: []string{ch}, Bidi: req.Bidi, WDMSA: req.WDMSA}
		res := s.Reg.ReserveLocked(regReq, *sol, routeText)
		if s.Mirror != nil {
			s.Mirror.OnReserve(ctx, res)
		}
		lines := []string{fmt.Sprintf("reserved %d %s", res.ShortID, res.GlobalID)}
		return append(lines, strings.Split(routeText, "\n")...)
	}

	if lastErr == nil {
		lastErr = &nrmerr.NoFeasibleSolutionError{Reason: "no channels on trial"}
	}
	return []string{"error: " + lastErr.Error()}
}

// solveRoute solves every segment of a (possibly ERO-split) route on
// one trial channel and concatenates their selections and route text.
func (s *Server) solveRoute(ctx context.Context, segs []segment, channel string, bidi bool, inuseX map[ilp.Tuple]bool, inuseC map[ilp.Tuple]int) (*registry.Solution, string, error) {
	var x, c []ilp.Tuple
	var lines []string

	for _, seg := range segs {
		segSol, segLines, err := s.solveSegment(ctx, seg, channel, bidi, inuseX, inuseC)
		if err != nil {
			return nil, "", err
		}
		x = append(x, segSol.X...)
		c = append(c, segSol.C...)
		lines = append(lines, segLines...)
	}
	return &registry.Solution{X: x, C: c}, strings.Join(lines, "\n"), nil
}

// solveSegment solves one ERO leg, and for a bidi request also solves
// the reverse direction on the same channel, merging both selections.
func (s *Server) solveSegment(ctx context.Context, seg segment, channel string, bidi bool, inuseX map[ilp.Tuple]bool, inuseC map[ilp.Tuple]int) (*registry.Solution, []string, error) {
	fwdData, err := s.buildInstanceData(seg, channel, true, inuseX, inuseC)
	if err != nil {
		return nil, nil, err
	}
	fwdSol, err := s.solveInstance(ctx, fwdData)
	if err != nil {
		return nil, nil, err
	}

	fwdChosen := s.tuplesFromSolution(fwdSol)
	srcComp, _ := s.componentForPort(seg.Src)
	lines := s.renderRouteLines(srcComp, fwdChosen)

	if !bidi {
		return &fwdChosen, lines, nil
	}

	revData, err := s.buildInstanceData(seg, channel, false, inuseX, inuseC)
	if err != nil {
		return nil, nil, err
	}
	revSol, err := s.solveInstance(ctx, revData)
	if err != nil {
		return nil, nil, err
	}
	revChosen := s.tuplesFromSolution(revSol)
	dstComp, _ := s.componentForPort(seg.Dst)
	lines = append(lines, s.renderRouteLines(dstComp, revChosen)...)

	merged := registry.Solution{X: append(fwdChosen.X, revChosen.X...), C: append(fwdChosen.C, revChosen.C...)}
	return &merged, lines, nil
}

func (s *Server) solveInstance(ctx context.Context, data *ilp.DataFile) (*solver.Solution, error) {
	modelFile := filepath.Join(s.GlpkDir, fmt.Sprintf("pf_%s.model", s.Key))
	workID := uuid.NewString()
	return s.Driver.Solve(ctx, modelFile, data, s.TmpDir, workID)
}

// tuplesFromSolution resolves a raw var-id solution back into the
// tuple-level registry.Solution, using the skeleton's vt.
func (s *Server) tuplesFromSolution(sol *solver.Solution) registry.Solution {
	var x, c []ilp.Tuple
	for id := 1; id <= s.Skeleton.NumVars(); id++ {
		t, _ := s.Skeleton.VT.TupleForID(id)
		if sol.Chosen(id) {
			x = append(x, t)
		}
		if sol.ComponentActive(id) {
			c = append(c, t)
		}
	}
	return registry.Solution{X: x, C: c}
}
