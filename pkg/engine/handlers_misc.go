package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/lightpath-network/nrm/pkg/protocol"
	"github.com/lightpath-network/nrm/pkg/solver"
)

func (s *Server) handleQuery(req *protocol.Request) []string {
	res, err := s.Reg.Query(req.ID)
	if err != nil {
		return []string{"error: " + err.Error()}
	}
	lines := []string{fmt.Sprintf("%d %s", res.ShortID, res.GlobalID)}
	if res.RouteText != "" {
		lines = append(lines, strings.Split(res.RouteText, "\n")...)
	}
	return lines
}

func (s *Server) handleTerminate(ctx context.Context, req *protocol.Request) []string {
	res, err := s.Reg.Terminate(req.ID)
	if err != nil {
		return []string{"error: " + err.Error()}
	}
	if s.Mirror != nil {
		s.Mirror.OnTerminate(ctx, res)
	}
	return []string{fmt.Sprintf("terminated %d %s", res.ShortID, res.GlobalID)}
}

func (s *Server) handleTerminateAll(ctx context.Context) []string {
	all := s.Reg.TerminateAll()
	for _, res := range all {
		if s.Mirror != nil {
			s.Mirror.OnTerminate(ctx, res)
		}
	}
	return []string{fmt.Sprintf("terminated %d reservations", len(all))}
}

func (s *Server) handleWriteDB(req *protocol.Request) []string {
	if s.DBPath == "" {
		return []string{"error: no db path configured"}
	}
	if err := s.Reg.WriteDB(s.DBPath); err != nil {
		return []string{"error: " + err.Error()}
	}
	return []string{"ok"}
}

// handleDelTmp toggles the Driver's tmp-file retention on a live
// LocalDriver. Drivers with no such notion (e.g. a remote driver) leave
// the toggle a no-op.
func (s *Server) handleDelTmp(req *protocol.Request) []string {
	s.togglesMu.Lock()
	defer s.togglesMu.Unlock()
	s.delTmp = req.BoolArg
	if ld, ok := s.Driver.(*solver.LocalDriver); ok {
		ld.DelTmp = req.BoolArg
	}
	return []string{fmt.Sprintf("deltmp %t", s.delTmp)}
}

// handleDumpGLPSol toggles raw glpsol log retention the same way.
func (s *Server) handleDumpGLPSol(req *protocol.Request) []string {
	s.togglesMu.Lock()
	defer s.togglesMu.Unlock()
	s.dumpGLPSol = req.BoolArg
	if ld, ok := s.Driver.(*solver.LocalDriver); ok {
		ld.DumpGLPSol = req.BoolArg
	}
	return []string{fmt.Sprintf("dumpglpsol %t", s.dumpGLPSol)}
}
