// Package engine implements the long-running Reservation Engine: the
// TCP acceptor, per-request instance-data assembly, channel-trial and
// ERO-segment orchestration, solvec fan-out, and the registry
// operations the wire protocol exposes.
package engine

import (
	"bufio"
	"context"
	"net"
	"sync"

	"github.com/lightpath-network/nrm/pkg/pathfinder"
	"github.com/lightpath-network/nrm/pkg/protocol"
	"github.com/lightpath-network/nrm/pkg/registry"
	"github.com/lightpath-network/nrm/pkg/solver"
	"github.com/lightpath-network/nrm/pkg/topology"
	"github.com/lightpath-network/nrm/pkg/util"
)

// Server is the Reservation Engine: one accept loop, one goroutine per
// connection, requests on a connection processed strictly serially.
// Mutating registry operations are serialized against every connection
// by Registry's own writer lock; this struct adds the skeleton,
// solver driver, and request-scoped toggles the handlers need.
type Server struct {
	Model    *topology.Model
	Skeleton *pathfinder.Skeleton
	Driver   solver.Driver
	Reg      *registry.Registry
	Mirror   *registry.RedisMirror

	GlpkDir string // directory holding pf_<Key>.model / solvec_<Key>_<device>.model
	TmpDir  string // forwarded to the Solver Driver
	Key     string // compiled skeleton key, e.g. "global"
	DBPath  string // file a "writeDB" request persists the registry to

	NumThreads int // default solvec fan-out width; 0 = runtime.NumCPU()

	togglesMu  sync.Mutex
	delTmp     bool
	dumpGLPSol bool

	wdmsaMu     sync.Mutex
	wdmsaCursor int
}

// NewServer wires a Server from its already-loaded dependencies.
func NewServer(model *topology.Model, sk *pathfinder.Skeleton, drv solver.Driver, reg *registry.Registry, glpkDir, tmpDir, key string) *Server {
	return &Server{
		Model:    model,
		Skeleton: sk,
		Driver:   drv,
		Reg:      reg,
		GlpkDir:  glpkDir,
		TmpDir:   tmpDir,
		Key:      key,
	}
}

// ListenAndServe accepts connections on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	log := util.WithField("remote", conn.RemoteAddr().String())

	scanner := bufio.NewScanner(conn)
	for {
		req, err := protocol.ReadRequest(scanner)
		if err != nil {
			return
		}

		reqCtx, cancel := context.WithCancel(ctx)
		lines := s.Handle(reqCtx, req)
		cancel()

		if err := protocol.WriteResponse(conn, lines); err != nil {
			log.WithError(err).Debug("failed to write response, closing connection")
			return
		}
	}
}

// Handle dispatches one parsed request to its handler and returns the
// response lines (without the sentinel terminator, which WriteResponse
// appends).
func (s *Server) Handle(ctx context.Context, req *protocol.Request) []string {
	switch req.Command {
	case protocol.CmdPathfind:
		return s.handlePathfind(ctx, req, false)
	case protocol.CmdReserve:
		return s.handlePathfind(ctx, req, true)
	case protocol.CmdQuery:
		return s.handleQuery(req)
	case protocol.CmdTerminate:
		return s.handleTerminate(ctx, req)
	case protocol.CmdTerminateAll:
		return s.handleTerminateAll(ctx)
	case protocol.CmdWriteDB:
		return s.handleWriteDB(req)
	case protocol.CmdDelTmp:
		return s.handleDelTmp(req)
	case protocol.CmdDumpGLPSol:
		return s.handleDumpGLPSol(req)
	default:
		return []string{"error: unrecognized command " + req.Command}
	}
}
