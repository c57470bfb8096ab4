package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lightpath-network/nrm/pkg/acbuilder"
	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/pathfinder"
	"github.com/lightpath-network/nrm/pkg/protocol"
	"github.com/lightpath-network/nrm/pkg/registry"
	"github.com/lightpath-network/nrm/pkg/solver"
	"github.com/lightpath-network/nrm/pkg/topology"
)

const lineTopologyXML = `<?xml version="1.0"?>
<topology>
  <channelTables>
    <channelTable id="opt" type="optical">
      <channel no="1"/>
      <channel no="2"/>
    </channelTable>
  </channelTables>
  <components>
    <component ref="A" cost="1.0">
      <port number="1" name="A_IN" io="input"><supPortChannel>opt</supPortChannel></port>
      <port number="2" name="A_OUT" io="output"><supPortChannel>opt</supPortChannel></port>
    </component>
    <component ref="B" cost="2.0" controller="true" socket="true">
      <port number="1" name="B_IN" io="input"><supPortChannel>opt</supPortChannel></port>
      <port number="2" name="B_OUT" io="output"><supPortChannel>opt</supPortChannel></port>
    </component>
    <component ref="C" cost="1.0">
      <port number="1" name="C_IN" io="input"><supPortChannel>opt</supPortChannel></port>
      <port number="2" name="C_OUT" io="output"><supPortChannel>opt</supPortChannel></port>
    </component>
  </components>
  <portPairs>
    <pair net.pair="AB-1" net.code="AB1" cost="0.5">
      <endpoint port="A_2"/>
      <endpoint port="B_1"/>
    </pair>
    <pair net.pair="BC-1" net.code="BC1" cost="0.5">
      <endpoint port="B_2"/>
      <endpoint port="C_1"/>
    </pair>
  </portPairs>
</topology>`

// fakeDriver always reports the given tuple (if any) chosen for x and c,
// regardless of the rendered instance data, so tests can exercise engine
// orchestration without a real glpsol binary.
type fakeDriver struct {
	chosenID int
	infeas   bool
}

func (d *fakeDriver) Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*solver.Solution, error) {
	if d.infeas {
		return nil, &nrmerr.NoFeasibleSolutionError{Reason: "fake driver reports infeasible"}
	}
	sol := &solver.Solution{Status: solver.StatusOptimal, X: map[int]bool{}, C: map[int]bool{}}
	if d.chosenID != 0 {
		sol.X[d.chosenID] = true
		sol.C[d.chosenID] = true
	}
	return sol, nil
}

func buildTestServer(t *testing.T, drv solver.Driver) (*Server, *pathfinder.Skeleton) {
	t.Helper()
	m, _, err := topology.Parse([]byte(lineTopologyXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	conns := map[string]*acbuilder.ConnectionSet{
		"A": {Component: "A", Conns: []acbuilder.Connection{
			{InPort: "A_IN", InChannel: "opt_1", OutPort: "A_OUT", OutChannel: "opt_1"},
		}},
		"B": {Component: "B", Conns: []acbuilder.Connection{
			{InPort: "B_IN", InChannel: "opt_1", OutPort: "B_OUT", OutChannel: "opt_1"},
		}},
		"C": {Component: "C", Conns: []acbuilder.Connection{
			{InPort: "C_IN", InChannel: "opt_1", OutPort: "C_OUT", OutChannel: "opt_1"},
		}},
	}
	sk, err := pathfinder.Compile(m, conns)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	reg := registry.New()
	srv := NewServer(m, sk, drv, reg, t.TempDir(), t.TempDir(), "global")
	return srv, sk
}

func TestHandlePathfindDryRunDoesNotReserve(t *testing.T) {
	srv, sk := buildTestServer(t, nil)
	tup := ilp.Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"}
	id := sk.VT.Lookup(tup)
	if id == 0 {
		t.Fatal("expected A->B tuple to be assigned a var id")
	}
	srv.Driver = &fakeDriver{chosenID: id}

	req := &protocol.Request{Command: protocol.CmdPathfind, Src: "A_IN", Dst: "C_OUT"}
	lines := srv.Handle(context.Background(), req)
	if len(lines) == 0 {
		t.Fatal("expected route lines")
	}
	if len(srv.Reg.All()) != 0 {
		t.Errorf("pathfind must not reserve, got %d reservations", len(srv.Reg.All()))
	}
}

func TestHandleReserveCommitsAndReturnsShortID(t *testing.T) {
	srv, sk := buildTestServer(t, nil)
	tup := ilp.Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"}
	id := sk.VT.Lookup(tup)
	srv.Driver = &fakeDriver{chosenID: id}

	req := &protocol.Request{Command: protocol.CmdReserve, Src: "A_IN", Dst: "C_OUT"}
	lines := srv.Handle(context.Background(), req)
	if len(lines) == 0 {
		t.Fatal("expected response lines")
	}
	if len(srv.Reg.All()) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(srv.Reg.All()))
	}
}

// slowFakeDriver sleeps before answering, widening the window in which
// two concurrent reserve requests could otherwise both read the same
// stale InUse snapshot and double-book a tuple.
type slowFakeDriver struct {
	fakeDriver
	delay time.Duration
}

func (d *slowFakeDriver) Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*solver.Solution, error) {
	time.Sleep(d.delay)
	return d.fakeDriver.Solve(ctx, modelFile, data, tmpDir, workID)
}

// TestConcurrentReservesSerializeAcrossSolve drives two reserve
// requests concurrently against a driver slow enough that, absent a
// held lock spanning the whole read-solve-commit sequence, both would
// overlap their solver calls. It asserts the wall-clock time is at
// least two solve delays, proving the second reserve only started
// solving after the first had already committed.
func TestConcurrentReservesSerializeAcrossSolve(t *testing.T) {
	srv, sk := buildTestServer(t, nil)
	tup := ilp.Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"}
	id := sk.VT.Lookup(tup)
	delay := 20 * time.Millisecond
	srv.Driver = &slowFakeDriver{fakeDriver: fakeDriver{chosenID: id}, delay: delay}

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := &protocol.Request{Command: protocol.CmdReserve, Src: "A_IN", Dst: "C_OUT"}
			srv.Handle(context.Background(), req)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	if elapsed < 2*delay {
		t.Errorf("elapsed = %v, want >= %v: reserves ran their solves concurrently instead of serializing under the registry lock", elapsed, 2*delay)
	}
	if len(srv.Reg.All()) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(srv.Reg.All()))
	}
}

func TestHandleTerminateUnknownIsError(t *testing.T) {
	srv, _ := buildTestServer(t, &fakeDriver{})
	req := &protocol.Request{Command: protocol.CmdTerminate, ID: "nope"}
	lines := srv.Handle(context.Background(), req)
	if len(lines) != 1 || lines[0][:6] != "error:" {
		t.Errorf("lines = %v, want an error line", lines)
	}
}

func TestBuildSegmentsSplitsOnEro(t *testing.T) {
	segs := buildSegments("A_IN", "C_OUT", []string{"B_IN"})
	if len(segs) != 2 {
		t.Fatalf("len(segs) = %d, want 2", len(segs))
	}
	if segs[0].Src != "A_IN" || segs[0].Dst != "B_IN" {
		t.Errorf("segs[0] = %+v", segs[0])
	}
	if segs[1].Src != "B_IN" || segs[1].Dst != "C_OUT" {
		t.Errorf("segs[1] = %+v", segs[1])
	}
}

func TestNextWDMSAChannelRoundRobins(t *testing.T) {
	srv, _ := buildTestServer(t, &fakeDriver{})
	first := srv.nextWDMSAChannel()
	second := srv.nextWDMSAChannel()
	if first == second {
		t.Errorf("expected distinct channels across calls, got %s twice", first)
	}
	third := srv.nextWDMSAChannel()
	if third != first {
		t.Errorf("expected cursor to wrap after 2 channels, got %s", third)
	}
}
