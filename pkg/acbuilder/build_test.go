package acbuilder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
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
      <model>Channels constraints for A</model>
      <port number="1" name="A_IN" io="input"><supPortChannel>opt</supPortChannel></port>
      <port number="2" name="A_OUT" io="output"><supPortChannel>opt</supPortChannel></port>
    </component>
    <component ref="B" cost="1.0" controller="true" socket="true">
      <model>Channels constraints for B</model>
      <port number="1" name="B_IN" io="input"><supPortChannel>opt</supPortChannel></port>
      <port number="2" name="B_OUT" io="output"><supPortChannel>opt</supPortChannel></port>
    </component>
  </components>
</topology>`

// fakeDriver is a scripted solver.Driver: it returns one optimal solution
// per call (choosing the first still-unforbidden var-id, derived from
// how many NoGood rows have already accumulated), then infeasible once
// every var-id has been forbidden once. This exercises Build's
// cutting-plane loop without a real GLPK solver.
type fakeDriver struct {
	calls int
}

func (f *fakeDriver) Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*solver.Solution, error) {
	f.calls++

	numVars := 0
	for _, p := range data.Params {
		if p.Name == "NUM_VARS" {
			numVars = atoiMust(p.Value)
		}
	}

	forbidden := map[int]bool{}
	for _, tb := range data.Tables {
		if tb.Name != "NoGood" {
			continue
		}
		for _, row := range tb.Rows {
			for _, field := range strings.Fields(row.Value) {
				forbidden[atoiMust(field)] = true
			}
		}
	}

	for id := 1; id <= numVars; id++ {
		if !forbidden[id] {
			return &solver.Solution{
				Status: solver.StatusOptimal,
				X:      map[int]bool{id: true},
				C:      map[int]bool{},
			}, nil
		}
	}
	return nil, &nrmerr.NoFeasibleSolutionError{Reason: "all var-ids forbidden"}
}

func atoiMust(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func TestBuildEnumeratesUntilInfeasible(t *testing.T) {
	m, _, err := topology.Parse([]byte(lineTopologyXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	comp, ok := m.ComponentByName("B")
	if !ok {
		t.Fatal("component B not found")
	}

	dir := t.TempDir()
	drv := &fakeDriver{}
	cs, err := Build(context.Background(), m, comp, drv, Options{
		OutDir: dir,
		TmpDir: filepath.Join(dir, "tmp"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// B has one (inPort, outPort) candidate (B_IN -> B_OUT) sharing
	// channel table opt with 2 channels, so 4 candidate (inChan,outChan)
	// combinations; fakeDriver picks one new var-id per call until all
	// are forbidden, so we expect exactly 4 connections discovered.
	if len(cs.Conns) != 4 {
		t.Fatalf("len(Conns) = %d, want 4: %+v", len(cs.Conns), cs.Conns)
	}

	connFile := filepath.Join(dir, "B.conn.txt")
	data, err := os.ReadFile(connFile)
	if err != nil {
		t.Fatalf("reading %s: %v", connFile, err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("conn.txt has %d lines, want 4:\n%s", len(lines), data)
	}

	modelFile := filepath.Join(dir, "B.model")
	modelData, err := os.ReadFile(modelFile)
	if err != nil {
		t.Fatalf("reading %s: %v", modelFile, err)
	}
	if !strings.Contains(string(modelData), "Channels_opt") {
		t.Errorf("model file should have Channels rewritten to Channels_opt, got: %s", modelData)
	}
}

func TestBuildSkipsComponentWithNoChannelPorts(t *testing.T) {
	comp := &topology.Component{Name: "isolated"}

	dir := t.TempDir()
	drv := &fakeDriver{}
	model, _, err := topology.Parse([]byte(lineTopologyXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cs, err := Build(context.Background(), model, comp, drv, Options{OutDir: dir, TmpDir: dir})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cs.Conns) != 0 {
		t.Errorf("expected no connections for a component with no ports, got %d", len(cs.Conns))
	}
	if drv.calls != 0 {
		t.Errorf("expected solver never invoked for a component with no ports, got %d calls", drv.calls)
	}
}

func TestConnectionSetOutChannels(t *testing.T) {
	cs := &ConnectionSet{Conns: []Connection{
		{InPort: "B_IN", InChannel: "opt_1", OutPort: "B_OUT", OutChannel: "opt_1"},
		{InPort: "B_IN", InChannel: "opt_1", OutPort: "B_OUT", OutChannel: "opt_2"},
		{InPort: "B_IN", InChannel: "opt_2", OutPort: "B_OUT", OutChannel: "opt_2"},
	}}
	got := cs.OutChannels("B_IN", "opt_1", "B_OUT")
	if len(got) != 2 {
		t.Fatalf("OutChannels = %v, want 2 entries", got)
	}
}
