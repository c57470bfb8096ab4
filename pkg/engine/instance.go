package engine

import (
	"fmt"
	"strconv"

	"github.com/lightpath-network/nrm/pkg/ilp"
)

// buildInstanceData overlays one segment's live request-time state onto
// the compiled skeleton: which channel is on trial, which tuples are
// already reserved (inuse_X/inuse_C), and which tuples are unusable
// because their component is out of service or their destination
// component is an ERO waypoint a later segment must still reach.
// inuseX/inuseC are a snapshot the caller took once for the whole
// request, under whatever lock that request's handler holds.
func (s *Server) buildInstanceData(seg segment, channel string, forward bool, inuseX map[ilp.Tuple]bool, inuseC map[ilp.Tuple]int) (*ilp.DataFile, error) {
	srcPort, dstPort := seg.Src, seg.Dst
	if !forward {
		srcPort, dstPort = dstPort, srcPort
	}

	srcComp, ok := s.componentForPort(srcPort)
	if !ok {
		return nil, fmt.Errorf("engine: unknown port %q", srcPort)
	}
	dstComp, ok := s.componentForPort(dstPort)
	if !ok {
		return nil, fmt.Errorf("engine: unknown port %q", dstPort)
	}

	excludedComponents := map[string]bool{}
	for _, p := range seg.NextEroPorts {
		if comp, ok := s.componentForPort(p); ok {
			excludedComponents[comp] = true
		}
	}

	var inUseXRows, inUseCRows, oosRows []ilp.TableRow
	for id := 1; id <= s.Skeleton.NumVars(); id++ {
		t, _ := s.Skeleton.VT.TupleForID(id)
		idStr := strconv.Itoa(id)

		if inuseX[t] {
			inUseXRows = append(inUseXRows, ilp.TableRow{Keys: []string{idStr}, Value: "1"})
		}
		if n := inuseC[t]; n > 0 {
			inUseCRows = append(inUseCRows, ilp.TableRow{Keys: []string{idStr}, Value: strconv.Itoa(n)})
		}

		outOfService := componentOutOfService(s.Model, t.Component) || excludedComponents[t.OutComponent]
		if outOfService {
			oosRows = append(oosRows, ilp.TableRow{Keys: []string{idStr}, Value: "1"})
		}
	}

	data := &ilp.DataFile{
		Params: []ilp.Param{
			{Name: "NUM_VARS", Value: strconv.Itoa(s.Skeleton.NumVars())},
			{Name: "SRC", Value: srcComp},
			{Name: "DST", Value: dstComp},
			{Name: "TRIAL_CHANNEL", Value: channel},
		},
	}
	if len(inUseXRows) > 0 {
		data.Tables = append(data.Tables, ilp.TableDef{Name: "INUSE_X", Rows: inUseXRows})
	}
	if len(inUseCRows) > 0 {
		data.Tables = append(data.Tables, ilp.TableDef{Name: "INUSE_C", Rows: inUseCRows})
	}
	if len(oosRows) > 0 {
		data.Tables = append(data.Tables, ilp.TableDef{Name: "OUT_OF_SERVICE", Rows: oosRows})
	}
	return data, nil
}

// buildSolvecInstanceData overlays the global solution's per-device
// selections onto a device's decomposed skeleton so its subproblem
// knows which flow it must carry internally.
func (s *Server) buildSolvecInstanceData(device string, chosen []ilp.Tuple) *ilp.DataFile {
	var rows []ilp.TableRow
	for _, t := range chosen {
		if t.Component != device {
			continue
		}
		if id := s.Skeleton.VT.Lookup(t); id != 0 {
			rows = append(rows, ilp.TableRow{Keys: []string{strconv.Itoa(id)}, Value: "1"})
		}
	}

	data := &ilp.DataFile{
		Params: []ilp.Param{{Name: "NUM_VARS", Value: strconv.Itoa(s.Skeleton.NumVars())}},
	}
	if len(rows) > 0 {
		data.Tables = append(data.Tables, ilp.TableDef{Name: "CHOSEN", Rows: rows})
	}
	return data
}
