package pathfinder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// WriteGlobal renders the compiled model once (pf_<key>.model) and one
// data file per channel (pf_<key>_<channel>.data), the file set
// solvec-ineligible pathfind/reserve requests solve directly.
func (s *Skeleton) WriteGlobal(dir, key string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &nrmerr.PersistenceError{Path: dir, Err: err}
	}

	var written []string

	modelPath := filepath.Join(dir, fmt.Sprintf("pf_%s.model", key))
	if err := os.WriteFile(modelPath, []byte(s.renderGlobalModel()), 0o644); err != nil {
		return nil, &nrmerr.PersistenceError{Path: modelPath, Err: err}
	}
	written = append(written, modelPath)

	for _, ch := range s.AllChannels {
		dataPath := filepath.Join(dir, fmt.Sprintf("pf_%s_%s.data", key, ch))
		data := s.buildChannelData(ch)
		if err := os.WriteFile(dataPath, []byte(data.Render()), 0o644); err != nil {
			return nil, &nrmerr.PersistenceError{Path: dataPath, Err: err}
		}
		written = append(written, dataPath)
	}

	return written, nil
}

// WriteSolvec renders the per-device skeleton used by solvec-eligible
// components: one model file per device, and one data file per chunk of
// that device's components (chunk size numComps; numComps<=0 means a
// single chunk covering the whole device).
func (s *Skeleton) WriteSolvec(dir, key string, numComps int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &nrmerr.PersistenceError{Path: dir, Err: err}
	}

	var devices []string
	for dev := range s.DeviceComponents {
		devices = append(devices, dev)
	}
	sort.Strings(devices)

	var written []string
	for _, dev := range devices {
		comps := s.DeviceComponents[dev]
		sort.Strings(comps)

		modelPath := filepath.Join(dir, fmt.Sprintf("solvec_%s_%s.model", key, dev))
		if err := os.WriteFile(modelPath, []byte(s.renderSolvecModel(dev, comps)), 0o644); err != nil {
			return nil, &nrmerr.PersistenceError{Path: modelPath, Err: err}
		}
		written = append(written, modelPath)

		chunks := ChunkComponents(comps, numComps)
		for i, chunk := range chunks {
			no := i + 1
			dataPath := filepath.Join(dir, fmt.Sprintf("solvec_%s_%s_%d.data", key, dev, no))
			data := s.buildComponentSubsetData(chunk)
			if err := os.WriteFile(dataPath, []byte(data.Render()), 0o644); err != nil {
				return nil, &nrmerr.PersistenceError{Path: dataPath, Err: err}
			}
			written = append(written, dataPath)
		}
	}

	return written, nil
}

func (s *Skeleton) renderGlobalModel() string {
	var b strings.Builder
	b.WriteString("/* compiled global skeleton */\n")
	b.WriteString("set V;\n")
	b.WriteString("set FlowInPorts{V};\n")
	b.WriteString("set FlowOutPorts{V};\n")
	b.WriteString("param NUM_VARS;\n")
	b.WriteString("var vt{1..NUM_VARS} binary;\n")
	b.WriteString("param cost{1..NUM_VARS};\n")
	b.WriteString("param pair{1..NUM_VARS} default 0;\n")
	return b.String()
}

func (s *Skeleton) renderSolvecModel(device string, comps []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "/* solvec skeleton for device %s */\n", device)
	b.WriteString("set Components := " + strings.Join(comps, " ") + ";\n")
	b.WriteString("param NUM_VARS;\n")
	b.WriteString("var vt{1..NUM_VARS} binary;\n")
	return b.String()
}

func (s *Skeleton) buildChannelData(channel string) *ilp.DataFile {
	d := &ilp.DataFile{
		Params: []ilp.Param{
			{Name: "NUM_VARS", Value: strconv.Itoa(s.NumVars())},
			{Name: "WIDTH_OK", Value: boolParam(s.WidthOK[channel])},
		},
		Sets: []ilp.SetDef{
			{Name: "V", Members: s.V},
		},
	}

	var vtRows, costRows, pairRows []ilp.TableRow
	for id := 1; id <= s.NumVars(); id++ {
		t, _ := s.VT.TupleForID(id)
		if t.InChannel != channel && t.OutChannel != channel {
			continue
		}
		keys := []string{t.Component, t.InChannel, t.OutComponent, t.OutChannel}
		vtRows = append(vtRows, ilp.TableRow{Keys: keys, Value: strconv.Itoa(id)})
		costRows = append(costRows, ilp.TableRow{Keys: keys, Value: strconv.FormatFloat(s.Cost[t], 'f', 6, 64)})
		if pairID, ok := s.Pair[t]; ok {
			pairRows = append(pairRows, ilp.TableRow{Keys: keys, Value: strconv.Itoa(pairID)})
		}
	}
	d.Tables = append(d.Tables, ilp.TableDef{Name: "vt", Rows: vtRows})
	d.Tables = append(d.Tables, ilp.TableDef{Name: "cost", Rows: costRows})
	if len(pairRows) > 0 {
		d.Tables = append(d.Tables, ilp.TableDef{Name: "pair", Rows: pairRows})
	}
	return d
}

func (s *Skeleton) buildComponentSubsetData(comps []string) *ilp.DataFile {
	members := make(map[string]bool, len(comps))
	for _, c := range comps {
		members[c] = true
	}

	d := &ilp.DataFile{
		Sets: []ilp.SetDef{
			{Name: "Components", Members: comps},
		},
	}

	var vtRows []ilp.TableRow
	count := 0
	for id := 1; id <= s.NumVars(); id++ {
		t, _ := s.VT.TupleForID(id)
		if !members[t.Component] {
			continue
		}
		vtRows = append(vtRows, ilp.TableRow{
			Keys:  []string{t.Component, t.InChannel, t.OutComponent, t.OutChannel},
			Value: strconv.Itoa(id),
		})
		count++
	}
	d.Params = append(d.Params, ilp.Param{Name: "NUM_VARS", Value: strconv.Itoa(count)})
	d.Tables = append(d.Tables, ilp.TableDef{Name: "vt", Rows: vtRows})
	return d
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
