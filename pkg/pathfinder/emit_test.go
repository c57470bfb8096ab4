package pathfinder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lightpath-network/nrm/pkg/acbuilder"
)

func compiledTestSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	m := buildTestModel(t)
	conns := map[string]*acbuilder.ConnectionSet{
		"B": {
			Component: "B",
			Conns: []acbuilder.Connection{
				{InPort: "B_1", InChannel: "opt_1", OutPort: "B_2", OutChannel: "opt_1"},
				{InPort: "B_1", InChannel: "opt_1", OutPort: "B_2", OutChannel: "opt_2"},
			},
		},
	}
	sk, err := Compile(m, conns)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return sk
}

func TestWriteGlobalProducesOneFilePerChannel(t *testing.T) {
	sk := compiledTestSkeleton(t)
	dir := t.TempDir()

	files, err := sk.WriteGlobal(dir, "line")
	if err != nil {
		t.Fatalf("WriteGlobal: %v", err)
	}
	// 1 model + 2 channels (opt_1, opt_2)
	if len(files) != 3 {
		t.Fatalf("len(files) = %d, want 3: %v", len(files), files)
	}

	modelPath := filepath.Join(dir, "pf_line.model")
	if _, err := os.Stat(modelPath); err != nil {
		t.Errorf("expected %s to exist: %v", modelPath, err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "pf_line_opt_1.data"))
	if err != nil {
		t.Fatalf("reading channel data file: %v", err)
	}
	if !strings.Contains(string(data), "param vt") {
		t.Errorf("expected vt table in channel data, got: %s", data)
	}
}

func TestWriteSolvecChunksPerDevice(t *testing.T) {
	sk := compiledTestSkeleton(t)
	dir := t.TempDir()

	files, err := sk.WriteSolvec(dir, "line", 0)
	if err != nil {
		t.Fatalf("WriteSolvec: %v", err)
	}
	// one device (B), one model + one data chunk (numComps=0)
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2: %v", len(files), files)
	}

	modelPath := filepath.Join(dir, "solvec_line_B.model")
	if _, err := os.Stat(modelPath); err != nil {
		t.Errorf("expected %s to exist: %v", modelPath, err)
	}
	dataPath := filepath.Join(dir, "solvec_line_B_1.data")
	if _, err := os.Stat(dataPath); err != nil {
		t.Errorf("expected %s to exist: %v", dataPath, err)
	}
}
