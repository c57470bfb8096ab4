package registry

import (
	"path/filepath"
	"testing"

	"github.com/lightpath-network/nrm/pkg/ilp"
)

func TestLoadDBMissingFileIsEmpty(t *testing.T) {
	reg, err := LoadDB(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("LoadDB: %v", err)
	}
	if len(reg.All()) != 0 {
		t.Error("expected empty registry")
	}
}

func TestWriteDBThenLoadDBRoundTripsGlobalIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reserved.json")

	r := New()
	a := r.Reserve(Request{Src: "A_IN", Dst: "C_OUT"}, sampleSolution(), "route a")
	b := r.Reserve(Request{Src: "A_IN", Dst: "C_OUT", Bidi: true}, sampleSolution(), "route b")

	if err := r.WriteDB(path); err != nil {
		t.Fatalf("WriteDB: %v", err)
	}

	reloaded, err := LoadDB(path)
	if err != nil {
		t.Fatalf("LoadDB: %v", err)
	}

	wantIDs := map[string]bool{a.GlobalID: true, b.GlobalID: true}
	gotIDs := map[string]bool{}
	for _, res := range reloaded.All() {
		gotIDs[res.GlobalID] = true
	}
	if len(gotIDs) != len(wantIDs) {
		t.Fatalf("got %d reservations, want %d", len(gotIDs), len(wantIDs))
	}
	for id := range wantIDs {
		if !gotIDs[id] {
			t.Errorf("missing globalId %s after reload", id)
		}
	}

	// shortIds are re-assigned on load, starting at 1 again.
	for i, res := range reloaded.All() {
		if res.ShortID != i+1 {
			t.Errorf("reloaded shortId = %d at position %d, want %d", res.ShortID, i, i+1)
		}
	}

	x, _ := reloaded.InUse()
	if len(x) != 1 {
		t.Errorf("expected projection rebuilt from loaded reservations, got %v", x)
	}
}

func TestCheckConsistencyAfterLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reserved.json")

	r := New()
	r.Reserve(Request{}, sampleSolution(), "route")
	if err := r.WriteDB(path); err != nil {
		t.Fatalf("WriteDB: %v", err)
	}

	reloaded, err := LoadDB(path)
	if err != nil {
		t.Fatalf("LoadDB: %v", err)
	}
	errs := reloaded.CheckConsistency(func(tup ilp.Tuple) bool { return tup.Component == "B" })
	if len(errs) != 0 {
		t.Errorf("expected no consistency errors, got %v", errs)
	}
}
