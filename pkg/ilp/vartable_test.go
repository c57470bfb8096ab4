package ilp

import "testing"

func TestVarTableAssignIdempotent(t *testing.T) {
	vt := NewVarTable()
	tuple := Tuple{Component: "B", InChannel: "opt_1", OutComponent: "C", OutChannel: "opt_1"}

	id1 := vt.Assign(tuple)
	id2 := vt.Assign(tuple)
	if id1 != id2 {
		t.Fatalf("Assign not idempotent: %d != %d", id1, id2)
	}
	if id1 != 1 {
		t.Fatalf("first assigned id = %d, want 1", id1)
	}
}

func TestVarTableInjective(t *testing.T) {
	vt := NewVarTable()
	t1 := Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"}
	t2 := Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_2"}

	id1 := vt.Assign(t1)
	id2 := vt.Assign(t2)
	if id1 == id2 {
		t.Fatal("distinct tuples received the same var-id")
	}
	if !vt.Invertible() {
		t.Fatal("expected VarTable to be invertible")
	}
}

func TestTupleForID(t *testing.T) {
	vt := NewVarTable()
	tuple := Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"}
	id := vt.Assign(tuple)

	got, ok := vt.TupleForID(id)
	if !ok || got != tuple {
		t.Fatalf("TupleForID(%d) = %v, %v; want %v, true", id, got, ok, tuple)
	}

	if _, ok := vt.TupleForID(0); ok {
		t.Error("TupleForID(0) should report not-found (0 means no variable)")
	}
	if _, ok := vt.TupleForID(999); ok {
		t.Error("TupleForID(999) should report not-found")
	}
}

func TestNumVarsAndSortedTuples(t *testing.T) {
	vt := NewVarTable()
	vt.Assign(Tuple{Component: "A", InChannel: "opt_1", OutComponent: "B", OutChannel: "opt_1"})
	vt.Assign(Tuple{Component: "A", InChannel: "opt_2", OutComponent: "B", OutChannel: "opt_2"})

	if vt.NumVars() != 2 {
		t.Fatalf("NumVars() = %d, want 2", vt.NumVars())
	}
	if len(vt.SortedTuples()) != 2 {
		t.Fatalf("len(SortedTuples()) = %d, want 2", len(vt.SortedTuples()))
	}
}

func TestRenderChannels(t *testing.T) {
	tmpl := Template("subject to c1: sum{c in Channels} x[c] <= 1; # ChannelsUsed stays intact")
	got := tmpl.RenderChannels("optTbl")
	want := "subject to c1: sum{c in Channels_optTbl} x[c] <= 1; # ChannelsUsed stays intact"
	if got != want {
		t.Errorf("RenderChannels() = %q, want %q", got, want)
	}
}
