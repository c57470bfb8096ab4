package solver

import (
	"errors"
	"testing"

	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

const optimalSample = `Problem:    pf
Rows:       4
Columns:    3
Status:     OPTIMAL
Objective:  obj = 2 (MINimum)

   No.   Column name     St   Activity     Lower bound   Upper bound
------ ------------    --   ------------- ------------- -------------
     1 x[1]             *              1             0             1
     2 x[2]             *              0             0             1
     3 c[1]             *              1             0             1
`

const infeasibleSample = `Problem:    pf
Status:     INFEASIBLE (INTEGER UNDEFINED)
`

func TestParseSolutionOptimal(t *testing.T) {
	sol, err := ParseSolution([]byte(optimalSample))
	if err != nil {
		t.Fatalf("ParseSolution: %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("Status = %v, want optimal", sol.Status)
	}
	if !sol.Chosen(1) {
		t.Error("expected x[1] chosen")
	}
	if sol.Chosen(2) {
		t.Error("expected x[2] not chosen")
	}
	if !sol.ComponentActive(1) {
		t.Error("expected c[1] active")
	}
}

func TestParseSolutionInfeasible(t *testing.T) {
	sol, err := ParseSolution([]byte(infeasibleSample))
	if err != nil {
		t.Fatalf("ParseSolution: %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Fatalf("Status = %v, want infeasible", sol.Status)
	}
}

func TestParseSolutionMissingStatus(t *testing.T) {
	_, err := ParseSolution([]byte("garbage\nno status here\n"))
	if err == nil {
		t.Fatal("expected error for missing Status: line")
	}
	var serr *nrmerr.SolverError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *nrmerr.SolverError, got %T", err)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOptimal:    "optimal",
		StatusInfeasible: "infeasible",
		StatusUnbounded:  "unbounded",
		StatusError:      "error",
		StatusUnknown:    "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestChosenAndComponentActiveZeroID(t *testing.T) {
	sol := &Solution{X: map[int]bool{1: true}, C: map[int]bool{}}
	if sol.Chosen(0) {
		t.Error("var-id 0 should never report chosen")
	}
	if sol.ComponentActive(0) {
		t.Error("var-id 0 should never report active")
	}
}
