package solver

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// Status is the solver's reported outcome for a single invocation.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Solution is the parsed outcome of one glpsol invocation: which x[i]
// (4-tuple selection) and c[i] (component/concentrator activation)
// variables were chosen, recovered as binary values.
type Solution struct {
	Status Status
	X      map[int]bool
	C      map[int]bool
}

// Chosen reports whether var-id id was selected in the x set.
func (s *Solution) Chosen(id int) bool {
	return id > 0 && s.X[id]
}

// ComponentActive reports whether var-id id was selected in the c set.
func (s *Solution) ComponentActive(id int) bool {
	return id > 0 && s.C[id]
}

var (
	statusLineRe = regexp.MustCompile(`(?i)^Status:\s*(.+)$`)
	// Matches glpsol's fixed-width variable listing:
	//   No.   Column name     St   Activity     Lower bound   Upper bound
	//     1 x[1]             *              1             0             1
	varLineRe = regexp.MustCompile(`^\s*\d+\s+([xc])\[(\d+)\]\s+\S+\s+([0-9.eE+-]+)`)
)

// ParseSolution parses a glpsol solution file (as produced with
// `glpsol --output <file>`), distinguishing optimal, infeasible,
// unbounded, and error outcomes and recovering binary x[]/c[] values.
func ParseSolution(data []byte) (*Solution, error) {
	sol := &Solution{X: make(map[int]bool), C: make(map[int]bool)}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	found := false
	for scanner.Scan() {
		line := scanner.Text()

		if m := statusLineRe.FindStringSubmatch(line); m != nil {
			sol.Status = classifyStatus(m[1])
			found = true
			continue
		}

		if m := varLineRe.FindStringSubmatch(line); m != nil {
			kind := m[1]
			idx, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			activity, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				continue
			}
			chosen := activity >= 0.5
			if kind == "x" {
				sol.X[idx] = chosen
			} else {
				sol.C[idx] = chosen
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &nrmerr.SolverError{Stderr: "reading solution file", Err: err}
	}
	if !found {
		return nil, &nrmerr.SolverError{Stderr: "no Status: line found in solver output"}
	}
	return sol, nil
}

func classifyStatus(raw string) Status {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "OPTIMAL"):
		return StatusOptimal
	case strings.Contains(s, "NO") && strings.Contains(s, "FEASIBLE"):
		return StatusInfeasible
	case strings.Contains(s, "UNDEFINED"):
		return StatusInfeasible
	case strings.Contains(s, "UNBOUNDED"):
		return StatusUnbounded
	default:
		return StatusError
	}
}
