package solver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/util"
)

// Driver solves one ILP instance. Implementations render data, invoke a
// solver binary (local process or remote), and parse its output back
// into a Solution. Both the Available-Connections Builder and the
// Reservation Engine share this contract so solvec fan-out can be
// pointed at a remote compute pool without touching call sites.
type Driver interface {
	Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*Solution, error)
}

// Options configures tmp-file retention and solver invocation.
type Options struct {
	// Binary is the solver executable name or path. Defaults to "glpsol".
	Binary string
	// Timeout bounds a single solve. Zero means no timeout beyond ctx.
	Timeout time.Duration
	// DelTmp deletes the rendered .data/.sol/.log files after a
	// successful solve. Failed solves always keep their tmp files so
	// they can be inspected; DelTmp only governs the success path.
	// When DelTmp is false, tmp files are kept unconditionally.
	DelTmp bool
	// DumpGLPSol additionally writes glpsol's raw stdout/stderr beside
	// the .sol file as <workID>.log. The log is a tmp file like the
	// others: DelTmp removes it after a successful solve.
	DumpGLPSol bool
}

// LocalDriver runs glpsol as a local subprocess via os/exec.
type LocalDriver struct {
	Options
}

// NewLocalDriver constructs a LocalDriver, defaulting Binary to "glpsol"
// when opts.Binary is empty.
func NewLocalDriver(opts Options) *LocalDriver {
	if opts.Binary == "" {
		opts.Binary = "glpsol"
	}
	return &LocalDriver{Options: opts}
}

// Solve renders data deterministically to tmpDir/<workID>.data, invokes
// the configured solver binary against modelFile, and parses the
// resulting tmpDir/<workID>.sol. When ctx ends or a configured Timeout
// passes, the solver receives SIGTERM and is killed if it is still
// running 5s later. A passed deadline (ctx's or Timeout's) surfaces as
// *nrmerr.SolverTimeoutError; a nonzero exit, a cancellation of ctx, or
// unparsable output surfaces as *nrmerr.SolverError; an infeasible or
// unbounded result surfaces as *nrmerr.NoFeasibleSolutionError.
func (d *LocalDriver) Solve(ctx context.Context, modelFile string, data *ilp.DataFile, tmpDir, workID string) (*Solution, error) {
	log := util.WithWorkID(workID)

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, &nrmerr.PersistenceError{Path: tmpDir, Err: err}
	}

	dataPath := filepath.Join(tmpDir, workID+".data")
	solPath := filepath.Join(tmpDir, workID+".sol")
	logPath := filepath.Join(tmpDir, workID+".log")

	if err := os.WriteFile(dataPath, []byte(data.Render()), 0o644); err != nil {
		return nil, &nrmerr.PersistenceError{Path: dataPath, Err: err}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if d.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, d.Binary,
		"--model", modelFile,
		"--data", dataPath,
		"-o", solPath,
	)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = 5 * time.Second
	output, runErr := cmd.CombinedOutput()

	if d.DumpGLPSol {
		if err := os.WriteFile(logPath, output, 0o644); err != nil {
			log.WithField("path", logPath).Warnf("failed to write solver log: %v", err)
		}
	}

	tmpFiles := []string{dataPath, solPath, logPath}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		d.cleanup(tmpFiles, false)
		return nil, &nrmerr.SolverTimeoutError{WorkID: workID, Timeout: d.Timeout}
	}
	if runErr != nil {
		d.cleanup(tmpFiles, false)
		return nil, &nrmerr.SolverError{WorkID: workID, Stderr: string(output), Err: runErr}
	}

	raw, err := os.ReadFile(solPath)
	if err != nil {
		d.cleanup(tmpFiles, false)
		return nil, &nrmerr.SolverError{WorkID: workID, Stderr: string(output), Err: err}
	}

	sol, err := ParseSolution(raw)
	if err != nil {
		d.cleanup(tmpFiles, false)
		return nil, fmt.Errorf("workId %s: %w", workID, err)
	}

	switch sol.Status {
	case StatusInfeasible:
		d.cleanup(tmpFiles, true)
		return sol, &nrmerr.NoFeasibleSolutionError{Reason: "solver reported infeasible"}
	case StatusUnbounded:
		d.cleanup(tmpFiles, true)
		return sol, &nrmerr.NoFeasibleSolutionError{Reason: "solver reported unbounded"}
	case StatusOptimal:
		d.cleanup(tmpFiles, true)
		return sol, nil
	default:
		d.cleanup(tmpFiles, false)
		return nil, &nrmerr.SolverError{WorkID: workID, Stderr: string(output), Err: errors.New("unrecognized solver status")}
	}
}

// cleanup removes tmp files on the success path when DelTmp is set.
// Failures always keep their tmp files regardless of DelTmp.
func (d *LocalDriver) cleanup(paths []string, succeeded bool) {
	if !d.DelTmp || !succeeded {
		return
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
