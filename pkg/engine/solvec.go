package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/registry"
)

// runSolvec fans the committed global selection out to every
// solvec-eligible device it touches, bounded by numThreads concurrent
// subproblems (Server.NumThreads when unspecified, then
// runtime.NumCPU() when that is unset too). Nothing is
// committed to the registry until every subproblem succeeds: a single
// infeasible device subproblem fails the whole reservation.
func (s *Server) runSolvec(ctx context.Context, sol *registry.Solution, numThreads int) error {
	devices := map[string]bool{}
	for _, t := range sol.X {
		if _, ok := s.Skeleton.DeviceComponents[t.Component]; ok {
			devices[t.Component] = true
		}
	}
	if len(devices) == 0 {
		return nil
	}
	if numThreads <= 0 {
		numThreads = s.NumThreads
	}
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	sem := make(chan struct{}, numThreads)
	var wg sync.WaitGroup
	errCh := make(chan error, len(devices))

	for dev := range devices {
		wg.Add(1)
		sem <- struct{}{}
		go func(dev string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.solveDevice(ctx, dev, sol.X); err != nil {
				errCh <- fmt.Errorf("device %s: %w", dev, err)
			}
		}(dev)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return &nrmerr.NoFeasibleSolutionError{Reason: err.Error()}
	}
	return nil
}

// solveDevice solves one device's decomposed subproblem, overlaying
// the global selection restricted to that device. A UUID work
// subdirectory under tmp/ keeps concurrent device solves from
// colliding on their rendered data/solution files.
func (s *Server) solveDevice(ctx context.Context, device string, chosen []ilp.Tuple) error {
	modelFile := filepath.Join(s.GlpkDir, fmt.Sprintf("solvec_%s_%s.model", s.Key, device))
	data := s.buildSolvecInstanceData(device, chosen)
	workDir := filepath.Join(s.TmpDir, uuid.NewString())
	workID := device

	_, err := s.Driver.Solve(ctx, modelFile, data, workDir, workID)
	return err
}
