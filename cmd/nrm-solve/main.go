// nrm-solve is a standalone debugging tool: it runs the configured
// solver binary directly against an already-rendered .model/.data pair
// and prints the parsed solution, without any topology or registry
// involved.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/spf13/cobra"

	"github.com/lightpath-network/nrm/pkg/cli"
	"github.com/lightpath-network/nrm/pkg/solver"
	"github.com/lightpath-network/nrm/pkg/version"
)

var (
	modelPath string
	dataPath  string
	solPath   string
	binary    string
	timeout   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "nrm-solve",
		Short:         "solve one rendered .model/.data pair and print the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&modelPath, "model", "", "path to a .model file (required)")
	root.Flags().StringVar(&dataPath, "data", "", "path to a .data file (required)")
	root.Flags().StringVar(&solPath, "out", "", "path to write the raw .sol file (defaults beside --data)")
	root.Flags().StringVar(&binary, "binary", "glpsol", "solver binary name or path")
	root.Flags().DurationVar(&timeout, "timeout", 0, "solve timeout, 0 for none")
	root.MarkFlagRequired("model")
	root.MarkFlagRequired("data")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Println("nrm-solve dev build")
			} else {
				fmt.Printf("nrm-solve %s (%s)\n", version.Version, version.GitCommit)
			}
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if solPath == "" {
		solPath = dataPath + ".sol"
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ec := exec.CommandContext(ctx, binary, "--model", modelPath, "--data", dataPath, "-o", solPath)
	output, runErr := ec.CombinedOutput()
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &nrmerr.SolverTimeoutError{WorkID: "nrm-solve", Timeout: timeout}
		}
		var pathErr *exec.Error
		if errors.As(runErr, &pathErr) {
			return fmt.Errorf("%w: %s", nrmerr.ErrSolverNotFound, pathErr)
		}
		return &nrmerr.SolverError{WorkID: "nrm-solve", Stderr: string(output), Err: runErr}
	}

	raw, err := os.ReadFile(solPath)
	if err != nil {
		return &nrmerr.SolverError{WorkID: "nrm-solve", Stderr: string(output), Err: err}
	}

	sol, err := solver.ParseSolution(raw)
	if err != nil {
		return err
	}

	statusLine := fmt.Sprintf("status: %s", sol.Status)
	if sol.Status == solver.StatusOptimal {
		fmt.Println(cli.Green(statusLine))
	} else {
		fmt.Println(cli.Yellow(statusLine))
	}
	for id, chosen := range sol.X {
		if chosen {
			fmt.Printf("x[%d] = 1\n", id)
		}
	}
	for id, chosen := range sol.C {
		if chosen {
			fmt.Printf("c[%d] = 1\n", id)
		}
	}
	return nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, nrmerr.ErrSolverNotFound):
		return 3
	default:
		return 1
	}
}
