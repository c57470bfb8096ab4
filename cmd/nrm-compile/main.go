// nrm-compile runs the offline topology -> available-connections ->
// pathfinder pipeline and writes the generated GLPK artifacts under
// glpk_dir, without starting the Reservation Engine server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lightpath-network/nrm/pkg/bootstrap"
	"github.com/lightpath-network/nrm/pkg/cli"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/util"
	"github.com/lightpath-network/nrm/pkg/version"
)

var paramPath string

func main() {
	root := &cobra.Command{
		Use:           "nrm-compile",
		Short:         "compile a topology into GLPK pathfinder artifacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&paramPath, "param", "param.json", "path to param.json")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Println("nrm-compile dev build")
			} else {
				fmt.Printf("nrm-compile %s (%s)\n", version.Version, version.GitCommit)
			}
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.LoadConfig(paramPath)
	if err != nil {
		return err
	}

	compiled, err := bootstrap.Compile(context.Background(), cfg)
	if err != nil {
		return err
	}

	util.WithField("numVars", compiled.Skeleton.NumVars()).
		WithField("components", len(compiled.Skeleton.V)).
		Info("compiled pathfinder skeleton")

	t := cli.NewTable("COMPONENT", "IN PORTS", "OUT PORTS")
	for _, name := range compiled.Skeleton.V {
		t.Row(name, fmt.Sprintf("%d", len(compiled.Skeleton.FlowInPorts[name])), fmt.Sprintf("%d", len(compiled.Skeleton.FlowOutPorts[name])))
	}
	fmt.Println(cli.Bold(fmt.Sprintf("compiled %d variables across %d components", compiled.Skeleton.NumVars(), len(compiled.Skeleton.V))))
	t.Flush()
	return nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, nrmerr.ErrSolverNotFound):
		return 3
	case errors.Is(err, nrmerr.ErrConfig), errors.Is(err, nrmerr.ErrTopology):
		return 2
	default:
		return 1
	}
}
