// nrmd is the Reservation Engine daemon: it compiles the configured
// topology, optionally reloads a reservation store, and serves the
// line-oriented NRM protocol on (nrm_host, nrm_Port) until signaled.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lightpath-network/nrm/pkg/bootstrap"
	"github.com/lightpath-network/nrm/pkg/engine"
	"github.com/lightpath-network/nrm/pkg/ilp"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/registry"
	"github.com/lightpath-network/nrm/pkg/util"
	"github.com/lightpath-network/nrm/pkg/version"
)

var (
	paramPath string
	dbFlag    string
)

func main() {
	root := &cobra.Command{
		Use:           "nrmd",
		Short:         "Reservation Engine daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVar(&paramPath, "param", "param.json", "path to param.json")
	root.Flags().StringVar(&dbFlag, "db", "", "reservation store to load on startup and to write on writeDB; without it the server starts empty and writeDB targets db_dir/reserved.json")
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Println("nrmd dev build")
			} else {
				fmt.Printf("nrmd %s (%s)\n", version.Version, version.GitCommit)
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	compiled, err := bootstrap.Compile(ctx, cfg)
	if err != nil {
		return err
	}

	dbPath := dbFlag
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Resolve(cfg.DbDir), "reserved.json")
	}
	reg := registry.New()
	if dbFlag != "" {
		reg, err = registry.LoadDB(dbPath)
		if err != nil {
			return err
		}
	}
	if errs := reg.CheckConsistency(func(t ilp.Tuple) bool { return compiled.Skeleton.VT.Lookup(t) != 0 }); len(errs) > 0 {
		for _, e := range errs {
			util.Error(e)
		}
		return errs[0]
	}

	srv := engine.NewServer(compiled.Model, compiled.Skeleton, compiled.Driver, reg,
		bootstrap.GlpkGlpkDir(cfg), bootstrap.GlpkTmpDir(cfg), bootstrap.SkeletonKey)
	srv.DBPath = dbPath

	if cfg.RedisAddr != "" {
		srv.Mirror = registry.NewRedisMirror(cfg.RedisAddr)
		defer srv.Mirror.Close()
	}

	addr := bootstrap.Addr(cfg)
	util.WithField("addr", addr).Info("nrmd listening")
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	return nil
}

// exitCode maps a top-level error to a fixed exit code: 0 success, 1
// usage, 2 config/topology load failure, 3 solver binary not found, 4
// internal consistency violation.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, nrmerr.ErrConsistency):
		return 4
	case errors.Is(err, nrmerr.ErrSolverNotFound):
		return 3
	case errors.Is(err, nrmerr.ErrConfig), errors.Is(err, nrmerr.ErrTopology):
		return 2
	default:
		return 1
	}
}
