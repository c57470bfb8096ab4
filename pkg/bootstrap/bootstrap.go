// Package bootstrap assembles the dependency chain every CLI entry
// point needs from a param.json: topology load, the Available-
// Connections Builder, and the Pathfinder Compiler, wired against a
// concrete Solver Driver.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lightpath-network/nrm/pkg/acbuilder"
	"github.com/lightpath-network/nrm/pkg/config"
	"github.com/lightpath-network/nrm/pkg/nrmerr"
	"github.com/lightpath-network/nrm/pkg/pathfinder"
	"github.com/lightpath-network/nrm/pkg/solver"
	"github.com/lightpath-network/nrm/pkg/topology"
	"github.com/lightpath-network/nrm/pkg/util"
)

// SkeletonKey is the compiled Pathfinder Skeleton key used for every
// run of this codebase; multiple named skeletons aren't a feature this
// system supports, so one fixed key keeps pf_<key>.* and
// solvec_<key>_*.* filenames predictable across tools.
const SkeletonKey = "global"

// Compiled bundles everything a CLI needs after a successful compile
// pass: the loaded config, topology, solver driver, and pathfinder
// skeleton.
type Compiled struct {
	Config   *config.Config
	Model    *topology.Model
	Driver   solver.Driver
	Skeleton *pathfinder.Skeleton
}

// LoadConfig reads param.json, configuring the global logger from its
// logger/log_config keys before returning.
func LoadConfig(paramPath string) (*config.Config, error) {
	cfg, err := config.Load(paramPath)
	if err != nil {
		return nil, err
	}
	if cfg.Logger == "json" {
		util.SetJSONFormat()
	}
	return cfg, nil
}

// Compile runs the full offline pipeline: load the topology, build
// every component's available connections, and compile the pathfinder
// skeleton, writing generated GLPK artifacts under cfg.GlpkDir.
func Compile(ctx context.Context, cfg *config.Config) (*Compiled, error) {
	model, warnings, err := topology.Load(cfg.Resolve(cfg.TopoXML))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		util.Warn(w.Error())
	}
	if errs := model.Validate(); len(errs) > 0 {
		return nil, &nrmerr.TopologyError{Context: "validate", Detail: errs[0].Error()}
	}

	glpkDir := cfg.Resolve(cfg.GlpkDir)
	acDir := filepath.Join(glpkDir, "ac")
	tmpDir := filepath.Join(glpkDir, "tmp")

	driver := solverDriver(cfg)

	templates, err := acbuilder.LoadTemplateSet(cfg.Resolve("templates.yaml"))
	if err != nil {
		return nil, err
	}

	conns := map[string]*acbuilder.ConnectionSet{}
	for _, comp := range model.Components() {
		cs, err := acbuilder.Build(ctx, model, comp, driver, acbuilder.Options{
			OutDir:    acDir,
			TmpDir:    tmpDir,
			Templates: templates,
		})
		if err != nil {
			return nil, err
		}
		conns[comp.Name] = cs
	}

	sk, err := pathfinder.Compile(model, conns)
	if err != nil {
		return nil, err
	}

	pfDir := filepath.Join(glpkDir, "glpk")
	if _, err := sk.WriteGlobal(pfDir, SkeletonKey); err != nil {
		return nil, err
	}
	if _, err := sk.WriteSolvec(pfDir, SkeletonKey, cfg.NumComps); err != nil {
		return nil, err
	}

	return &Compiled{Config: cfg, Model: model, Driver: driver, Skeleton: sk}, nil
}

// solverDriver selects solver.Remote when cfg.SolverHost is set,
// otherwise a LocalDriver running glpsol as a local subprocess.
func solverDriver(cfg *config.Config) solver.Driver {
	if cfg.SolverHost == "" {
		return solver.NewLocalDriver(solver.Options{})
	}
	return solver.NewRemote(solver.RemoteOptions{
		Host:      cfg.SolverHost,
		User:      cfg.SolverUser,
		KeyPath:   cfg.SolverKeyPath,
		RemoteTmp: cfg.SolverRemoteTmp,
	})
}

// GlpkGlpkDir is the directory engine.Server expects pf_<key>.model and
// solvec_<key>_<device>.model files in.
func GlpkGlpkDir(cfg *config.Config) string {
	return filepath.Join(cfg.Resolve(cfg.GlpkDir), "glpk")
}

// GlpkTmpDir is the scratch directory solver invocations render
// instance data and parse solutions from.
func GlpkTmpDir(cfg *config.Config) string {
	return filepath.Join(cfg.Resolve(cfg.GlpkDir), "tmp")
}

// Addr renders the configured TCP listen address.
func Addr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.NrmHost, cfg.NrmPort)
}
