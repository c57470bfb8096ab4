// Package config loads param.json: a missing file yields defaults,
// never an error.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lightpath-network/nrm/pkg/nrmerr"
)

// Config holds every param.json key, plus the additive ambient/domain
// keys: RedisAddr and the solver_* remote-execution keys.
type Config struct {
	Logger         string `json:"logger"`
	LogConfig      string `json:"log_config"`
	TopoXML        string `json:"topo_xml"`
	GlpkDir        string `json:"glpk_dir"`
	DbDir          string `json:"db_dir"`
	NrmHost        string `json:"nrm_host"`
	NrmPort        int    `json:"-"` // read from either nrm_Port or nrm_port, see applyJSON
	PfTmpModel     string `json:"pf_tmp_model"`
	SolvecTmpModel string `json:"solvec_tmp_model"`
	NumComps       int    `json:"num_comps"`
	RedisAddr      string `json:"redis_addr,omitempty"`

	// SolverHost selects solver.Remote over solver.LocalDriver when
	// set. SolverUser/SolverKeyPath/SolverRemoteTmp configure the SSH
	// session; an absent SolverHost means local-process execution.
	SolverHost      string `json:"solver_host,omitempty"`
	SolverUser      string `json:"solver_user,omitempty"`
	SolverKeyPath   string `json:"solver_key_path,omitempty"`
	SolverRemoteTmp string `json:"solver_remote_tmp,omitempty"`

	topDir string
}

// Default returns the configuration used when param.json is absent.
// SolvecTmpModel intentionally carries the README's literal filename,
// typo included; an implementation must tolerate it as configured, not
// silently correct it.
func Default() *Config {
	return &Config{
		Logger:         "text",
		TopoXML:        "topology.xml",
		GlpkDir:        "glpk",
		DbDir:          "db",
		NrmHost:        "0.0.0.0",
		NrmPort:        9999,
		PfTmpModel:     "pf-template.model",
		SolvecTmpModel: "solvec-templae.model",
		NumComps:       0,
	}
}

// Load reads param.json from path. A missing file returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.topDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &nrmerr.ConfigError{Path: path, Err: err}
	}
	if err := cfg.applyJSON(data); err != nil {
		return nil, &nrmerr.ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// applyJSON overlays recognized keys from raw JSON onto the defaults.
// Implemented over a raw map (rather than struct tags) because both
// nrm_Port and nrm_port must be accepted, and encoding/json cannot
// express two tags on one field.
func (c *Config) applyJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(v, dst)
	}
	num := func(key string, dst *int) (bool, error) {
		v, ok := raw[key]
		if !ok {
			return false, nil
		}
		return true, json.Unmarshal(v, dst)
	}

	for _, f := range []struct {
		key string
		dst *string
	}{
		{"logger", &c.Logger},
		{"log_config", &c.LogConfig},
		{"topo_xml", &c.TopoXML},
		{"glpk_dir", &c.GlpkDir},
		{"db_dir", &c.DbDir},
		{"nrm_host", &c.NrmHost},
		{"pf_tmp_model", &c.PfTmpModel},
		{"solvec_tmp_model", &c.SolvecTmpModel},
		{"redis_addr", &c.RedisAddr},
		{"solver_host", &c.SolverHost},
		{"solver_user", &c.SolverUser},
		{"solver_key_path", &c.SolverKeyPath},
		{"solver_remote_tmp", &c.SolverRemoteTmp},
	} {
		if err := str(f.key, f.dst); err != nil {
			return err
		}
	}

	if _, err := num("num_comps", &c.NumComps); err != nil {
		return err
	}
	if found, err := num("nrm_Port", &c.NrmPort); err != nil {
		return err
	} else if !found {
		if _, err := num("nrm_port", &c.NrmPort); err != nil {
			return err
		}
	}

	return nil
}

// Resolve joins a path that may be configured relative to the top
// directory (the directory containing param.json).
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.topDir, p)
}
