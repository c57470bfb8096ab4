package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lightpath-network/nrm/pkg/config"
	"github.com/lightpath-network/nrm/pkg/util"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.NrmPort != 9999 {
		t.Errorf("NrmPort = %d, want default 9999", cfg.NrmPort)
	}
}

func TestLoadConfigJSONLoggerSwitchesFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "param.json")
	os.WriteFile(path, []byte(`{"logger": "json"}`), 0o644)

	defer util.Logger.SetFormatter(&logrus.TextFormatter{})

	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, ok := util.Logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("logger format = %T, want *logrus.JSONFormatter", util.Logger.Formatter)
	}
}

func TestGlpkDirsNestUnderGlpkDir(t *testing.T) {
	cfg := config.Default()
	cfg.GlpkDir = "/var/lib/nrm/glpk"

	if got, want := GlpkGlpkDir(cfg), "/var/lib/nrm/glpk/glpk"; got != want {
		t.Errorf("GlpkGlpkDir = %q, want %q", got, want)
	}
	if got, want := GlpkTmpDir(cfg), "/var/lib/nrm/glpk/tmp"; got != want {
		t.Errorf("GlpkTmpDir = %q, want %q", got, want)
	}
}

func TestAddrRendersHostPort(t *testing.T) {
	cfg := config.Default()
	cfg.NrmHost = "0.0.0.0"
	cfg.NrmPort = 4242

	if got, want := Addr(cfg), "0.0.0.0:4242"; got != want {
		t.Errorf("Addr = %q, want %q", got, want)
	}
}
