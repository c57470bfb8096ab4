package acbuilder

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTemplateSetMissingFileIsEmpty(t *testing.T) {
	ts, err := LoadTemplateSet(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("LoadTemplateSet: %v", err)
	}
	if len(ts.Templates) != 0 {
		t.Errorf("expected empty template set, got %v", ts.Templates)
	}
}

func TestLoadTemplateSetResolve(t *testing.T) {
	dir := t.TempDir()
	fragPath := filepath.Join(dir, "concentrator.model")
	if err := os.WriteFile(fragPath, []byte("Channels constraints for concentrators"), 0o644); err != nil {
		t.Fatal(err)
	}

	yamlPath := filepath.Join(dir, "templates.yaml")
	content := "templates:\n  concentrator: " + fragPath + "\n"
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ts, err := LoadTemplateSet(yamlPath)
	if err != nil {
		t.Fatalf("LoadTemplateSet: %v", err)
	}

	tmpl, found, err := ts.Resolve("concentrator")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !found {
		t.Fatal("expected concentrator kind to be found")
	}
	if string(tmpl) != "Channels constraints for concentrators" {
		t.Errorf("Resolve() = %q, unexpected content", tmpl)
	}

	_, found, err = ts.Resolve("unknown-kind")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if found {
		t.Error("expected unknown-kind to not be found")
	}
}
