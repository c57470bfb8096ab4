package acbuilder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lightpath-network/nrm/pkg/ilp"
)

// TemplateSet maps a component "kind" to the solvec model-fragment file
// that backs it, for components whose inline ModelTemplate is empty
// (the topology document lets the model fragment be omitted when it's
// shared across many components of the same kind).
type TemplateSet struct {
	Templates map[string]string `yaml:"templates"`
}

// LoadTemplateSet reads a templates.yaml mapping component kind to a
// model-fragment file path. Missing file is not an error: it returns an
// empty set, since inline model templates are the common case.
func LoadTemplateSet(path string) (*TemplateSet, error) {
	ts := &TemplateSet{Templates: map[string]string{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, ts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ts, nil
}

// Resolve returns the raw model template text for a component kind, read
// from the file path listed for it in templates.yaml. The path is used as
// written: a relative path resolves against the process working
// directory, not against templates.yaml's directory.
func (ts *TemplateSet) Resolve(kind string) (ilp.Template, bool, error) {
	file, ok := ts.Templates[kind]
	if !ok {
		return "", false, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", false, fmt.Errorf("reading template %s for kind %s: %w", file, kind, err)
	}
	return ilp.Template(data), true, nil
}
