package property

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Options configures the import of one property. Exactly one of ModeAssert,
// ModeAssume and ModeCover is normally set; Name is the monitor cell name,
// already uniquified by the caller.
type Options struct {
	Name string

	ModeAssert bool
	ModeAssume bool
	ModeCover  bool

	// ModeKeep selects warn-and-continue over fatal for unsupported SVA
	// operators.
	ModeKeep bool

	// Verbose requests a textual dump of the NFSM/UFSM/DFSM of every
	// sub-automaton built for this property.
	Verbose bool

	// LineWidth is the wrap column for verbose dumps. Zero means the diag
	// default.
	LineWidth int
}

// ProjectConfig carries project-wide defaults, loaded from an optional YAML
// file and layered under per-property options.
type ProjectConfig struct {
	Keep      bool `yaml:"keep"`
	Verbose   bool `yaml:"verbose"`
	LineWidth int  `yaml:"line_width"`
}

// LoadProjectConfig reads a YAML project file. A missing or unreadable file
// is an error; callers that treat the file as optional do not call this.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return ProjectConfig{}, errors.WithMessage(err, "property: open project config")
	}
	defer f.Close()
	return ReadProjectConfig(f)
}

// ReadProjectConfig parses a YAML project config from r.
func ReadProjectConfig(r io.Reader) (ProjectConfig, error) {
	var pc ProjectConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pc); err != nil && err != io.EOF {
		return ProjectConfig{}, errors.WithMessage(err, "property: parse project config")
	}
	return pc, nil
}

// Options builds the base options for one named property from the project
// defaults. Per-property overrides are applied by the caller on the returned
// value.
func (pc ProjectConfig) Options(name string) Options {
	return Options{
		Name:      name,
		ModeKeep:  pc.Keep,
		Verbose:   pc.Verbose,
		LineWidth: pc.LineWidth,
	}
}
