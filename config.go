package pybootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the optional per-project configuration file, looked up
// in the project root.
const ManifestFileName = "bootstrap.yaml"

// Manifest is the on-disk project configuration. Every field is optional;
// unset fields keep their defaults.
type Manifest struct {
	// Venv is the virtual environment directory, relative to the project.
	Venv string `yaml:"venv"`

	// Requirements is the dependency declaration file.
	Requirements string `yaml:"requirements"`

	// Extras is the extras group for the editable install.
	Extras string `yaml:"extras"`

	// Python is the minimum acceptable interpreter version.
	Python string `yaml:"python"`

	// Interpreter is an explicit base Python executable to bootstrap
	// from, instead of discovering one on the host.
	Interpreter string `yaml:"interpreter"`

	// Verify lists the packages the verification probe imports.
	Verify []string `yaml:"verify"`

	// IndexURL is a custom package index URL.
	IndexURL string `yaml:"index_url"`

	// NoCache disables pip's cache.
	NoCache bool `yaml:"no_cache"`
}

// envOverrides are environment-variable overrides, applied after the
// manifest. They allow CI and individual developers to redirect a bootstrap
// without editing the project.
type envOverrides struct {
	Venv         string   `env:"PYBOOTSTRAP_VENV"`
	Requirements string   `env:"PYBOOTSTRAP_REQUIREMENTS"`
	Extras       string   `env:"PYBOOTSTRAP_EXTRAS"`
	Python       string   `env:"PYBOOTSTRAP_PYTHON"`
	Interpreter  string   `env:"PYBOOTSTRAP_INTERPRETER"`
	Verify       []string `env:"PYBOOTSTRAP_VERIFY" envSeparator:","`
	IndexURL     string   `env:"PYBOOTSTRAP_INDEX_URL"`
	NoCache      bool     `env:"PYBOOTSTRAP_NO_CACHE"`
}

// LoadOptions builds the effective Options for a project: defaults, then the
// project's bootstrap.yaml manifest (if present), then PYBOOTSTRAP_*
// environment variables.
func LoadOptions(projectDir string) (Options, error) {
	opts := DefaultOptions()
	opts.ProjectDir = projectDir

	manifestPath := filepath.Join(projectDir, ManifestFileName)
	if data, err := os.ReadFile(manifestPath); err == nil {
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return opts, fmt.Errorf("parse %s: %v", manifestPath, err)
		}
		applyManifest(&opts, &m)
	} else if !os.IsNotExist(err) {
		return opts, fmt.Errorf("read %s: %v", manifestPath, err)
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return opts, fmt.Errorf("parse env: %v", err)
	}
	applyEnv(&opts, &overrides)

	return opts, nil
}

func applyManifest(opts *Options, m *Manifest) {
	if m.Venv != "" {
		opts.VenvDir = m.Venv
	}
	if m.Requirements != "" {
		opts.RequirementsFile = m.Requirements
	}
	if m.Extras != "" {
		opts.Extras = m.Extras
	}
	if m.Python != "" {
		opts.MinPythonVersion = m.Python
	}
	if m.Interpreter != "" {
		opts.Interpreter = m.Interpreter
	}
	if len(m.Verify) > 0 {
		opts.VerifyImports = m.Verify
	}
	if m.IndexURL != "" {
		opts.IndexURL = m.IndexURL
	}
	if m.NoCache {
		opts.NoCache = true
	}
}

func applyEnv(opts *Options, o *envOverrides) {
	if o.Venv != "" {
		opts.VenvDir = o.Venv
	}
	if o.Requirements != "" {
		opts.RequirementsFile = o.Requirements
	}
	if o.Extras != "" {
		opts.Extras = o.Extras
	}
	if o.Python != "" {
		opts.MinPythonVersion = o.Python
	}
	if o.Interpreter != "" {
		opts.Interpreter = o.Interpreter
	}
	if len(o.Verify) > 0 {
		opts.VerifyImports = o.Verify
	}
	if o.IndexURL != "" {
		opts.IndexURL = o.IndexURL
	}
	if o.NoCache {
		opts.NoCache = true
	}
}
