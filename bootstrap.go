package pybootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Options configures a bootstrap run. Zero values fall back to the defaults
// from DefaultOptions where that makes sense; ProjectDir must be set.
type Options struct {
	// ProjectDir is the Python project root (contains the project
	// descriptor and, by default, the requirements file and venv).
	ProjectDir string

	// Interpreter is the base Python executable to bootstrap from.
	// Empty means discover one on the host (python3, python, or the
	// py launcher on Windows).
	Interpreter string

	// VenvDir is the virtual environment directory. Relative paths are
	// resolved against ProjectDir.
	VenvDir string

	// RequirementsFile is the dependency declaration file. Relative paths
	// are resolved against ProjectDir.
	RequirementsFile string

	// Extras is the extras group for the editable project install
	// (e.g., "dev"). Empty installs the project without extras.
	Extras string

	// MinPythonVersion is the minimum acceptable base interpreter version
	// (e.g., "3.8"). Empty disables the check.
	MinPythonVersion string

	// VerifyImports lists packages the verification probe must import.
	VerifyImports []string

	// IndexURL is a custom package index URL; empty uses pip's default.
	IndexURL string

	// NoCache disables pip's cache.
	NoCache bool

	// Force reruns the install steps even when the receipt says the
	// requirements are unchanged.
	Force bool

	// SkipVerify skips the verification probe.
	SkipVerify bool
}

// DefaultOptions returns the options matching a conventional Python project
// layout: a "venv" directory and "requirements.txt" in the project root, a
// "dev" extras group, and a torch/transformers verification probe.
func DefaultOptions() Options {
	return Options{
		ProjectDir:       ".",
		VenvDir:          "venv",
		RequirementsFile: "requirements.txt",
		Extras:           "dev",
		MinPythonVersion: "3.8",
		VerifyImports:    []string{"torch", "transformers"},
	}
}

// VenvPath returns the absolute-or-project-relative venv directory.
func (o *Options) VenvPath() string {
	if filepath.IsAbs(o.VenvDir) {
		return o.VenvDir
	}
	return filepath.Join(o.ProjectDir, o.VenvDir)
}

// RequirementsPath returns the resolved requirements file path.
func (o *Options) RequirementsPath() string {
	if filepath.IsAbs(o.RequirementsFile) {
		return o.RequirementsFile
	}
	return filepath.Join(o.ProjectDir, o.RequirementsFile)
}

// StepStatus is the outcome of a single bootstrap step.
type StepStatus int

const (
	// StepOK means the step ran and succeeded.
	StepOK StepStatus = iota
	// StepSkipped means the step was not needed on this run.
	StepSkipped
	// StepFailed means the step ran and failed; no later step runs.
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepSkipped:
		return "skipped"
	case StepFailed:
		return "failed"
	}
	return "unknown"
}

// StepResult records the outcome of one bootstrap step.
type StepResult struct {
	// Name identifies the step (e.g., "venv", "requirements").
	Name string

	// Detail is a human-readable summary of what the step did.
	Detail string

	// Status is the step outcome.
	Status StepStatus

	// Err is the failure cause when Status is StepFailed.
	Err error

	// Duration is how long the step took.
	Duration time.Duration
}

// Result is the outcome of a bootstrap run. Steps always contains an entry
// for every step that started, in order, so a failed run shows exactly where
// it stopped.
type Result struct {
	// Env is the bootstrapped environment (nil if the run failed before
	// the venv was resolved).
	Env *Environment

	// Steps are the per-step outcomes in execution order.
	Steps []StepResult

	// Verified holds the verification probe's package reports.
	Verified []ImportReport
}

// Bootstrapper drives the setup sequence end to end: interpreter discovery,
// venv creation, pip upgrade, dependency and project installation, and the
// verification probe. Steps run strictly in order and the sequence stops at
// the first failure.
type Bootstrapper struct {
	opts Options

	// OnStepStart, if set, is invoked with the step name before it runs.
	OnStepStart func(name string)

	// Progress, if set, receives line-level progress from pip operations.
	Progress ProgressCallback
}

// New creates a Bootstrapper for the given options.
func New(opts Options) *Bootstrapper {
	return &Bootstrapper{opts: opts}
}

// step is one unit of the bootstrap sequence. run returns a human-readable
// detail line and whether the step was skipped.
type step struct {
	name string
	run  func() (detail string, skipped bool, err error)
}

// runSteps executes steps in order, recording a StepResult for each started
// step, and stops at the first failure.
func runSteps(steps []step, onStart func(name string)) ([]StepResult, error) {
	var results []StepResult
	for _, s := range steps {
		if onStart != nil {
			onStart(s.name)
		}
		start := time.Now()
		detail, skipped, err := s.run()
		res := StepResult{
			Name:     s.name,
			Detail:   detail,
			Duration: time.Since(start),
		}
		switch {
		case err != nil:
			res.Status = StepFailed
			res.Err = err
		case skipped:
			res.Status = StepSkipped
		default:
			res.Status = StepOK
		}
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("step %s: %w", s.name, err)
		}
	}
	return results, nil
}

// Run executes the bootstrap sequence and returns the per-step outcomes.
//
// The run holds an advisory lock next to the venv, so two concurrent
// bootstraps of the same environment fail fast instead of interleaving pip
// operations.
//
// On failure the returned Result still carries every step that started,
// including the failed one.
func (b *Bootstrapper) Run() (*Result, error) {
	result := &Result{}

	if b.opts.ProjectDir == "" {
		return result, fmt.Errorf("project directory not set")
	}
	if _, err := os.Stat(b.opts.ProjectDir); err != nil {
		return result, fmt.Errorf("project directory: %v", err)
	}

	// Lock beside the venv, not the project: with an absolute VenvDir two
	// projects can share one venv, and it is the venv that must not be
	// bootstrapped concurrently.
	lock, err := acquireLock(filepath.Dir(b.opts.VenvPath()))
	if err != nil {
		return result, err
	}
	defer lock.release()

	var (
		base         *Environment
		env          *Environment
		reqHash      string
		skipInstalls bool
	)

	steps := []step{
		{"interpreter", func() (string, bool, error) {
			var err error
			if b.opts.Interpreter != "" {
				base, err = EnvironmentFromInterpreter(b.opts.Interpreter)
			} else {
				base, err = SystemEnvironment()
			}
			if err != nil {
				return "", false, err
			}
			if b.opts.MinPythonVersion != "" {
				minVersion, err := ParseVersion(b.opts.MinPythonVersion)
				if err != nil {
					return "", false, fmt.Errorf("invalid minimum python version: %v", err)
				}
				if base.PythonVersion.Compare(minVersion) < 0 {
					return "", false, fmt.Errorf("python %s found at %s, need at least %s",
						base.PythonVersion.String(), base.PythonPath, minVersion.String())
				}
			}
			return fmt.Sprintf("Python %s at %s", base.PythonVersion.String(), base.PythonPath), false, nil
		}},
		{"venv", func() (string, bool, error) {
			prompt := ""
			if abs, err := filepath.Abs(b.opts.ProjectDir); err == nil {
				prompt = filepath.Base(abs)
			}
			var err error
			env, err = EnsureVenv(base, b.opts.VenvPath(), VenvOptions{
				Prompt: prompt,
			}, b.Progress)
			if err != nil {
				return "", false, err
			}
			result.Env = env
			if env.IsNew {
				return fmt.Sprintf("created %s", env.Root), false, nil
			}
			return fmt.Sprintf("reusing %s", env.Root), true, nil
		}},
		{"resolve", func() (string, bool, error) {
			// Staleness check: an unchanged requirements file means the
			// install steps already ran against this exact dependency set.
			if h, err := HashFile(b.opts.RequirementsPath()); err == nil {
				reqHash = h
			}
			if !b.opts.Force && !env.IsNew && reqHash != "" {
				if receipt, err := ReadReceipt(env.Root); err == nil && receipt.Matches(reqHash, b.opts.Extras) {
					skipInstalls = true
				}
			}
			detail := fmt.Sprintf("python %s, pip %s", env.PythonVersion.String(), env.PipVersion.String())
			if skipInstalls {
				detail += " (requirements unchanged)"
			}
			return detail, false, nil
		}},
		{"pip-upgrade", func() (string, bool, error) {
			if skipInstalls {
				return "", true, nil
			}
			if err := env.UpgradePip(b.Progress); err != nil {
				return "", false, err
			}
			return fmt.Sprintf("pip %s", env.PipVersion.String()), false, nil
		}},
		{"requirements", func() (string, bool, error) {
			if skipInstalls {
				return "", true, nil
			}
			if err := env.InstallRequirements(b.opts.RequirementsPath(), b.opts.IndexURL, b.opts.NoCache, b.Progress); err != nil {
				return "", false, err
			}
			return b.opts.RequirementsPath(), false, nil
		}},
		{"project", func() (string, bool, error) {
			if skipInstalls {
				return "", true, nil
			}
			if err := env.InstallProject(b.opts.ProjectDir, b.opts.Extras, b.Progress); err != nil {
				return "", false, err
			}
			return editableTarget(b.opts.ProjectDir, b.opts.Extras), false, nil
		}},
		{"verify", func() (string, bool, error) {
			if b.opts.SkipVerify || len(b.opts.VerifyImports) == 0 {
				return "", true, nil
			}
			reports, err := env.VerifyImports(b.opts.VerifyImports)
			if err != nil {
				return "", false, err
			}
			result.Verified = reports
			parts := make([]string, len(reports))
			for i, r := range reports {
				parts[i] = fmt.Sprintf("%s %s", r.Package, r.Version)
			}
			return strings.Join(parts, ", "), false, nil
		}},
		{"receipt", func() (string, bool, error) {
			receipt := &Receipt{
				PythonVersion:    env.PythonVersion.String(),
				PipVersion:       env.PipVersion.String(),
				RequirementsHash: reqHash,
				Extras:           b.opts.Extras,
				CreatedAt:        time.Now().UTC(),
			}
			if len(result.Verified) > 0 {
				receipt.Verified = make(map[string]string, len(result.Verified))
				for _, r := range result.Verified {
					receipt.Verified[r.Package] = r.Version
				}
			}
			if err := env.WriteReceipt(receipt); err != nil {
				return "", false, err
			}
			return filepath.Join(env.Root, receiptFileName), false, nil
		}},
	}

	result.Steps, err = runSteps(steps, b.OnStepStart)
	return result, err
}

// NextSteps returns the closing guidance text for a bootstrapped environment.
func NextSteps(env *Environment) string {
	activate := filepath.Join(env.BinPath, "activate")
	if runtime.GOOS == "windows" {
		activate = filepath.Join(env.BinPath, "activate.bat")
	}
	return fmt.Sprintf(`Setup complete.

The environment lives at %s. No activation is required; run tools
through their explicit paths:

  %s
  %s

To activate it in an interactive shell anyway:

  %s
`, env.Root, env.PythonPath, env.PipPath, activate)
}
