// Package pybootstrap automates development-environment setup for Python
// projects from Go, without relying on shell activation scripts.
//
// Pybootstrap discovers a base Python interpreter, creates (or repairs) a
// virtual environment, upgrades pip, installs declared dependencies, installs
// the project itself in editable mode with an optional extras group, and
// verifies the result by importing a configured set of packages inside the
// environment.
//
// # Explicit Paths Instead of Activation
//
// Shell-based setup scripts "activate" a virtual environment by mutating the
// session's PATH. Pybootstrap never does this: an Environment value carries
// the resolved python and pip executable paths, and every operation targets
// those paths directly. Nothing about the calling process is modified.
//
//	base, err := pybootstrap.SystemEnvironment()
//	env, err := pybootstrap.EnsureVenv(base, "/path/to/project/venv", pybootstrap.VenvOptions{}, nil)
//	err = env.UpgradePip(nil)
//	err = env.InstallRequirements("requirements.txt", "", false, nil)
//
// # The Bootstrap Sequence
//
// The Bootstrapper runs the full sequence as ordered steps and stops at the
// first failure. Each step's outcome is recorded in a StepResult, so a caller
// can report exactly which step failed and why:
//
//	b := pybootstrap.New(pybootstrap.DefaultOptions())
//	result, err := b.Run()
//	for _, step := range result.Steps {
//	    fmt.Println(step.Name, step.Status)
//	}
//
// # Idempotence and Repair
//
// An existing virtual environment is reused, not recreated. A directory left
// behind by an interrupted creation is detected (missing pyvenv.cfg or
// interpreter) and rebuilt with --clear rather than trusted.
//
// After a successful run a binary receipt is written into the environment
// recording tool versions and a hash of the requirements file. Subsequent runs
// skip the install steps while the hash is unchanged.
//
// # Verification
//
// The verification probe executes an embedded Python script inside the target
// environment. The script imports each requested package and reports versions
// as JSON; Python-side failures are surfaced as a structured *PythonError
// carrying the exception type, message, and traceback.
//
// # Platform Support
//
// Linux, macOS, and Windows are supported. Path layout differences (bin vs
// Scripts, .exe suffixes) and interpreter discovery quirks (the Windows py
// launcher and Microsoft Store placeholders) are handled internally.
package pybootstrap
