package pybootstrap

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment represents a resolved Python installation with explicit paths
// to its executables. It can describe either the base (system) interpreter or
// a virtual environment.
//
// All operations on an Environment use these paths directly; the process's
// own PATH is never consulted or modified after construction.
type Environment struct {
	// Name is the environment identifier (e.g., "venv", "system").
	Name string

	// Root is the environment's root directory. For a virtual environment
	// this is the venv directory itself.
	Root string

	// BinPath is the directory containing the environment's executables
	// (bin on Unix, Scripts on Windows).
	BinPath string

	// PythonPath is the full path to the Python executable.
	PythonPath string

	// PipPath is the full path to the pip executable.
	PipPath string

	// SitePackagesPath is the path to the site-packages directory.
	// May be empty if it could not be determined.
	SitePackagesPath string

	// PythonVersion is the detected Python version (e.g., 3.10.12).
	PythonVersion Version

	// PipVersion is the detected pip version.
	PipVersion Version

	// IsVenv indicates whether this environment is a virtual environment.
	IsVenv bool

	// IsNew indicates whether this environment was newly created (true)
	// or already existed (false).
	IsNew bool
}

// VenvOptions configures the creation of a Python virtual environment.
// These options correspond to flags of Python's venv module.
type VenvOptions struct {
	// SystemSitePackages gives the venv access to the base interpreter's
	// site-packages directory.
	SystemSitePackages bool

	// Clear deletes the contents of the environment directory if it exists.
	Clear bool

	// Prompt sets a custom prompt prefix for the virtual environment.
	Prompt string

	// UpgradeDeps upgrades pip and setuptools during creation.
	UpgradeDeps bool
}

// ProgressCallback is called during long-running operations to report
// progress. The message describes the current operation, current is the
// progress value, and total is the expected total (-1 if unknown).
type ProgressCallback func(message string, current, total int64)

// DetectSystemInterpreter locates the base Python interpreter on the host.
//
// On Unix systems it searches for "python3" then "python" on PATH. On Windows
// it first tries the py launcher, then "where python", filtering out the
// Microsoft Store placeholder executables under Microsoft\WindowsApps.
func DetectSystemInterpreter() (string, error) {
	if runtime.GOOS == "windows" {
		// Prefer the python launcher; it is a real installation marker.
		wcmd := exec.Command("where", "py")
		if wout, err := wcmd.Output(); err == nil {
			lines := strings.Split(strings.TrimSpace(string(wout)), "\n")
			if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
				return strings.TrimSpace(lines[0]), nil
			}
		}
		wcmd = exec.Command("where", "python")
		wout, err := wcmd.Output()
		if err != nil {
			return "", fmt.Errorf("python not found: %v", err)
		}
		for _, p := range strings.Split(string(wout), "\n") {
			p = strings.TrimSpace(p)
			if p != "" && !strings.Contains(p, "Microsoft\\WindowsApps") {
				return p, nil
			}
		}
		return "", fmt.Errorf("python not found: only Microsoft Store placeholders on PATH")
	}

	pythonPath, err := exec.LookPath("python3")
	if err != nil {
		pythonPath, err = exec.LookPath("python")
		if err != nil {
			return "", fmt.Errorf("python not found: %v", err)
		}
	}
	return pythonPath, nil
}

// EnvironmentFromInterpreter builds an Environment from an existing Python
// executable by probing it for version and path information.
func EnvironmentFromInterpreter(pythonPath string) (*Environment, error) {
	env := &Environment{
		Name:       "system",
		PythonPath: pythonPath,
		Root:       filepath.Dir(filepath.Dir(pythonPath)),
		BinPath:    filepath.Dir(pythonPath),
	}

	versionStr, err := runReadCombined(pythonPath, "--version")
	if err != nil {
		return nil, fmt.Errorf("error getting python version: %v (%s)", err, versionStr)
	}
	env.PythonVersion, err = ParsePythonVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing python version: %v", err)
	}

	sitePackages, err := runReadStdout(pythonPath, "-c", "import site; print(site.getsitepackages()[0])")
	if err == nil {
		env.SitePackagesPath = sitePackages
	}

	// pip may be absent on the base interpreter; that is not fatal because
	// venv creation seeds its own pip.
	pipPath, err := exec.LookPath(exeName("pip3"))
	if err != nil {
		pipPath, err = exec.LookPath(exeName("pip"))
	}
	if err == nil {
		env.PipPath = pipPath
		if pipVersionStr, verr := runReadStdout(pipPath, "--version"); verr == nil {
			env.PipVersion, _ = ParsePipVersion(pipVersionStr)
		}
	}

	return env, nil
}

// SystemEnvironment locates the system Python installation and returns an
// Environment describing it.
func SystemEnvironment() (*Environment, error) {
	pythonPath, err := DetectSystemInterpreter()
	if err != nil {
		return nil, err
	}
	return EnvironmentFromInterpreter(pythonPath)
}

// venvCondition describes the state of a venv directory on disk.
type venvCondition int

const (
	// venvMissing means the directory does not exist.
	venvMissing venvCondition = iota
	// venvBroken means the directory exists but lacks pyvenv.cfg or the
	// interpreter, typically after an interrupted creation.
	venvBroken
	// venvReady means the directory looks like a complete venv.
	venvReady
)

// inspectVenv classifies a venv directory. A directory that exists but fails
// the integrity check must be recreated, not trusted.
func inspectVenv(venvDir string) venvCondition {
	if _, err := os.Stat(venvDir); os.IsNotExist(err) {
		return venvMissing
	}
	if _, err := os.Stat(filepath.Join(venvDir, "pyvenv.cfg")); err != nil {
		return venvBroken
	}
	if _, err := os.Stat(venvToolPath(venvDir, "python")); err != nil {
		return venvBroken
	}
	return venvReady
}

// EnsureVenv creates the virtual environment at venvDir if it does not
// already exist, using the base interpreter's venv module.
//
// The call is idempotent: an intact existing environment is reused and IsNew
// is false. A directory left behind by an interrupted creation (missing
// pyvenv.cfg or interpreter) is rebuilt with --clear.
//
// Returns an error if base is nil or venv creation fails; the error includes
// the venv module's stderr output.
func EnsureVenv(base *Environment, venvDir string, options VenvOptions, progressCallback ProgressCallback) (*Environment, error) {
	if base == nil {
		return nil, fmt.Errorf("base environment is nil")
	}

	condition := inspectVenv(venvDir)
	if condition == venvBroken {
		options.Clear = true
	}

	isNew := condition != venvReady || options.Clear

	if isNew {
		args := []string{"-m", "venv"}
		if options.SystemSitePackages {
			args = append(args, "--system-site-packages")
		}
		if options.Clear {
			args = append(args, "--clear")
		}
		if options.Prompt != "" {
			args = append(args, "--prompt", options.Prompt)
		}
		if options.UpgradeDeps {
			args = append(args, "--upgrade-deps")
		}
		args = append(args, venvDir)

		var stderr bytes.Buffer
		venvCmd := exec.Command(base.PythonPath, args...)
		venvCmd.Stderr = &stderr
		if err := venvCmd.Run(); err != nil {
			return nil, fmt.Errorf("failed to create virtual environment: %v, stderr: %s", err, stderr.String())
		}

		if progressCallback != nil {
			if condition == venvBroken {
				progressCallback("Rebuilt incomplete virtual environment", 20, 100)
			} else {
				progressCallback("Created virtual environment", 20, 100)
			}
		}
	} else if progressCallback != nil {
		progressCallback("Reusing existing virtual environment", 20, 100)
	}

	env, err := VenvEnvironment(venvDir)
	if err != nil {
		return nil, err
	}
	env.IsNew = isNew
	return env, nil
}

// VenvEnvironment builds an Environment for an existing virtual environment
// directory, probing the contained python and pip for their versions.
func VenvEnvironment(venvDir string) (*Environment, error) {
	if inspectVenv(venvDir) != venvReady {
		return nil, fmt.Errorf("no usable virtual environment at %s", venvDir)
	}

	env := &Environment{
		Name:       filepath.Base(venvDir),
		Root:       venvDir,
		BinPath:    filepath.Join(venvDir, binDirName()),
		PythonPath: venvToolPath(venvDir, "python"),
		PipPath:    venvToolPath(venvDir, "pip"),
		IsVenv:     true,
	}

	versionStr, err := runReadCombined(env.PythonPath, "--version")
	if err != nil {
		return nil, fmt.Errorf("error getting python version: %v (%s)", err, versionStr)
	}
	env.PythonVersion, err = ParsePythonVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing python version: %v", err)
	}

	pipVersionStr, err := runReadStdout(env.PipPath, "--version")
	if err != nil {
		return nil, fmt.Errorf("error getting pip version: %v", err)
	}
	env.PipVersion, err = ParsePipVersion(pipVersionStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing pip version: %v", err)
	}

	if runtime.GOOS == "windows" {
		env.SitePackagesPath = filepath.Join(venvDir, "Lib", "site-packages")
	} else {
		env.SitePackagesPath = filepath.Join(venvDir, "lib", "python"+env.PythonVersion.MinorString(), "site-packages")
	}

	return env, nil
}
