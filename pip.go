package pybootstrap

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// runStreaming executes a tool with the given arguments, feeding stdout
// through the progress callback line by line. On failure the returned error
// includes the tool's stderr output.
func runStreaming(toolPath, description string, progressCallback ProgressCallback, args ...string) error {
	cmd := exec.Command(toolPath, args...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %v", err)
	}
	defer stdout.Close()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting pip: %v", err)
	}

	scanner := bufio.NewScanner(stdout)
	lineCount := int64(0)
	for scanner.Scan() {
		lineCount++
		if progressCallback != nil {
			progressCallback(description, lineCount, -1)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("pip failed: %v, stderr: %s", err, strings.TrimSpace(stderrBuf.String()))
	}
	return nil
}

// pipRun executes the environment's pip with the given arguments.
func (env *Environment) pipRun(description string, progressCallback ProgressCallback, args ...string) error {
	return runStreaming(env.PipPath, description, progressCallback, args...)
}

// UpgradePip upgrades pip itself inside the environment.
//
// The upgrade runs as "python -m pip install --upgrade pip" rather than
// through the pip executable: on Windows pip cannot replace its own running
// pip.exe, so self-upgrade must go through the interpreter.
func (env *Environment) UpgradePip(progressCallback ProgressCallback) error {
	err := runStreaming(env.PythonPath, "Upgrading pip...", progressCallback,
		"-m", "pip", "install", "--upgrade", "pip")
	if err != nil {
		return err
	}

	// Re-probe: the upgrade changes the version we report.
	if versionStr, verr := runReadStdout(env.PipPath, "--version"); verr == nil {
		if v, perr := ParsePipVersion(versionStr); perr == nil {
			env.PipVersion = v
		}
	}

	if progressCallback != nil {
		progressCallback("Pip upgraded", 100, 100)
	}
	return nil
}

// InstallPackages installs one or more packages using the environment's pip.
//
// Parameters:
//   - packages: package specifiers (e.g., "numpy", "pandas>=1.0")
//   - indexURL: custom package index URL; empty string uses the default
//   - noCache: if true, disables pip's cache
//   - progressCallback: optional progress callback; may be nil
func (env *Environment) InstallPackages(packages []string, indexURL string, noCache bool, progressCallback ProgressCallback) error {
	args := []string{"install", "--no-warn-script-location"}
	if noCache {
		args = append(args, "--no-cache-dir")
	}
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}
	args = append(args, packages...)

	desc := "Installing packages..."
	if len(packages) == 1 {
		desc = fmt.Sprintf("Installing package %s...", packages[0])
	}
	if err := env.pipRun(desc, progressCallback, args...); err != nil {
		return err
	}
	if progressCallback != nil {
		progressCallback("Packages installed", 100, 100)
	}
	return nil
}

// InstallRequirements installs packages from a requirements file. The file
// must exist; a missing file is reported before pip is invoked.
func (env *Environment) InstallRequirements(requirementsPath string, indexURL string, noCache bool, progressCallback ProgressCallback) error {
	if _, err := os.Stat(requirementsPath); err != nil {
		return fmt.Errorf("requirements file not found: %s", requirementsPath)
	}

	args := []string{"install", "--no-warn-script-location", "-r", requirementsPath}
	if noCache {
		args = append(args, "--no-cache-dir")
	}
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}

	if err := env.pipRun("Installing requirements...", progressCallback, args...); err != nil {
		return err
	}
	if progressCallback != nil {
		progressCallback("Requirements installed", 100, 100)
	}
	return nil
}

// projectDescriptors are the files pip accepts as an installable project root.
var projectDescriptors = []string{"pyproject.toml", "setup.py", "setup.cfg"}

// hasProjectDescriptor reports whether projectDir contains a project
// descriptor file that makes it installable.
func hasProjectDescriptor(projectDir string) bool {
	for _, name := range projectDescriptors {
		if _, err := os.Stat(filepath.Join(projectDir, name)); err == nil {
			return true
		}
	}
	return false
}

// editableTarget formats the pip install target for an editable install with
// an optional extras group (e.g., ".[dev]").
func editableTarget(projectDir, extras string) string {
	if extras == "" {
		return projectDir
	}
	return projectDir + "[" + extras + "]"
}

// InstallProject installs the project at projectDir in editable mode,
// optionally selecting an extras group declared by the project descriptor.
//
// Source edits under projectDir take effect without reinstallation. The
// directory must contain pyproject.toml, setup.py, or setup.cfg.
func (env *Environment) InstallProject(projectDir string, extras string, progressCallback ProgressCallback) error {
	if !hasProjectDescriptor(projectDir) {
		return fmt.Errorf("no project descriptor (pyproject.toml, setup.py, or setup.cfg) in %s", projectDir)
	}

	args := []string{"install", "--no-warn-script-location", "-e", editableTarget(projectDir, extras)}
	if err := env.pipRun("Installing project in editable mode...", progressCallback, args...); err != nil {
		return err
	}
	if progressCallback != nil {
		progressCallback("Project installed", 100, 100)
	}
	return nil
}

// fileURLRegex matches pip freeze lines for local editable installs,
// e.g. "mypackage @ file:///home/user/project".
var fileURLRegex = regexp.MustCompile(`^(.+) @ file:///.+$`)

// cleanFreezeLines normalizes pip freeze output: local file URLs are reduced
// to the bare package name, comments and blank lines are dropped.
func cleanFreezeLines(output []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if match := fileURLRegex.FindStringSubmatch(line); len(match) > 1 {
			line = match[1]
		}
		// Strip trailing comments
		parts := strings.SplitN(line, "#", 2)
		line = strings.TrimSpace(parts[0])
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Freeze returns the environment's installed packages as cleaned pip freeze
// lines ("name==version" format).
func (env *Environment) Freeze() ([]string, error) {
	cmd := exec.Command(env.PipPath, "freeze")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("error running pip freeze: %v", err)
	}
	return cleanFreezeLines(output), nil
}

// FreezeToFile writes the environment's installed packages to a
// requirements-style file, one specifier per line.
func (env *Environment) FreezeToFile(filePath string) error {
	lines, err := env.Freeze()
	if err != nil {
		return err
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filePath, []byte(data), 0644); err != nil {
		return fmt.Errorf("error writing freeze file: %v", err)
	}
	return nil
}
