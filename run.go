package pybootstrap

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// runReadStdout executes a command and returns its trimmed stdout.
func runReadStdout(path string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// runReadCombined executes a command and returns combined stdout/stderr.
// The output is returned even when the command fails, so callers can echo
// whatever the tool printed.
func runReadCombined(path string, args ...string) (string, error) {
	cmd := exec.Command(path, args...)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// isDirWritable reports whether a file can be created in dir.
func isDirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".pybootstrap-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// binDirName returns the executables directory name inside a virtual
// environment: "Scripts" on Windows, "bin" elsewhere.
func binDirName() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// exeName appends ".exe" on Windows.
func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// venvToolPath returns the path of a tool executable inside a venv directory.
func venvToolPath(venvDir, tool string) string {
	return filepath.Join(venvDir, binDirName(), exeName(tool))
}
