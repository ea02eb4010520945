package pybootstrap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed modules/verify/main.py
var verifyScript string

// ImportReport is the verification result for a single package.
type ImportReport struct {
	// Package is the import name that was probed.
	Package string

	// Version is the package's reported __version__ ("unknown" if the
	// module defines none).
	Version string
}

// verifyOutput is the JSON document emitted by the embedded probe script.
type verifyOutput struct {
	OK       bool              `json:"ok"`
	Packages map[string]string `json:"packages"`
	Error    *PythonError      `json:"error"`
}

// parseVerifyReport decodes the probe script's output. The script prints a
// single JSON line; anything before it (warnings from imports) is skipped.
func parseVerifyReport(output []byte) (*verifyOutput, error) {
	var report *verifyOutput
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var candidate verifyOutput
		if err := json.Unmarshal([]byte(line), &candidate); err == nil {
			report = &candidate
		}
	}
	if report == nil {
		return nil, fmt.Errorf("no verification report in probe output: %s", strings.TrimSpace(string(output)))
	}
	return report, nil
}

// VerifyImports imports each named package inside the environment and
// returns its reported version.
//
// The probe runs an embedded Python script with the environment's own
// interpreter, so it exercises exactly the package set the environment
// resolves. A failed import is returned as a *PythonError carrying the
// exception type, message, and traceback.
func (env *Environment) VerifyImports(packages []string) ([]ImportReport, error) {
	if len(packages) == 0 {
		return nil, nil
	}

	scriptFile, err := os.CreateTemp("", "pybootstrap-verify-*.py")
	if err != nil {
		return nil, fmt.Errorf("error creating probe script: %v", err)
	}
	defer os.Remove(scriptFile.Name())

	if _, err := scriptFile.WriteString(verifyScript); err != nil {
		scriptFile.Close()
		return nil, fmt.Errorf("error writing probe script: %v", err)
	}
	scriptFile.Close()

	args := append([]string{scriptFile.Name()}, packages...)
	cmd := exec.Command(env.PythonPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	report, parseErr := parseVerifyReport(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			return nil, fmt.Errorf("verification probe failed: %v, stderr: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return nil, parseErr
	}

	if !report.OK {
		if report.Error != nil {
			return nil, report.Error
		}
		return nil, fmt.Errorf("verification probe failed without details")
	}

	reports := make([]ImportReport, 0, len(report.Packages))
	for name, version := range report.Packages {
		reports = append(reports, ImportReport{Package: name, Version: version})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Package < reports[j].Package })
	return reports, nil
}

// RunSnippet executes a Python code snippet in the environment and returns
// combined stdout/stderr. The output is returned even on failure so callers
// can echo whatever the interpreter printed.
func (env *Environment) RunSnippet(code string) (string, error) {
	return runReadCombined(env.PythonPath, "-c", code)
}

// RunScript executes a Python script file in the environment and returns
// combined stdout/stderr.
func (env *Environment) RunScript(scriptPath string, args ...string) (string, error) {
	args = append([]string{filepath.Clean(scriptPath)}, args...)
	return runReadCombined(env.PythonPath, args...)
}
