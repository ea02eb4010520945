package pybootstrap

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestUpgradePipRunsThroughInterpreter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tools are shell scripts")
	}

	dir := t.TempDir()
	python := filepath.Join(dir, "python")
	pip := filepath.Join(dir, "pip")
	writeStubTool(t, python, "Python 3.11.4")
	writeStubTool(t, pip, "pip 24.0 from /stub/pip (python 3.11)")

	env := &Environment{PythonPath: python, PipPath: pip}
	if err := env.UpgradePip(nil); err != nil {
		t.Fatalf("UpgradePip: %v", err)
	}

	// pip cannot replace its own running executable on Windows, so the
	// self-upgrade must be driven by the interpreter on every platform.
	pyLog := readStubLog(t, python)
	if !strings.Contains(pyLog, "-m pip install --upgrade pip") {
		t.Errorf("upgrade should run as python -m pip, python log:\n%s", pyLog)
	}
	pipLog := readStubLog(t, pip)
	if strings.Contains(pipLog, "install") {
		t.Errorf("pip executable must not upgrade itself, pip log:\n%s", pipLog)
	}

	if env.PipVersion.Major != 24 || env.PipVersion.Minor != 0 {
		t.Errorf("PipVersion after upgrade = %s, want 24.0", env.PipVersion.String())
	}
}

func TestCleanFreezeLines(t *testing.T) {
	output := []byte(strings.Join([]string{
		"numpy==1.26.0",
		"myproject @ file:///home/dev/myproject",
		"pandas==2.1.0  # pinned for compatibility",
		"",
		"# a full-line comment",
		"torch==2.1.0",
	}, "\n"))

	got := cleanFreezeLines(output)
	want := []string{"numpy==1.26.0", "myproject", "pandas==2.1.0", "torch==2.1.0"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cleanFreezeLines = %v, want %v", got, want)
	}
}

func TestEditableTarget(t *testing.T) {
	if got := editableTarget(".", "dev"); got != ".[dev]" {
		t.Errorf("editableTarget with extras = %q, want .[dev]", got)
	}
	if got := editableTarget("/proj", ""); got != "/proj" {
		t.Errorf("editableTarget without extras = %q, want /proj", got)
	}
}

func TestHasProjectDescriptor(t *testing.T) {
	dir := t.TempDir()
	if hasProjectDescriptor(dir) {
		t.Error("empty dir should have no project descriptor")
	}

	if err := os.WriteFile(filepath.Join(dir, "setup.py"), []byte("from setuptools import setup\nsetup()\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !hasProjectDescriptor(dir) {
		t.Error("dir with setup.py should have a project descriptor")
	}

	dir2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir2, "pyproject.toml"), []byte("[project]\nname = \"x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !hasProjectDescriptor(dir2) {
		t.Error("dir with pyproject.toml should have a project descriptor")
	}
}

func TestInstallRequirementsMissingFile(t *testing.T) {
	env := &Environment{PipPath: "/nonexistent/pip"}
	missing := filepath.Join(t.TempDir(), "requirements.txt")

	err := env.InstallRequirements(missing, "", false, nil)
	if err == nil {
		t.Fatal("expected error for missing requirements file")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error should name the missing file, got: %v", err)
	}
}

func TestInstallProjectMissingDescriptor(t *testing.T) {
	env := &Environment{PipPath: "/nonexistent/pip"}

	err := env.InstallProject(t.TempDir(), "dev", nil)
	if err == nil {
		t.Fatal("expected error for project without descriptor")
	}
	if !strings.Contains(err.Error(), "project descriptor") {
		t.Errorf("error should mention the descriptor, got: %v", err)
	}
}
