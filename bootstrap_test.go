package pybootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeStubTool installs a shell script at path that appends its arguments to
// path+".log" and answers --version with versionLine. It stands in for python
// and pip in tests that drive the full sequence without a real interpreter.
func writeStubTool(t *testing.T, path, versionLine string) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"echo \"$@\" >> \"" + path + ".log\"\n" +
		"if [ \"$1\" = \"--version\" ]; then echo \"" + versionLine + "\"; fi\n" +
		"exit 0\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

// readStubLog returns the invocations a stub tool recorded ("" if none).
func readStubLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path + ".log")
	if err != nil {
		return ""
	}
	return string(data)
}

func TestRunStepsStopsAtFirstFailure(t *testing.T) {
	var ran []string
	boom := errors.New("boom")

	steps := []step{
		{"first", func() (string, bool, error) {
			ran = append(ran, "first")
			return "done", false, nil
		}},
		{"second", func() (string, bool, error) {
			ran = append(ran, "second")
			return "", false, boom
		}},
		{"third", func() (string, bool, error) {
			ran = append(ran, "third")
			return "", false, nil
		}},
	}

	results, err := runSteps(steps, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap the step failure, got: %v", err)
	}
	if !strings.Contains(err.Error(), "step second") {
		t.Errorf("error should name the failed step, got: %v", err)
	}

	if !reflect.DeepEqual(ran, []string{"first", "second"}) {
		t.Errorf("steps after a failure must not run, ran: %v", ran)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 recorded results, got %d", len(results))
	}
	if results[0].Status != StepOK || results[0].Detail != "done" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Status != StepFailed || results[1].Err == nil {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestRunStepsRecordsSkipped(t *testing.T) {
	steps := []step{
		{"install", func() (string, bool, error) {
			return "requirements unchanged", true, nil
		}},
	}

	results, err := runSteps(steps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status != StepSkipped {
		t.Errorf("status = %v, want StepSkipped", results[0].Status)
	}
	if results[0].Detail != "requirements unchanged" {
		t.Errorf("detail = %q", results[0].Detail)
	}
}

func TestRunStepsOnStartOrder(t *testing.T) {
	var announced []string
	steps := []step{
		{"a", func() (string, bool, error) { return "", false, nil }},
		{"b", func() (string, bool, error) { return "", false, nil }},
	}

	if _, err := runSteps(steps, func(name string) {
		announced = append(announced, name)
	}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(announced, []string{"a", "b"}) {
		t.Errorf("announced = %v", announced)
	}
}

func TestStepStatusString(t *testing.T) {
	if StepOK.String() != "ok" || StepSkipped.String() != "skipped" || StepFailed.String() != "failed" {
		t.Error("unexpected StepStatus strings")
	}
}

func TestOptionsPaths(t *testing.T) {
	opts := Options{
		ProjectDir:       "/proj",
		VenvDir:          "venv",
		RequirementsFile: "requirements.txt",
	}
	if got := opts.VenvPath(); got != filepath.Join("/proj", "venv") {
		t.Errorf("VenvPath = %q", got)
	}
	if got := opts.RequirementsPath(); got != filepath.Join("/proj", "requirements.txt") {
		t.Errorf("RequirementsPath = %q", got)
	}

	abs := Options{
		ProjectDir:       "/proj",
		VenvDir:          "/elsewhere/venv",
		RequirementsFile: "/elsewhere/reqs.txt",
	}
	if got := abs.VenvPath(); got != "/elsewhere/venv" {
		t.Errorf("absolute VenvPath = %q", got)
	}
	if got := abs.RequirementsPath(); got != "/elsewhere/reqs.txt" {
		t.Errorf("absolute RequirementsPath = %q", got)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.VenvDir != "venv" {
		t.Errorf("VenvDir = %q", opts.VenvDir)
	}
	if opts.RequirementsFile != "requirements.txt" {
		t.Errorf("RequirementsFile = %q", opts.RequirementsFile)
	}
	if opts.Extras != "dev" {
		t.Errorf("Extras = %q", opts.Extras)
	}
	if !reflect.DeepEqual(opts.VerifyImports, []string{"torch", "transformers"}) {
		t.Errorf("VerifyImports = %v", opts.VerifyImports)
	}
}

func TestRunRejectsMissingProjectDir(t *testing.T) {
	b := New(Options{ProjectDir: filepath.Join(t.TempDir(), "absent")})
	if _, err := b.Run(); err == nil {
		t.Error("expected error for missing project directory")
	}

	b = New(Options{})
	if _, err := b.Run(); err == nil {
		t.Error("expected error for unset project directory")
	}
}

func TestRunSkipsInstallsWhenReceiptMatches(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tools are shell scripts")
	}

	proj := t.TempDir()
	reqs := filepath.Join(proj, "requirements.txt")
	if err := os.WriteFile(reqs, []byte("torch>=2.0.0\ntransformers>=4.30.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(proj, "setup.py"), []byte("from setuptools import setup\nsetup()\n"), 0644); err != nil {
		t.Fatal(err)
	}

	venv := filepath.Join(proj, "venv")
	fabricateVenv(t, venv)
	python := venvToolPath(venv, "python")
	pip := venvToolPath(venv, "pip")
	writeStubTool(t, python, "Python 3.11.4")
	writeStubTool(t, pip, "pip 24.0 from /stub/pip (python 3.11)")

	hash, err := HashFile(reqs)
	if err != nil {
		t.Fatal(err)
	}
	receiptEnv := &Environment{Root: venv}
	if err := receiptEnv.WriteReceipt(&Receipt{
		PythonVersion:    "3.11.4",
		PipVersion:       "24.0",
		RequirementsHash: hash,
		Extras:           "dev",
		CreatedAt:        time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.ProjectDir = proj
	opts.Interpreter = python
	opts.SkipVerify = true

	result, err := New(opts).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	statuses := map[string]StepStatus{}
	for _, s := range result.Steps {
		statuses[s.Name] = s.Status
	}
	for _, name := range []string{"pip-upgrade", "requirements", "project"} {
		if statuses[name] != StepSkipped {
			t.Errorf("step %s = %v, want skipped while requirements are unchanged", name, statuses[name])
		}
	}
	if log := readStubLog(t, pip); strings.Contains(log, "install") {
		t.Errorf("pip must not install anything on an unchanged run, log:\n%s", log)
	}

	// Force reruns the install steps against the same receipt.
	opts.Force = true
	result, err = New(opts).Run()
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	statuses = map[string]StepStatus{}
	for _, s := range result.Steps {
		statuses[s.Name] = s.Status
	}
	for _, name := range []string{"pip-upgrade", "requirements", "project"} {
		if statuses[name] != StepOK {
			t.Errorf("forced step %s = %v, want ok", name, statuses[name])
		}
	}

	pyLog := readStubLog(t, python)
	if !strings.Contains(pyLog, "-m pip install --upgrade pip") {
		t.Errorf("pip self-upgrade must go through the interpreter, python log:\n%s", pyLog)
	}
	pipLog := readStubLog(t, pip)
	if !strings.Contains(pipLog, "-r "+reqs) {
		t.Errorf("forced run should install requirements, pip log:\n%s", pipLog)
	}
	if !strings.Contains(pipLog, "-e") {
		t.Errorf("forced run should install the project editable, pip log:\n%s", pipLog)
	}
}

func TestRunLocksVenvParent(t *testing.T) {
	proj := t.TempDir()
	shared := t.TempDir()
	venv := filepath.Join(shared, "venv")

	held, err := acquireLock(shared)
	if err != nil {
		t.Fatal(err)
	}
	defer held.release()

	b := New(Options{
		ProjectDir:       proj,
		VenvDir:          venv,
		RequirementsFile: "requirements.txt",
	})
	if _, err := b.Run(); err == nil {
		t.Error("a venv outside the project must still be guarded against concurrent bootstraps")
	}
}

func TestNextSteps(t *testing.T) {
	env := &Environment{
		Root:       "/proj/venv",
		BinPath:    filepath.Join("/proj/venv", binDirName()),
		PythonPath: venvToolPath("/proj/venv", "python"),
		PipPath:    venvToolPath("/proj/venv", "pip"),
	}

	text := NextSteps(env)
	if !strings.Contains(text, env.Root) {
		t.Error("guidance should name the environment directory")
	}
	if !strings.Contains(text, env.PythonPath) {
		t.Error("guidance should show the explicit python path")
	}
	if !strings.Contains(text, "activate") {
		t.Error("guidance should mention optional activation")
	}
}
