package pybootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte("torch>=2.0.0\ntransformers>=4.30.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	h1, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}

	h2, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Error("hash should be stable for unchanged content")
	}

	if err := os.WriteFile(path, []byte("torch>=2.1.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	h3, err := HashFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 == h3 {
		t.Error("hash should change when content changes")
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReceiptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	env := &Environment{Root: dir}

	written := &Receipt{
		PythonVersion:    "3.11.4",
		PipVersion:       "23.2.1",
		RequirementsHash: "abc123",
		Extras:           "dev",
		Verified:         map[string]string{"torch": "2.1.0", "transformers": "4.35.2"},
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
	if err := env.WriteReceipt(written); err != nil {
		t.Fatalf("WriteReceipt: %v", err)
	}

	read, err := ReadReceipt(dir)
	if err != nil {
		t.Fatalf("ReadReceipt: %v", err)
	}
	if read.PythonVersion != written.PythonVersion ||
		read.PipVersion != written.PipVersion ||
		read.RequirementsHash != written.RequirementsHash ||
		read.Extras != written.Extras {
		t.Errorf("round trip mismatch: %+v vs %+v", read, written)
	}
	if read.Verified["torch"] != "2.1.0" {
		t.Errorf("verified map lost in round trip: %+v", read.Verified)
	}
	if !read.CreatedAt.Equal(written.CreatedAt) {
		t.Errorf("timestamp mismatch: %v vs %v", read.CreatedAt, written.CreatedAt)
	}
}

func TestReadReceiptMissing(t *testing.T) {
	if _, err := ReadReceipt(t.TempDir()); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestReceiptMatches(t *testing.T) {
	r := &Receipt{RequirementsHash: "abc", Extras: "dev"}

	if !r.Matches("abc", "dev") {
		t.Error("identical hash and extras should match")
	}
	if r.Matches("def", "dev") {
		t.Error("different hash should not match")
	}
	if r.Matches("abc", "test") {
		t.Error("different extras should not match")
	}

	empty := &Receipt{}
	if empty.Matches("", "") {
		t.Error("receipt without a hash should never match")
	}
}
