package pybootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// receiptFileName is the receipt's location inside the venv directory.
const receiptFileName = ".pybootstrap-receipt"

// Receipt records the outcome of a successful bootstrap run. It is written
// into the virtual environment as a compact msgpack file and consulted on
// later runs to decide whether the install steps can be skipped.
type Receipt struct {
	// PythonVersion is the venv interpreter version at install time.
	PythonVersion string `msgpack:"python_version"`

	// PipVersion is the pip version after the upgrade step.
	PipVersion string `msgpack:"pip_version"`

	// RequirementsHash is the SHA-256 of the requirements file contents.
	RequirementsHash string `msgpack:"requirements_hash"`

	// Extras is the extras group used for the editable project install.
	Extras string `msgpack:"extras"`

	// Verified maps package import names to the versions reported by the
	// verification probe.
	Verified map[string]string `msgpack:"verified,omitempty"`

	// CreatedAt is when the run completed.
	CreatedAt time.Time `msgpack:"created_at"`
}

// HashFile returns the SHA-256 of a file's contents as a hex string.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteReceipt serializes the receipt into the environment directory.
func (env *Environment) WriteReceipt(r *Receipt) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("error encoding receipt: %v", err)
	}
	path := filepath.Join(env.Root, receiptFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing receipt: %v", err)
	}
	return nil
}

// ReadReceipt loads the receipt stored in a venv directory. Returns
// os.ErrNotExist (wrapped) if no receipt has been written.
func ReadReceipt(venvDir string) (*Receipt, error) {
	data, err := os.ReadFile(filepath.Join(venvDir, receiptFileName))
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("error decoding receipt: %v", err)
	}
	return &r, nil
}

// Matches reports whether the receipt covers the given requirements hash and
// extras group, i.e. whether the install steps can be skipped.
func (r *Receipt) Matches(requirementsHash, extras string) bool {
	return r.RequirementsHash != "" &&
		r.RequirementsHash == requirementsHash &&
		r.Extras == extras
}
