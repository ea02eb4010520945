package pybootstrap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PythonError represents an exception raised inside a Python process run by
// pybootstrap, such as the verification probe. It captures the exception
// type, message, and full traceback for debugging.
type PythonError struct {
	// Exception is the exception class name (e.g., "ModuleNotFoundError").
	Exception string `json:"exception"`

	// Message is the exception message/description.
	Message string `json:"message"`

	// Traceback is the full Python traceback string.
	Traceback string `json:"traceback"`
}

// Error formats the exception as "Type: message" with the traceback appended
// when present.
func (e *PythonError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Exception, e.Message)
	if tb := strings.TrimSpace(e.Traceback); tb != "" {
		msg += "\n" + tb
	}
	return msg
}

// ParsePythonError parses a PythonError from JSON bytes emitted by a
// Python-side reporter.
func ParsePythonError(data []byte) (*PythonError, error) {
	var pyErr PythonError
	if err := json.Unmarshal(data, &pyErr); err != nil {
		return nil, err
	}
	return &pyErr, nil
}
