package discovery

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ExecutableName is appended to a discovered install directory.
const ExecutableName = "VRChat.exe"

// ErrUnsupported is returned by Registry on platforms without a registry.
var ErrUnsupported = errors.New("install discovery not supported on this platform")

// Discoverer looks up the directory the target application is installed in.
// A non-nil error means "not found"; callers treat it as absence.
type Discoverer interface {
	InstallDir() (string, error)
}

// Error describes a lookup that could not produce a directory.
type Error struct {
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discovery %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("discovery %s: %s", e.Key, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Func adapts a plain function to Discoverer.
type Func func() (string, error)

func (f Func) InstallDir() (string, error) { return f() }

// Static always reports dir. An empty dir reports a not-found Error.
type Static string

func (s Static) InstallDir() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", &Error{Key: "static", Reason: "no directory configured"}
	}
	return string(s), nil
}

// None never finds anything.
type None struct{}

func (None) InstallDir() (string, error) { return "", ErrUnsupported }

// ExecutablePath joins ExecutableName onto dir.
func ExecutablePath(dir string) string {
	return filepath.Join(dir, ExecutableName)
}

// Lookup queries d and returns the full executable path when found.
func Lookup(d Discoverer) (string, error) {
	if d == nil {
		return "", ErrUnsupported
	}
	dir, err := d.InstallDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		return "", &Error{Key: "install_dir", Reason: "empty value"}
	}
	return ExecutablePath(dir), nil
}
