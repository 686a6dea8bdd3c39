// Package clangformat wraps the external clang-format executable behind a
// small capability interface so the rule pipeline can be tested without the
// tool installed.
package clangformat

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolMissing indicates the formatter executable could not be found or
// started. Surfacing this during the startup probe is fatal.
var ErrToolMissing = errors.New("formatter executable not found")

// ErrExitStatus indicates the formatter ran but exited non-zero.
var ErrExitStatus = errors.New("formatter exited with an error")

// Formatter formats source content through an external tool.
type Formatter interface {
	// Probe verifies the tool can be invoked at all. Called once before
	// scanning begins.
	Probe() error
	// Format runs the tool over data. pathHint carries the original file
	// path so the tool can resolve its language and style file.
	Format(pathHint string, data []byte) ([]byte, error)
}

// ExecFormatter invokes clang-format as a subprocess, piping content via
// stdin and reading the formatted result from stdout. Style resolution is
// fixed to the project .clang-format file ("-style=file").
type ExecFormatter struct {
	exe string
}

// New creates an ExecFormatter for the given executable name or path.
func New(exe string) *ExecFormatter {
	return &ExecFormatter{exe: exe}
}

// Probe runs a version query to verify the executable exists and starts.
func (f *ExecFormatter) Probe() error {
	cmd := exec.Command(f.exe, "--version")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s --version failed: %v", ErrToolMissing, f.exe, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrToolMissing, f.exe, err)
	}
	return nil
}

// Format pipes data through the formatter and returns its output.
func (f *ExecFormatter) Format(pathHint string, data []byte) ([]byte, error) {
	cmd := exec.Command(f.exe,
		fmt.Sprintf("-assume-filename=%s", pathHint),
		"-style=file")

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return nil, fmt.Errorf("%w: %s", ErrExitStatus, msg)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrToolMissing, f.exe, err)
	}
	return stdout.Bytes(), nil
}
