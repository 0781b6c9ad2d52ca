//go:build !linux && !darwin

package terminal

import (
	"os"
	"time"
)

// Mode exists so callers hold and restore terminal state uniformly. There is
// nothing to restore on platforms without termios.
type Mode struct{}

// EnterNoncanonical always fails on this platform.
func EnterNoncanonical(fd int) (*Mode, error) {
	return nil, ErrUnsupported
}

// Restore is a no-op.
func (m *Mode) Restore() error {
	return nil
}

// Input mirrors the supported-platform API and reports ErrUnsupported.
type Input struct{}

// NewInput wraps file for polling.
func NewInput(file *os.File) *Input {
	return &Input{}
}

// Ready always fails on this platform.
func (in *Input) Ready(timeout time.Duration) (bool, error) {
	return false, ErrUnsupported
}

// Read always fails on this platform.
func (in *Input) Read(buf []byte) (int, error) {
	return 0, ErrUnsupported
}

func probeEnvironment(file *os.File) Environment {
	return Environment{
		Provider: providerStub,
		Message:  "noncanonical terminal input is unavailable on this platform",
		Guidance: "run on a linux or darwin host",
	}
}
