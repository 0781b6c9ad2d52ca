//go:build linux || darwin

package terminal

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Mode holds the attribute set captured before noncanonical delivery was
// enabled so the terminal can be handed back exactly as it was found.
type Mode struct {
	fd       int
	previous unix.Termios
	restored bool
}

// EnterNoncanonical switches fd to byte-at-a-time delivery: canonical line
// assembly is cleared and read(2) may complete once a single byte is queued.
// Echo and signal handling keep their current settings. The returned Mode
// reinstates the captured attributes.
func EnterNoncanonical(fd int) (*Mode, error) {
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return nil, fmt.Errorf("read terminal attributes: %w", err)
	}
	mode := &Mode{fd: fd, previous: *state}
	updated := noncanonical(*state)
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &updated); err != nil {
		return nil, fmt.Errorf("apply terminal attributes: %w", err)
	}
	return mode, nil
}

// noncanonical returns state with line assembly disabled and reads completing
// after a single byte with no inter-byte timer.
func noncanonical(state unix.Termios) unix.Termios {
	state.Lflag &^= unix.ICANON
	state.Cc[unix.VMIN] = 1
	state.Cc[unix.VTIME] = 0
	return state
}

// Restore reinstates the attributes captured by EnterNoncanonical. Repeat
// calls are no-ops so Restore can be deferred as well as invoked explicitly.
func (m *Mode) Restore() error {
	if m == nil || m.restored {
		return nil
	}
	m.restored = true
	if err := unix.IoctlSetTermios(m.fd, ioctlWriteTermios, &m.previous); err != nil {
		return fmt.Errorf("restore terminal attributes: %w", err)
	}
	return nil
}

// Input answers readiness questions about a descriptor and drains queued
// bytes without blocking beyond the caller's timeout.
type Input struct {
	fd int
}

// NewInput wraps file for polling. The descriptor stays owned by the caller.
func NewInput(file *os.File) *Input {
	return &Input{fd: int(file.Fd())}
}

// Ready reports whether at least one byte, or end of stream, can be read
// without blocking longer than timeout. A zero timeout is an immediate
// check; a negative timeout waits until data arrives.
func (in *Input) Ready(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(in.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, pollTimeout(timeout))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return false, fmt.Errorf("poll input: %w", err)
		}
		return n > 0, nil
	}
}

// Read fills buf with whatever is queued, retrying interrupted calls. End of
// stream is reported as zero bytes with a nil error.
func (in *Input) Read(buf []byte) (int, error) {
	for {
		n, err := unix.Read(in.fd, buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				return 0, nil
			}
			return 0, fmt.Errorf("read input: %w", err)
		}
		if n < 0 {
			n = 0
		}
		return n, nil
	}
}

func pollTimeout(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	return int(timeout.Milliseconds())
}

func probeEnvironment(file *os.File) Environment {
	env := Environment{Provider: providerTermios}
	if file == nil {
		env.Message = "no input descriptor"
		return env
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		env.Message = "input is not attached to a terminal"
		env.Guidance = "run from an interactive terminal rather than a pipe or redirect"
		return env
	}
	env.Terminal = true
	if _, err := unix.IoctlGetTermios(fd, ioctlReadTermios); err != nil {
		env.Message = fmt.Sprintf("terminal attributes unreadable: %v", err)
		return env
	}
	env.Available = true
	env.Message = "noncanonical input supported"
	return env
}
