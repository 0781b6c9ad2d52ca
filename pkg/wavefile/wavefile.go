package wavefile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// ErrClosed reports a write attempted after the writer was closed.
var ErrClosed = errors.New("wavefile: writer is closed")

const (
	pressedLine = "1\n"
	idleLine    = "0\n"
)

// Writer persists a square-wave signal as newline-terminated ASCII digits,
// one sample per line: "1" while the key was observed, "0" otherwise.
type Writer struct {
	path    string
	file    *os.File
	buf     *bufio.Writer
	samples int
	closed  bool
}

// Create opens path for writing, truncating any previous recording.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wave file: %w", err)
	}
	return &Writer{path: path, file: file, buf: bufio.NewWriter(file)}, nil
}

// Record appends one sample line in generation order.
func (w *Writer) Record(pressed bool) error {
	if w.closed {
		return ErrClosed
	}
	line := idleLine
	if pressed {
		line = pressedLine
	}
	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	w.samples++
	return nil
}

// Samples reports how many lines have been recorded so far.
func (w *Writer) Samples() int {
	return w.samples
}

// Path reports the destination the writer was created with.
func (w *Writer) Path() string {
	return w.path
}

// Flush pushes buffered samples to the file without closing it.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush wave file: %w", err)
	}
	return nil
}

// Close flushes buffered samples and releases the file. Closing an already
// closed writer is a no-op so it can be deferred alongside an explicit call.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush wave file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close wave file: %w", closeErr)
	}
	return nil
}

// ReadLevels parses a recording produced by Writer back into sample levels.
// Any line other than "0" or "1" is rejected with its line number.
func ReadLevels(path string) ([]bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wave file: %w", err)
	}
	defer file.Close()

	levels := make([]bool, 0, 64)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		switch scanner.Text() {
		case "1":
			levels = append(levels, true)
		case "0":
			levels = append(levels, false)
		default:
			return nil, fmt.Errorf("wave file %s line %d: expected 0 or 1, got %q", path, lineNo, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wave file: %w", err)
	}
	return levels, nil
}
