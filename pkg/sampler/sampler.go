package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// TargetKey is the byte whose arrival during a tick marks the sample as
// pressed. The recorder watches the space bar.
const TargetKey byte = ' '

// DefaultBufferSize bounds the bytes staged per read. A keyboard delivers
// far fewer than 100 bytes per second, so a single pass per tick normally
// drains everything that accumulated.
const DefaultBufferSize = 100

// Source is the readiness-and-bytes view of the input stream the sampling
// loop consumes. *terminal.Input satisfies it on supported platforms.
type Source interface {
	// Ready reports whether a read would find at least one byte without
	// blocking longer than timeout.
	Ready(timeout time.Duration) (bool, error)
	// Read stages queued bytes into buf and reports how many were written.
	// Zero with a nil error means the stream ended.
	Read(buf []byte) (int, error)
}

// Recorder receives one level per tick in generation order.
type Recorder interface {
	Record(pressed bool) error
}

// RecorderFunc adapts a plain function to the Recorder interface.
type RecorderFunc func(pressed bool) error

// Record invokes the wrapped function.
func (f RecorderFunc) Record(pressed bool) error {
	return f(pressed)
}

// Options configure a Sampler.
type Options struct {
	Interval   time.Duration
	BufferSize int
	Source     Source
	Clock      func() time.Time
	Sleeper    func(context.Context, time.Duration) error
}

// Sampler emits one binary sample per interval: whether TargetKey arrived on
// the source since the previous tick.
type Sampler struct {
	interval time.Duration
	source   Source
	buf      []byte
	clock    func() time.Time
	sleeper  func(context.Context, time.Duration) error
}

// Result summarises a sampling run.
type Result struct {
	Samples  int
	Pressed  int
	Started  time.Time
	Finished time.Time
}

// New validates options and returns a sampler instance.
func New(opts Options) (*Sampler, error) {
	if opts.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if opts.Source == nil {
		return nil, errors.New("source must be provided")
	}
	if opts.BufferSize < 0 {
		return nil, errors.New("buffer size must be positive")
	}
	size := opts.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = defaultSleeper
	}
	return &Sampler{
		interval: opts.Interval,
		source:   opts.Source,
		buf:      make([]byte, size),
		clock:    clock,
		sleeper:  sleeper,
	}, nil
}

// Run generates total samples, recording each through rec. The first sample
// is taken one interval after the call and every later one at a fixed offset
// from the start, so a slow tick shrinks the following wait instead of
// shifting the whole timeline.
func (s *Sampler) Run(ctx context.Context, total int, rec Recorder) (Result, error) {
	if total < 0 {
		return Result{}, errors.New("sample total must not be negative")
	}
	if rec == nil {
		return Result{}, errors.New("recorder must be provided")
	}

	started := s.clock().UTC()
	result := Result{Started: started}
	if total == 0 {
		result.Finished = started
		return result, nil
	}

	next := started
	for i := 0; i < total; i++ {
		if ctx != nil && ctx.Err() != nil {
			return result, ctx.Err()
		}
		next = next.Add(s.interval)
		if err := s.waitForTick(ctx, next); err != nil {
			return result, err
		}

		pressed, err := s.observe()
		if err != nil {
			return result, fmt.Errorf("observe tick %d: %w", i+1, err)
		}
		if err := rec.Record(pressed); err != nil {
			return result, fmt.Errorf("record sample %d: %w", i+1, err)
		}

		result.Samples++
		if pressed {
			result.Pressed++
		}
	}
	result.Finished = s.clock().UTC()
	return result, nil
}

// observe drains whatever arrived since the previous tick and reports
// whether TargetKey was among it. The staging buffer is cleared before every
// read; the scan only ever sees bytes delivered for the current tick.
func (s *Sampler) observe() (bool, error) {
	pressed := false
	for {
		ready, err := s.source.Ready(0)
		if err != nil {
			return false, fmt.Errorf("poll source: %w", err)
		}
		if !ready {
			return pressed, nil
		}
		clear(s.buf)
		n, err := s.source.Read(s.buf)
		if err != nil {
			return false, fmt.Errorf("read source: %w", err)
		}
		if n == 0 {
			return pressed, nil
		}
		if n > len(s.buf) {
			n = len(s.buf)
		}
		if bytes.IndexByte(s.buf[:n], TargetKey) >= 0 {
			pressed = true
		}
	}
}

func (s *Sampler) waitForTick(ctx context.Context, scheduled time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	now := s.clock()
	if !now.Before(scheduled) {
		return nil
	}
	return s.sleeper(ctx, scheduled.Sub(now))
}

func defaultSleeper(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
