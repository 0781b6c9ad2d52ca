package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/offlinefirst/keywave/pkg/sampler"
	"github.com/offlinefirst/keywave/pkg/terminal"
	"github.com/offlinefirst/keywave/pkg/wavefile"
)

// terminalMode is the restorable state handed back by the terminal package.
type terminalMode interface {
	Restore() error
}

var (
	enterNoncanonical = defaultEnterNoncanonical
	newInputSource    = defaultInputSource
	newSampler        = sampler.New
)

func defaultEnterNoncanonical(file *os.File) (terminalMode, error) {
	mode, err := terminal.EnterNoncanonical(int(file.Fd()))
	if err != nil {
		return nil, err
	}
	return mode, nil
}

func defaultInputSource(file *os.File) sampler.Source {
	return terminal.NewInput(file)
}

// runRecording drives one complete recording: terminal setup, the sampling
// loop, and the wave file, with the terminal restored on every exit path.
func (rc *RootCommand) runRecording(app *AppContext, outputPath string, total int) error {
	log := app.Logger
	log.Info("recording run starting",
		"output", outputPath,
		"samples", total,
		"interval_ms", app.Config.Sampling.IntervalMillis,
		"config_source", app.Config.Source)

	// No ticks to take: the contract is an empty file and a clean exit,
	// without touching the terminal.
	if total == 0 {
		writer, err := wavefile.Create(outputPath)
		if err != nil {
			return err
		}
		if err := writer.Close(); err != nil {
			return err
		}
		log.Info("recording complete", "output", outputPath, "samples", 0, "pressed", 0)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := enterNoncanonical(rc.stdin)
	if err != nil {
		return fmt.Errorf("configure terminal: %w", err)
	}
	defer func() {
		if err := mode.Restore(); err != nil {
			log.Warn("terminal restore failed", "error", err)
		}
	}()

	writer, err := wavefile.Create(outputPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	s, err := newSampler(sampler.Options{
		Interval:   app.Config.Sampling.Interval(),
		BufferSize: app.Config.Sampling.BufferBytes,
		Source:     newInputSource(rc.stdin),
	})
	if err != nil {
		return err
	}

	res, err := s.Run(ctx, total, writer)
	if err != nil {
		// Keep whatever was sampled before the failure.
		if closeErr := writer.Close(); closeErr != nil {
			log.Warn("wave file close failed", "error", closeErr)
		}
		return fmt.Errorf("sampling run: %w", err)
	}

	if err := writer.Close(); err != nil {
		return err
	}

	log.Info("recording complete",
		"output", writer.Path(),
		"samples", res.Samples,
		"pressed", res.Pressed,
		"duration", res.Finished.Sub(res.Started).String())
	return nil
}

func (rc *RootCommand) printRunPlan(app *AppContext, outputPath string, total int) {
	fmt.Fprintf(rc.stdout, "Resolved recording plan (config source: %s)\n", app.Config.Source)
	fmt.Fprintf(rc.stdout, "  output: %s\n", outputPath)
	fmt.Fprintf(rc.stdout, "  samples: %d\n", total)
	fmt.Fprintf(rc.stdout, "  interval: %s\n", app.Config.Sampling.Interval())
	fmt.Fprintf(rc.stdout, "  buffer: %d bytes\n", app.Config.Sampling.BufferBytes)
	fmt.Fprintf(rc.stdout, "  target key: space (0x%02x)\n", sampler.TargetKey)
	fmt.Fprintf(rc.stdout, "  logging.level: %s\n", app.Config.Logging.Level)
	fmt.Fprintf(rc.stdout, "  logging.format: %s\n", app.Config.Logging.Format)
}
