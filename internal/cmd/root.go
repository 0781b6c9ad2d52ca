package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/offlinefirst/keywave/internal/buildinfo"
	"github.com/offlinefirst/keywave/pkg/config"
	"github.com/offlinefirst/keywave/pkg/logging"
)

// Argument messages fixed by the CLI contract: the recorder takes exactly
// two positionals, the output path and the sample count.
const (
	tooFewArgsMessage  = "Too few arguments provided."
	tooManyArgsMessage = "Too many arguments provided."
)

// AppContext exposes resolved configuration and logging facilities.
type AppContext struct {
	Config config.Config
	Logger *slog.Logger
}

// RootCommand parses flags and positional arguments and drives a recording run.
type RootCommand struct {
	stdout io.Writer
	stderr io.Writer
	stdin  *os.File

	configPath  string
	logLevel    string
	logFormat   string
	planOnly    bool
	doctor      bool
	showVersion bool
}

// NewRootCommand constructs the CLI bound to the process streams.
func NewRootCommand() *RootCommand {
	return &RootCommand{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	}
}

// usageError carries argument diagnostics whose exact wording is part of the
// CLI contract.
type usageError struct {
	message string
}

func (e usageError) Error() string {
	return e.message
}

// Execute evaluates the supplied arguments and runs the recorder. Errors are
// reported on stderr before being returned.
func (rc *RootCommand) Execute(args []string) error {
	fs := rc.flagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		// The flag package already reported it.
		return err
	}

	if err := rc.dispatch(fs.Args()); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintln(rc.stderr, usage.message)
		} else {
			fmt.Fprintf(rc.stderr, "keywave: %v\n", err)
		}
		return err
	}
	return nil
}

func (rc *RootCommand) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("keywave", flag.ContinueOnError)
	fs.SetOutput(rc.stderr)
	fs.Usage = func() { rc.printUsage(fs) }

	fs.StringVar(&rc.configPath, "config", "", "Path to config file (default: ./keywave.yaml if present)")
	fs.StringVar(&rc.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.StringVar(&rc.logFormat, "log-format", "", "Override log output format (console, json)")
	fs.BoolVar(&rc.planOnly, "plan-only", false, "Print the resolved recording plan without starting")
	fs.BoolVar(&rc.doctor, "doctor", false, "Probe terminal input support and exit")
	fs.BoolVar(&rc.showVersion, "version", false, "Print the CLI version information")
	return fs
}

func (rc *RootCommand) dispatch(args []string) error {
	if rc.showVersion {
		return rc.printVersion()
	}
	if rc.doctor {
		return rc.runDoctor()
	}

	if len(args) < 2 {
		return usageError{message: tooFewArgsMessage}
	}
	if len(args) > 2 {
		return usageError{message: tooManyArgsMessage}
	}

	outputPath := args[0]
	total, err := parseSampleCount(args[1])
	if err != nil {
		return err
	}

	app, err := rc.ensureAppContext()
	if err != nil {
		return err
	}

	if rc.planOnly {
		rc.printRunPlan(app, outputPath, total)
		return nil
	}

	return rc.runRecording(app, outputPath, total)
}

// parseSampleCount rejects anything but a whole, non-negative decimal before
// any file is touched.
func parseSampleCount(raw string) (int, error) {
	total, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, usageError{message: fmt.Sprintf("Sample count %q is not a whole number.", raw)}
	}
	if total < 0 {
		return 0, usageError{message: fmt.Sprintf("Sample count must not be negative, got %d.", total)}
	}
	return total, nil
}

func (rc *RootCommand) ensureAppContext() (*AppContext, error) {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, err
	}

	if rc.logLevel != "" {
		lvl, err := config.NormalizeLogLevel(rc.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Level = lvl
	}
	if rc.logFormat != "" {
		format, err := config.NormalizeFormat(rc.logFormat)
		if err != nil {
			return nil, err
		}
		cfg.Logging.Format = format
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: rc.stderr,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "source", cfg.Source, "interval_ms", cfg.Sampling.IntervalMillis, "buffer_bytes", cfg.Sampling.BufferBytes)

	return &AppContext{Config: cfg, Logger: logger}, nil
}

func (rc *RootCommand) printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(rc.stderr, "keywave - terminal key press recorder\nVersion: %s\n\n", versionString())
	fmt.Fprintln(rc.stderr, "Usage: keywave [flags] <output_path> <sample_count>")
	fmt.Fprintln(rc.stderr, "")
	fmt.Fprintln(rc.stderr, "Once per interval the recorder appends one line to <output_path>:")
	fmt.Fprintln(rc.stderr, "\"1\" if the space bar was pressed since the previous tick, \"0\" otherwise.")
	fmt.Fprintln(rc.stderr, "")
	fmt.Fprintln(rc.stderr, "Flags:")
	fs.PrintDefaults()
}

func versionString() string {
	return fmt.Sprintf("%s (go%s/%s)", buildinfo.Version(), runtimeVersion(), runtimeGOOS())
}

// runtimeVersion is extracted for testability.
var runtimeVersion = func() string { return strings.TrimPrefix(runtime.Version(), "go") }

// runtimeGOOS is extracted for testability.
var runtimeGOOS = func() string { return runtime.GOOS }
