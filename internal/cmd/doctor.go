package cmd

import (
	"errors"
	"fmt"

	"github.com/offlinefirst/keywave/pkg/terminal"
)

// runDoctor reports whether the attached input can support a recording run.
func (rc *RootCommand) runDoctor() error {
	env := terminal.DetectEnvironment(rc.stdin)

	fmt.Fprintln(rc.stdout, "Input diagnostics:")
	fmt.Fprintf(rc.stdout, "  provider: %s\n", env.Provider)
	fmt.Fprintf(rc.stdout, "  terminal: %t\n", env.Terminal)
	fmt.Fprintf(rc.stdout, "  noncanonical input: %t\n", env.Available)
	if env.Message != "" {
		fmt.Fprintf(rc.stdout, "  message: %s\n", env.Message)
	}
	if env.Guidance != "" {
		fmt.Fprintf(rc.stdout, "  guidance: %s\n", env.Guidance)
	}

	if !env.Available {
		return errors.New("input is not ready for recording")
	}
	fmt.Fprintln(rc.stdout, "Ready to record.")
	return nil
}
