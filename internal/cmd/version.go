package cmd

import "fmt"

// printVersion writes the CLI version information.
func (rc *RootCommand) printVersion() error {
	_, err := fmt.Fprintln(rc.stdout, versionString())
	return err
}
