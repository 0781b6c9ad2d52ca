package terminal

import "os"

// Environment summarises noncanonical input support for a descriptor.
type Environment struct {
	Provider  string
	Terminal  bool
	Available bool
	Message   string
	Guidance  string
}

const (
	providerTermios = "posix_termios"
	providerStub    = "stub"
)

// DetectEnvironment reports whether file can be switched to noncanonical
// byte-at-a-time delivery, without changing any terminal attribute.
func DetectEnvironment(file *os.File) Environment {
	return probeEnvironment(file)
}
