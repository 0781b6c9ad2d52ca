package terminal

import "errors"

// ErrNotTerminal indicates the input descriptor is not attached to an
// interactive terminal.
var ErrNotTerminal = errors.New("input is not attached to a terminal")

// ErrUnsupported indicates noncanonical input is not implemented for this
// platform.
var ErrUnsupported = errors.New("noncanonical terminal input unsupported on this platform")
