// Package terminal switches a controlling terminal into noncanonical
// byte-at-a-time input and answers readiness questions about the input
// descriptor without consuming data. Supported platforms drive POSIX termios
// and poll(2); elsewhere every entry point reports ErrUnsupported.
package terminal
