//go:build !windows

package worker

import (
	"os"
	"syscall"

	"github.com/creack/pty"
	"github.com/pkg/errors"
)

// interrupt asks the worker to exit
func interrupt(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// openStdout returns the read end for the supervisor and the write end for
// the child. With usePTY the child sees a terminal and line-buffers.
func openStdout(usePTY bool) (*os.File, *os.File, error) {
	if usePTY {
		return pty.Open()
	}
	return os.Pipe()
}

// isPTYEOF reports the error a pty master returns once the child side has
// closed
func isPTYEOF(err error) bool {
	return errors.Is(err, syscall.EIO)
}
