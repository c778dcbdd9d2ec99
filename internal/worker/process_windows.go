//go:build windows

package worker

import (
	"os"

	"github.com/pkg/errors"
)

// interrupt has no graceful form on windows; the worker is killed
func interrupt(p *os.Process) error {
	return p.Kill()
}

func openStdout(usePTY bool) (*os.File, *os.File, error) {
	if usePTY {
		return nil, nil, errors.New("pty transport is not supported on windows")
	}
	return os.Pipe()
}

func isPTYEOF(error) bool { return false }
