// Package worker owns the external search process: spawning it, pumping
// its output into a queue and terminating it on request.
package worker

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fastfinder/internal/domain"
)

const (
	// DefaultGracePeriod is how long a cancelled worker may take to exit
	// before it is killed
	DefaultGracePeriod = 1500 * time.Millisecond

	// MaxLineBytes bounds one decoded line; longer lines are truncated
	MaxLineBytes = 1 << 20
)

var (
	ErrAlreadyRunning = errors.New("worker already running")
	ErrNotStarted     = errors.New("worker not started")
)

// StartupError reports a worker that could not be spawned
type StartupError struct {
	Path string
	Err  error
}

func (e *StartupError) Error() string {
	return "failed to start worker " + e.Path + ": " + e.Err.Error()
}

func (e *StartupError) Unwrap() error { return e.Err }

// run is the per-invocation state of a worker
type run struct {
	cmd       *exec.Cmd
	readers   []io.Closer
	forward   atomic.Bool
	cancelled atomic.Bool
	exited    chan struct{} // closed when the process has exited
	done      chan struct{} // closed when output pumps have finished too
	exitCode  int
	waitErr   error // set before exited is closed
	closeOnce sync.Once
}

func (r *run) closeReaders() {
	r.closeOnce.Do(func() {
		for _, c := range r.readers {
			_ = c.Close()
		}
	})
}

// Supervisor runs at most one worker at a time
type Supervisor struct {
	mu     sync.Mutex
	state  domain.RunState
	run    *run
	queue  *Queue
	grace  time.Duration
	logger *zap.Logger
}

// NewSupervisor creates a supervisor feeding lines into queue
func NewSupervisor(queue *Queue, grace time.Duration, logger *zap.Logger) *Supervisor {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		state:  domain.StateIdle,
		queue:  queue,
		grace:  grace,
		logger: logger.Named("worker"),
	}
}

// State returns the current lifecycle state
func (s *Supervisor) State() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start spawns the worker. A spawn failure returns a *StartupError and
// leaves the supervisor Idle. Cancelling ctx cancels the run.
func (s *Supervisor) Start(ctx context.Context, spec Spec) error {
	s.mu.Lock()
	if s.state.Active() {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	r := &run{
		exited:   make(chan struct{}),
		done:     make(chan struct{}),
		exitCode: -1,
	}
	r.forward.Store(true)
	s.state = domain.StateStarting
	s.run = r
	s.mu.Unlock()

	if err := s.spawn(r, spec); err != nil {
		s.mu.Lock()
		s.state = domain.StateIdle
		s.run = nil
		s.mu.Unlock()
		s.logger.Warn("worker failed to start", zap.String("path", spec.Path), zap.Error(err))
		return &StartupError{Path: spec.Path, Err: err}
	}

	s.mu.Lock()
	cancelRequested := s.state == domain.StateCancelRequested
	if !cancelRequested {
		s.state = domain.StateRunning
	}
	s.mu.Unlock()

	s.logger.Info("worker started",
		zap.Int("pid", r.cmd.Process.Pid),
		zap.String("command", spec.CommandLine()),
		zap.Bool("pty", spec.UsePTY))

	go s.supervise(r)

	if cancelRequested {
		go s.terminate(r)
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.Cancel()
			case <-r.done:
			}
		}()
	}
	return nil
}

// spawn starts the process with its output redirected into pipes owned by
// this supervisor
func (s *Supervisor) spawn(r *run, spec Spec) error {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir

	outR, outW, err := openStdout(spec.UsePTY)
	if err != nil {
		return errors.Wrap(err, "failed to open stdout")
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return errors.Wrap(err, "failed to open stderr pipe")
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	startErr := cmd.Start()
	// the child holds its own copies now
	outW.Close()
	errW.Close()
	if startErr != nil {
		outR.Close()
		errR.Close()
		return startErr
	}

	r.cmd = cmd
	r.readers = []io.Closer{outR, errR}
	go s.pump(r, outR, errR)
	return nil
}

// pump reads both streams until they close, then marks the run done once
// the process has exited as well
func (s *Supervisor) pump(r *run, stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error { return s.readStream(r, stdout, Stdout) })
	g.Go(func() error { return s.readStream(r, stderr, Stderr) })

	pumped := make(chan error, 1)
	go func() { pumped <- g.Wait() }()

	var err error
	select {
	case err = <-pumped:
		<-r.exited
	case <-r.exited:
		// a grandchild may keep the pipes open after the worker is gone
		select {
		case err = <-pumped:
		case <-time.After(s.grace):
			s.logger.Warn("worker output still open after exit, closing")
			r.closeReaders()
			err = <-pumped
		}
	}
	r.closeReaders()
	if err != nil {
		s.logger.Debug("output pump stopped", zap.Error(err))
	}

	s.mu.Lock()
	if s.run == r {
		s.state = domain.StateExited
	}
	s.mu.Unlock()

	s.logger.Info("worker exited",
		zap.Int("exit_code", r.exitCode),
		zap.Bool("cancelled", r.cancelled.Load()),
		zap.NamedError("wait_error", r.waitErr))
	close(r.done)
}

// supervise waits for the process to exit
func (s *Supervisor) supervise(r *run) {
	r.waitErr = r.cmd.Wait()
	if r.cmd.ProcessState != nil {
		r.exitCode = r.cmd.ProcessState.ExitCode()
	}
	close(r.exited)
}

func (s *Supervisor) readStream(r *run, src io.Reader, stream Stream) error {
	err := readLines(src, MaxLineBytes, func(line string) {
		if r.forward.Load() {
			s.queue.Push(Line{Stream: stream, Text: line})
		}
	})
	if err != nil && !isClosedError(err) {
		return errors.Wrapf(err, "read %s", stream)
	}
	return nil
}

// Cancel requests termination of the running worker. It returns
// immediately; the signal, grace period and kill happen in the background.
// Only the first call of a run has any effect.
func (s *Supervisor) Cancel() bool {
	s.mu.Lock()
	r := s.run
	switch {
	case r == nil:
		s.mu.Unlock()
		return false
	case s.state == domain.StateStarting:
		s.state = domain.StateCancelRequested
		r.cancelled.Store(true)
		r.forward.Store(false)
		s.mu.Unlock()
		// Start terminates once the process exists
		return true
	case s.state != domain.StateRunning:
		s.mu.Unlock()
		return false
	}
	s.state = domain.StateCancelRequested
	r.cancelled.Store(true)
	r.forward.Store(false)
	s.mu.Unlock()

	go s.terminate(r)
	return true
}

// terminate asks the worker to stop, then kills it after the grace period
func (s *Supervisor) terminate(r *run) {
	proc := r.cmd.Process
	if err := interrupt(proc); err != nil {
		s.logger.Debug("graceful termination failed", zap.Error(err))
	}

	select {
	case <-r.exited:
		return
	case <-time.After(s.grace):
	}

	s.logger.Info("worker did not exit in time, killing", zap.Duration("grace", s.grace))
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Warn("failed to kill worker", zap.Error(err))
	}
	r.closeReaders()
}

// Done is closed once the current run has exited and its output is fully
// queued. It returns nil before the first Start.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.done
}

// Wait blocks until the current run is done or ctx ends
func (s *Supervisor) Wait(ctx context.Context) error {
	done := s.Done()
	if done == nil {
		return ErrNotStarted
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode returns the worker's exit code, -1 while running or when it
// was killed by a signal
func (s *Supervisor) ExitCode() int {
	s.mu.Lock()
	r := s.run
	s.mu.Unlock()
	if r == nil {
		return -1
	}
	select {
	case <-r.exited:
		return r.exitCode
	default:
		return -1
	}
}

// Cancelled reports whether the current run was cancelled
func (s *Supervisor) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && s.run.cancelled.Load()
}

// readLines calls fn for every line of src without its terminator. Lines
// longer than max are truncated; the rest of such a line is skipped so one
// oversized line never stops the stream.
func readLines(src io.Reader, max int, fn func(string)) error {
	br := bufio.NewReaderSize(src, 64*1024)
	var buf []byte
	truncated := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if len(chunk) > 0 && !truncated {
			room := max - len(buf)
			if len(chunk) > room {
				chunk = chunk[:room]
				truncated = true
			}
			buf = append(buf, chunk...)
		}
		if err != nil {
			if len(buf) > 0 {
				fn(string(buf))
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !isPrefix {
			fn(string(buf))
			buf = buf[:0]
			truncated = false
		}
	}
}

func isClosedError(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || isPTYEOF(err)
}
