// Package pipeline runs one search at a time: it starts the worker, drains
// its output into the result store in batches and exposes the state the
// view renders.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fastfinder/internal/config"
	"fastfinder/internal/domain"
	"fastfinder/internal/eventbus"
	"fastfinder/internal/highlight"
	"fastfinder/internal/progress"
	"fastfinder/internal/protocol"
	"fastfinder/internal/results"
	"fastfinder/internal/worker"
)

var (
	ErrRunActive      = errors.New("a search is already running")
	ErrNotRunning     = errors.New("no search has been started")
	ErrInvalidRequest = errors.New("invalid search request")
)

// Options configures the coordinator
type Options struct {
	Command       string
	Script        string
	Dir           string
	EnvFile       string
	Env           map[string]string
	UsePTY        bool
	Grace         time.Duration
	BatchSize     int
	DrainInterval time.Duration
	Diag          bool
}

// OptionsFromConfig maps the loaded configuration onto coordinator options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Command:       cfg.Worker.Command,
		Script:        cfg.Worker.Script,
		Dir:           cfg.Worker.Dir,
		EnvFile:       cfg.Worker.EnvFile,
		UsePTY:        cfg.Worker.UsePTY,
		Grace:         cfg.Worker.GracePeriod.Std(),
		BatchSize:     cfg.Pipeline.BatchSize,
		DrainInterval: cfg.Pipeline.DrainInterval.Std(),
		Diag:          cfg.Worker.Diag,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 1000
	}
	if o.DrainInterval <= 0 {
		o.DrainInterval = 100 * time.Millisecond
	}
	if o.Grace <= 0 {
		o.Grace = worker.DefaultGracePeriod
	}
	return o
}

// request is the validated shape of a SearchRequest
type request struct {
	Root       string `validate:"required,dir"`
	Query      string `validate:"required"`
	MaxWorkers int    `validate:"min=0,max=256"`
	LegacyDoc  string `validate:"omitempty,oneof=auto com external"`
}

// Coordinator owns the run lifecycle
type Coordinator struct {
	opts   Options
	bus    eventbus.EventBus
	logger *zap.Logger
	now    func() time.Time

	queue *worker.Queue
	sup   *worker.Supervisor
	store *results.Store
	agg   *progress.Aggregator

	mu       sync.Mutex
	state    domain.RunState
	runID    string
	request  domain.SearchRequest
	hl       *highlight.Highlighter
	started  time.Time
	finished time.Time
	loopDone chan struct{}
}

// New creates a coordinator. bus and logger may be nil.
func New(opts Options, bus eventbus.EventBus, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	queue := worker.NewQueue()
	return &Coordinator{
		opts:   opts,
		bus:    bus,
		logger: logger.Named("pipeline"),
		now:    time.Now,
		queue:  queue,
		sup:    worker.NewSupervisor(queue, opts.Grace, logger),
		store:  results.NewStore(),
		agg:    progress.New(),
		state:  domain.StateIdle,
		hl:     highlight.New(domain.ModeLiteral, ""),
	}
}

// Start launches a search and returns its run id. It fails with
// ErrRunActive while another run is active, with ErrInvalidRequest for a
// bad request and with a *worker.StartupError when the worker cannot be
// spawned. Cancelling ctx has the same effect as RequestCancel.
func (c *Coordinator) Start(ctx context.Context, req domain.SearchRequest) (string, error) {
	req, err := normalize(req)
	if err != nil {
		return "", err
	}
	if c.opts.Diag {
		req.Options.Diag = true
	}

	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return "", ErrRunActive
	}
	runID := uuid.NewString()
	c.state = domain.StateStarting
	c.runID = runID
	c.request = req
	c.hl = highlight.New(req.Mode(), req.Query)
	c.started = c.now()
	c.finished = time.Time{}
	// a new run starts from an empty store and zeroed counters
	c.queue.Reset()
	c.store.Clear()
	c.agg.Reset()
	c.mu.Unlock()

	logger := c.logger.With(zap.String("run_id", runID))

	spec, err := c.buildSpec(req)
	if err == nil {
		// ctx is watched below so its cancellation goes through RequestCancel
		err = c.sup.Start(context.Background(), spec)
	}
	if err != nil {
		c.mu.Lock()
		c.state = domain.StateIdle
		c.mu.Unlock()

		logger.Warn("search failed to start", zap.Error(err))
		c.agg.SetMessage(progress.ErrorPrefix+err.Error(), progress.TTLError)
		c.publish(eventbus.RunFailedEvent{RunID: runID, Err: err})
		return "", err
	}

	loopDone := make(chan struct{})
	c.mu.Lock()
	cancelled := c.state == domain.StateCancelRequested
	if !cancelled {
		c.state = domain.StateRunning
	}
	c.loopDone = loopDone
	c.mu.Unlock()

	if cancelled {
		c.sup.Cancel()
	}

	c.agg.SetMessage("search started", progress.TTLStarted)
	logger.Info("search started",
		zap.String("root", req.Root),
		zap.String("query", req.Query),
		zap.Bool("regex", req.Options.Regex))
	if err := c.hl.Err(); err != nil {
		logger.Debug("highlight disabled", zap.Error(err))
	}
	c.publish(eventbus.RunStartedEvent{RunID: runID, Request: req})

	go c.loop(runID, c.sup.Done(), loopDone)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				c.RequestCancel()
			case <-loopDone:
			}
		}()
	}
	return runID, nil
}

// normalize trims and validates a request and makes the root absolute
func normalize(req domain.SearchRequest) (domain.SearchRequest, error) {
	req.Root = strings.TrimSpace(req.Root)
	req.Options.LegacyDoc = strings.ToLower(strings.TrimSpace(req.Options.LegacyDoc))
	if req.Root != "" {
		abs, err := filepath.Abs(req.Root)
		if err == nil {
			req.Root = abs
		}
	}

	err := config.ValidateStruct(request{
		Root:       req.Root,
		Query:      strings.TrimSpace(req.Query),
		MaxWorkers: req.Options.MaxWorkers,
		LegacyDoc:  req.Options.LegacyDoc,
	})
	if err != nil {
		return req, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	return req, nil
}

func (c *Coordinator) buildSpec(req domain.SearchRequest) (worker.Spec, error) {
	spec, err := worker.NewSpec(c.opts.Command, resolveScript(c.opts.Script), req)
	if err != nil {
		return worker.Spec{}, err
	}
	env, err := worker.DefaultEnv(c.opts.EnvFile, c.opts.Env)
	if err != nil {
		return worker.Spec{}, err
	}
	spec.Env = env
	spec.Dir = c.opts.Dir
	spec.UsePTY = c.opts.UsePTY
	return spec, nil
}

// resolveScript looks a relative script up in the working directory and
// then next to the executable
func resolveScript(script string) string {
	if script == "" || filepath.IsAbs(script) {
		return script
	}
	if _, err := os.Stat(script); err == nil {
		if abs, err := filepath.Abs(script); err == nil {
			return abs
		}
		return script
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), script)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return script
}

// loop drains the queue on every tick and once more, without a limit,
// after the worker is done
func (c *Coordinator) loop(runID string, workerDone <-chan struct{}, loopDone chan struct{}) {
	defer close(loopDone)

	ticker := time.NewTicker(c.opts.DrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.drain(c.opts.BatchSize)
		case <-workerDone:
			c.drain(0)
			c.finish(runID)
			return
		}
	}
}

// drain decodes up to max queued lines, appends the records in arrival
// order and folds everything else into the counters. Returns the number
// of lines consumed.
func (c *Coordinator) drain(max int) int {
	lines := c.queue.Drain(max)
	if len(lines) == 0 {
		return 0
	}

	recs := make([]domain.Record, 0, len(lines))
	malformed := 0
	for _, l := range lines {
		var ev protocol.Event
		if l.Stream == worker.Stderr {
			ev = protocol.DecodeError(l.Text)
		} else {
			ev = protocol.Decode(l.Text)
		}

		switch ev.Kind {
		case protocol.KindRecord:
			recs = append(recs, ev.Record)
		case protocol.KindMalformed:
			malformed++
		case protocol.KindStatus, protocol.KindError:
			c.agg.Apply(ev)
		}
	}

	c.store.AppendBatch(recs)
	c.agg.Reconcile(c.store.Len())

	if malformed > 0 {
		c.logger.Debug("skipped malformed lines", zap.Int("count", malformed))
	}
	return len(lines)
}

func (c *Coordinator) finish(runID string) {
	cancelled := c.sup.Cancelled()
	exitCode := c.sup.ExitCode()
	records := c.store.Len()
	if cancelled {
		c.agg.SetMessage("cancelled", progress.TTLCancelled)
	}

	// the next Start may clear the store as soon as the state flips
	c.mu.Lock()
	c.state = domain.StateExited
	c.finished = c.now()
	elapsed := c.finished.Sub(c.started)
	c.mu.Unlock()

	c.logger.Info("search finished",
		zap.String("run_id", runID),
		zap.Bool("cancelled", cancelled),
		zap.Int("exit_code", exitCode),
		zap.Int("records", records),
		zap.Duration("elapsed", elapsed))

	c.publish(eventbus.RunExitedEvent{
		RunID:     runID,
		Cancelled: cancelled,
		ExitCode:  exitCode,
		Records:   records,
		Elapsed:   elapsed,
	})
}

// RequestCancel asks the running worker to stop. Records already queued
// are still drained. Returns false when there was nothing to cancel.
func (c *Coordinator) RequestCancel() bool {
	c.mu.Lock()
	switch c.state {
	case domain.StateStarting:
		c.state = domain.StateCancelRequested
		c.mu.Unlock()
		c.agg.SetMessage("cancelling...", progress.TTLCancelling)
		return true
	case domain.StateRunning:
		c.state = domain.StateCancelRequested
	default:
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	c.sup.Cancel()
	c.agg.SetMessage("cancelling...", progress.TTLCancelling)
	c.logger.Info("search cancel requested", zap.String("run_id", c.RunID()))
	return true
}

// RequestSort orders the projection by key
func (c *Coordinator) RequestSort(key domain.SortKey, desc bool) {
	c.store.SetSort(key, desc)
}

// RequestFilter restricts the projection to records matching every token
// of text
func (c *Coordinator) RequestFilter(text string) {
	c.store.SetFilter(text)
}

// Projection returns the current immutable view snapshot
func (c *Coordinator) Projection() domain.ViewProjection {
	return c.store.Snapshot()
}

// Counters returns the current progress counters
func (c *Coordinator) Counters() domain.Counters {
	return c.agg.Snapshot()
}

// Total returns the number of records received in the current run,
// visible or not
func (c *Coordinator) Total() int {
	return c.store.Len()
}

// StatusText returns the status bar message
func (c *Coordinator) StatusText() string {
	return c.agg.StatusText()
}

// Notify shows a transient message in the status bar
func (c *Coordinator) Notify(text string, ttl time.Duration) {
	c.agg.SetMessage(text, ttl)
	c.publish(eventbus.StatusMessageEvent{Text: text, TTL: ttl})
}

// State returns the lifecycle state of the current run
func (c *Coordinator) State() domain.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunID returns the id of the current or last run
func (c *Coordinator) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Request returns the current or last search request
func (c *Coordinator) Request() domain.SearchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request
}

// Highlighter returns the highlighter of the current run
func (c *Coordinator) Highlighter() *highlight.Highlighter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hl
}

// Elapsed returns how long the current run has been going, or how long
// the last run took
func (c *Coordinator) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.started.IsZero() || c.state == domain.StateIdle:
		return 0
	case c.state == domain.StateExited:
		return c.finished.Sub(c.started)
	default:
		return c.now().Sub(c.started)
	}
}

// Export writes the visible rows to path (CSV, or TSV for .tsv files)
func (c *Coordinator) Export(path string) (int, error) {
	rows, err := results.ExportFile(path, c.store.Snapshot())
	if err != nil {
		c.logger.Warn("export failed", zap.String("path", path), zap.Error(err))
		c.agg.SetMessage(progress.ErrorPrefix+err.Error(), progress.TTLError)
	} else {
		c.logger.Info("exported results", zap.String("path", path), zap.Int("rows", rows))
		c.agg.SetMessage("exported "+filepath.Base(path), progress.TTLExported)
	}
	c.publish(eventbus.ExportCompletedEvent{Path: path, Rows: rows, Err: err})
	return rows, err
}

// CopyRows renders the visible rows at the given projection positions as
// TSV lines. Out of range positions are skipped.
func (c *Coordinator) CopyRows(positions []int) string {
	proj := c.store.Snapshot()
	recs := make([]domain.Record, 0, len(positions))
	for _, i := range positions {
		if i >= 0 && i < proj.Len() {
			recs = append(recs, proj.At(i))
		}
	}
	return results.FormatTSVRows(recs)
}

// Wait blocks until the current run has been fully drained
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.loopDone
	c.mu.Unlock()
	if done == nil {
		return ErrNotRunning
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels an active run and waits for it to finish
func (c *Coordinator) Close() {
	c.RequestCancel()
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.Grace+5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
		c.logger.Warn("search did not stop in time", zap.Error(err))
	}
}

func (c *Coordinator) publish(e eventbus.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}
