// Package ui is the terminal front end: a search form over the live,
// filterable result table fed by the pipeline.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fastfinder/internal/config"
	"fastfinder/internal/domain"
	"fastfinder/internal/eventbus"
	"fastfinder/internal/pipeline"
	"fastfinder/internal/prefs"
	"fastfinder/internal/progress"
	"fastfinder/internal/ui/views"
	"fastfinder/internal/worker"
)

// refreshInterval is how often the view pulls a new snapshot
const refreshInterval = 100 * time.Millisecond

// Model represents the UI state
type Model struct {
	ctx    context.Context
	coord  *pipeline.Coordinator
	cfg    *config.Config
	logger *zap.Logger

	prefs     prefs.Prefs
	prefsPath string

	keys     keyMap
	help     help.Model
	renderer *views.Renderer
	pager    *PagerOps

	folder textinput.Model
	query  textinput.Model
	filter textinput.Model
	focus  views.Field
	opts   domain.SearchOptions

	width  int
	height int

	proj     domain.ViewProjection
	cursor   int
	offset   int
	selected map[int]bool // insertion indices, stable across sort and filter

	sortKey  domain.SortKey
	sortDesc bool

	debounce      time.Duration
	filterSeq     int
	filterApplied string

	recentIndex int // -1 while the folder field holds typed text

	inPagerMode bool

	// Program reference for terminal management
	program *tea.Program

	writeClipboard func(string) error
	exportDir      string
	now            func() time.Time
}

// NewModel creates a new UI model
func NewModel(ctx context.Context, coord *pipeline.Coordinator, cfg *config.Config, p prefs.Prefs, prefsPath string, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Model{
		ctx:            ctx,
		coord:          coord,
		cfg:            cfg,
		logger:         logger.Named("ui"),
		prefs:          p,
		prefsPath:      prefsPath,
		keys:           newKeyMap(),
		help:           help.New(),
		renderer:       views.NewRenderer(),
		folder:         newInput("folder to search"),
		query:          newInput("text or pattern"),
		filter:         newInput("narrow the results"),
		debounce:       cfg.Pipeline.FilterDebounce.Std(),
		recentIndex:    -1,
		selected:       make(map[int]bool),
		writeClipboard: clipboard.WriteAll,
		exportDir:      ".",
		now:            time.Now,
		opts: domain.SearchOptions{
			Recursive:      cfg.Search.Recursive,
			Zip:            cfg.Search.Zip,
			MaxWorkers:     cfg.Search.MaxWorkers,
			Extensions:     cfg.Search.Extensions,
			ExcludeFolders: cfg.Search.ExcludeFolders,
			LegacyDoc:      cfg.Search.LegacyDoc,
		},
	}

	if len(p.RecentFolders) > 0 {
		m.folder.SetValue(p.RecentFolders[0])
	} else if wd, err := os.Getwd(); err == nil {
		m.folder.SetValue(wd)
	}

	m.focus = views.FieldQuery
	m.query.Focus()
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 4096
	return ti
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPagerOps(p)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		inputWidth := max(msg.Width-12, 10)
		m.folder.Width = inputWidth
		m.query.Width = inputWidth
		m.filter.Width = inputWidth
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tickMsg:
		m.refresh()
		// Don't continue tick loop if we're in pager mode
		if m.inPagerMode {
			return m, nil
		}
		return m, tick()

	case filterMsg:
		if msg.seq == m.filterSeq {
			m.applyFilter()
		}
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case pagerMsg:
		if msg.err != nil {
			m.logger.Warn("pager failed", zap.Error(msg.err))
			m.coord.Notify(progress.ErrorPrefix+msg.err.Error(), progress.TTLError)
		}
		return m, nil

	case exportDoneMsg:
		// the coordinator already put the outcome on the status bar
		if msg.err == nil {
			m.logger.Debug("export finished", zap.String("path", msg.path), zap.Int("rows", msg.rows))
		}
		m.refresh()
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, tick()
	}

	return m, m.updateFocused(msg)
}

// handleKey dispatches global bindings first, then the focused field's
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.coord.RequestCancel()
		return tea.Quit
	case key.Matches(msg, m.keys.NextField):
		m.setFocus((m.focus + 1) % 4)
		return nil
	case key.Matches(msg, m.keys.PrevField):
		m.setFocus((m.focus + 3) % 4)
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.coord.RequestCancel()
		return nil
	case key.Matches(msg, m.keys.SortNext):
		m.sortKey = m.sortKey.Next()
		m.applySort()
		return nil
	case key.Matches(msg, m.keys.SortReverse):
		m.sortDesc = !m.sortDesc
		m.applySort()
		return nil
	case key.Matches(msg, m.keys.Copy):
		m.copyRows()
		return nil
	case key.Matches(msg, m.keys.Export):
		return m.export()
	case key.Matches(msg, m.keys.Pager):
		return m.openPager(renderResultsContent(m.proj))
	case key.Matches(msg, m.keys.Help):
		return m.openPager(renderHelpContent(m.keys))
	case m.toggleOption(msg):
		return nil
	}

	switch m.focus {
	case views.FieldResults:
		return m.handleResultsKey(msg)
	case views.FieldFolder:
		switch msg.Type {
		case tea.KeyUp:
			m.cycleRecent(1)
			return nil
		case tea.KeyDown:
			m.cycleRecent(-1)
			return nil
		case tea.KeyEnter:
			m.startSearch()
			return nil
		}
		m.recentIndex = -1
	case views.FieldQuery:
		if msg.Type == tea.KeyEnter {
			m.startSearch()
			return nil
		}
	case views.FieldFilter:
		switch {
		case msg.Type == tea.KeyEnter:
			m.filterSeq++
			m.applyFilter()
			return nil
		case key.Matches(msg, m.keys.ClearFilter):
			m.filter.SetValue("")
			m.filterSeq++
			m.applyFilter()
			return nil
		}
		before := m.filter.Value()
		cmd := m.updateFocused(msg)
		if m.filter.Value() != before {
			return tea.Batch(cmd, m.scheduleFilter())
		}
		return cmd
	}
	return m.updateFocused(msg)
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	rows := views.ResultRows(m.height)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= rows
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += rows
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = m.proj.Len() - 1
	case key.Matches(msg, m.keys.Select):
		if m.cursor < m.proj.Len() {
			idx := m.proj.Index(m.cursor)
			if m.selected[idx] {
				delete(m.selected, idx)
			} else {
				m.selected[idx] = true
			}
			m.cursor++
		}
	case key.Matches(msg, m.keys.ClearFilter):
		m.selected = make(map[int]bool)
	case key.Matches(msg, m.keys.Search):
		m.startSearch()
	}
	m.clampCursor()
	return nil
}

// updateFocused forwards msg to the focused text input
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case views.FieldFolder:
		m.folder, cmd = m.folder.Update(msg)
	case views.FieldQuery:
		m.query, cmd = m.query.Update(msg)
	case views.FieldFilter:
		m.filter, cmd = m.filter.Update(msg)
	}
	return cmd
}

func (m *Model) setFocus(f views.Field) {
	m.focus = f
	m.folder.Blur()
	m.query.Blur()
	m.filter.Blur()
	switch f {
	case views.FieldFolder:
		m.folder.Focus()
	case views.FieldQuery:
		m.query.Focus()
	case views.FieldFilter:
		m.filter.Focus()
	}
}

// toggleOption flips the search switch bound to msg, if any
func (m *Model) toggleOption(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Regex):
		m.opts.Regex = !m.opts.Regex
	case key.Matches(msg, m.keys.Recursive):
		m.opts.Recursive = !m.opts.Recursive
	case key.Matches(msg, m.keys.Zip):
		m.opts.Zip = !m.opts.Zip
	case key.Matches(msg, m.keys.Word):
		m.opts.Word = !m.opts.Word
	case key.Matches(msg, m.keys.Excel):
		m.opts.Excel = !m.opts.Excel
	case key.Matches(msg, m.keys.Legacy):
		m.opts.Legacy = !m.opts.Legacy
	default:
		return false
	}
	return true
}

// cycleRecent walks the recent folder list; step 1 goes to older entries
func (m *Model) cycleRecent(step int) {
	recent := m.prefs.RecentFolders
	if len(recent) == 0 {
		return
	}
	next := m.recentIndex + step
	if next < 0 || next >= len(recent) {
		return
	}
	m.recentIndex = next
	m.folder.SetValue(recent[next])
	m.folder.CursorEnd()
}

func (m *Model) startSearch() {
	req := domain.SearchRequest{
		Root:    m.folder.Value(),
		Query:   m.query.Value(),
		Options: m.opts,
	}

	runID, err := m.coord.Start(m.ctx, req)
	if err != nil {
		var startErr *worker.StartupError
		switch {
		case errors.Is(err, pipeline.ErrRunActive):
			m.coord.Notify(progress.ErrorPrefix+"a search is already running", progress.TTLError)
		case errors.As(err, &startErr):
			// the coordinator already reported it
		default:
			m.coord.Notify(progress.ErrorPrefix+err.Error(), progress.TTLError)
		}
		m.logger.Info("search not started", zap.Error(err))
		return
	}

	m.logger.Debug("search started", zap.String("run_id", runID))
	m.cursor, m.offset = 0, 0
	m.selected = make(map[int]bool)
	m.recentIndex = -1

	m.prefs.AddRecentFolder(m.coord.Request().Root)
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			m.logger.Warn("failed to save preferences", zap.Error(err))
		}
	}
	m.refresh()
}

func (m *Model) scheduleFilter() tea.Cmd {
	m.filterSeq++
	seq := m.filterSeq
	if m.debounce <= 0 {
		return func() tea.Msg { return filterMsg{seq: seq} }
	}
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return filterMsg{seq: seq}
	})
}

func (m *Model) applyFilter() {
	text := m.filter.Value()
	if text == m.filterApplied {
		return
	}
	m.filterApplied = text
	m.coord.RequestFilter(text)
	m.cursor, m.offset = 0, 0
	m.refresh()
}

func (m *Model) applySort() {
	m.coord.RequestSort(m.sortKey, m.sortDesc)
	m.refresh()
}

// selectedPositions returns the projection positions of the selected rows,
// or the cursor row when nothing is selected
func (m *Model) selectedPositions() []int {
	var positions []int
	if len(m.selected) > 0 {
		for i := 0; i < m.proj.Len(); i++ {
			if m.selected[m.proj.Index(i)] {
				positions = append(positions, i)
			}
		}
		return positions
	}
	if m.cursor < m.proj.Len() {
		positions = append(positions, m.cursor)
	}
	return positions
}

func (m *Model) copyRows() {
	positions := m.selectedPositions()
	text := m.coord.CopyRows(positions)
	if text == "" {
		m.coord.Notify("nothing to copy", progress.TTLCopied)
		return
	}
	if err := m.writeClipboard(text); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		m.coord.Notify(progress.ErrorPrefix+"clipboard: "+err.Error(), progress.TTLError)
		return
	}
	if len(positions) == 1 {
		m.coord.Notify("copied 1 row", progress.TTLCopied)
	} else {
		m.coord.Notify(fmt.Sprintf("copied %d rows", len(positions)), progress.TTLCopied)
	}
}

// export writes the visible rows next to the working directory without
// blocking the event loop
func (m *Model) export() tea.Cmd {
	path := filepath.Join(m.exportDir, fmt.Sprintf("fastfinder-%s.csv", m.now().Format("20060102-150405")))
	coord := m.coord
	return func() tea.Msg {
		rows, err := coord.Export(path)
		return exportDoneMsg{path: path, rows: rows, err: err}
	}
}

// openPager returns a command that shows content using ov pager
func (m *Model) openPager(content string) tea.Cmd {
	if m.program == nil {
		return nil
	}
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.pager.Show(content)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return pagerMsg{err: err}
	}
}

func (m *Model) handleEvent(e eventbus.DomainEvent) {
	switch ev := e.(type) {
	case eventbus.RunExitedEvent:
		m.logger.Debug("run exited", zap.String("run_id", ev.RunID), zap.Int("records", ev.Records))
	case eventbus.RunFailedEvent:
		m.logger.Debug("run failed", zap.String("run_id", ev.RunID), zap.Error(ev.Err))
	case eventbus.ExportCompletedEvent:
		if ev.Err == nil {
			m.logger.Debug("export written", zap.String("path", ev.Path), zap.Int("rows", ev.Rows))
		}
	}
	m.refresh()
}

// refresh pulls the latest projection snapshot
func (m *Model) refresh() {
	m.proj = m.coord.Projection()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := m.proj.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	rows := views.ResultRows(m.height)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset > max(n-rows, 0) {
		m.offset = max(n-rows, 0)
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the model
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}

	hint := ""
	if m.focus == views.FieldFolder && len(m.prefs.RecentFolders) > 0 {
		hint = "↑/↓ recent folders"
	}

	return m.renderer.Render(views.ViewState{
		Width:       m.width,
		Height:      m.height,
		Focus:       m.focus,
		FolderInput: m.folder.View(),
		QueryInput:  m.query.View(),
		FilterInput: m.filter.View(),
		Options: []views.Option{
			{Key: "F2", Label: "regex", On: m.opts.Regex},
			{Key: "F3", Label: "recursive", On: m.opts.Recursive},
			{Key: "F4", Label: "zip", On: m.opts.Zip},
			{Key: "F5", Label: "word", On: m.opts.Word},
			{Key: "F6", Label: "excel", On: m.opts.Excel},
			{Key: "F7", Label: "legacy", On: m.opts.Legacy},
		},
		RecentHint:  hint,
		Projection:  m.proj,
		Highlighter: m.coord.Highlighter(),
		Cursor:      m.cursor,
		Offset:      m.offset,
		Selected:    m.selected,
		SortKey:     m.sortKey,
		SortDesc:    m.sortDesc,
		State:       m.coord.State(),
		Counters:    m.coord.Counters(),
		StatusText:  m.coord.StatusText(),
		Elapsed:     m.coord.Elapsed(),
		Total:       m.coord.Total(),
		HelpView:    m.help.View(m.keys),
	})
}

// tick returns a command that sends a tick message after a delay
func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
