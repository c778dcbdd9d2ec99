package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fastfinder/internal/domain"
	"fastfinder/internal/highlight"
	"fastfinder/internal/progress"
)

// chromeLines is how many lines the view spends outside the result rows:
// title, folder, query, options, filter, blank, header, status and help
const chromeLines = 9

// Field identifies a form input
type Field int

const (
	FieldFolder Field = iota
	FieldQuery
	FieldFilter
	FieldResults
)

// Option is one search switch shown in the options line
type Option struct {
	Key   string
	Label string
	On    bool
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width  int
	Height int

	Focus       Field
	FolderInput string
	QueryInput  string
	FilterInput string
	Options     []Option
	RecentHint  string

	Projection  domain.ViewProjection
	Highlighter *highlight.Highlighter
	Cursor      int
	Offset      int
	Selected    map[int]bool // keyed by insertion index
	SortKey     domain.SortKey
	SortDesc    bool

	State      domain.RunState
	Counters   domain.Counters
	StatusText string
	Elapsed    time.Duration
	Total      int

	HelpView string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
	rows   *ResultRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles: styles,
		rows:   NewResultRenderer(styles),
	}
}

// ResultRows returns how many result rows fit in height
func ResultRows(height int) int {
	if height <= 0 {
		height = 24
	}
	if n := height - chromeLines; n > 1 {
		return n
	}
	return 1
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	var b strings.Builder

	b.WriteString(r.renderTitle(state))
	b.WriteString("\n")
	b.WriteString(r.renderField("Folder", state.FolderInput, state.Focus == FieldFolder, state.RecentHint))
	b.WriteString("\n")
	b.WriteString(r.renderField("Query ", state.QueryInput, state.Focus == FieldQuery, ""))
	b.WriteString("\n")
	b.WriteString(r.renderOptions(state.Options))
	b.WriteString("\n")
	b.WriteString(r.renderField("Filter", state.FilterInput, state.Focus == FieldFilter, ""))
	b.WriteString("\n\n")

	b.WriteString(r.rows.RenderHeader(state.Width, state.SortKey, state.SortDesc))
	b.WriteString("\n")
	b.WriteString(r.renderRows(state))
	b.WriteString("\n")
	b.WriteString(r.renderStatusBar(state))
	b.WriteString("\n")
	b.WriteString(r.styles.Help.Render(state.HelpView))

	style := r.styles.Main
	if state.Height > 0 {
		style = style.MaxHeight(state.Height)
	}
	return style.Render(b.String())
}

func (r *Renderer) renderTitle(state ViewState) string {
	logo := r.styles.Title.Render("fastfinder")
	right := ""
	if state.State == domain.StateIdle {
		right = r.styles.Dim.Render("tab: switch field  enter: search")
	}
	if right == "" {
		return logo
	}

	width := state.Width
	if width <= 0 {
		width = 80
	}
	gap := width - 2 - lipgloss.Width(logo) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return logo + strings.Repeat(" ", gap) + right
}

func (r *Renderer) renderField(label, input string, focused bool, hint string) string {
	style := r.styles.Label
	if focused {
		style = r.styles.FocusedLabel
	}
	out := style.Render(label+":") + " " + input
	if hint != "" {
		out += "  " + r.styles.Dim.Render(hint)
	}
	return out
}

func (r *Renderer) renderOptions(opts []Option) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		box := "[ ]"
		style := r.styles.OptionOff
		if o.On {
			box = "[x]"
			style = r.styles.OptionOn
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s %s", o.Key, box, o.Label)))
	}
	return r.styles.Label.Render("Opts  :") + " " + strings.Join(parts, "  ")
}

func (r *Renderer) renderRows(state ViewState) string {
	rows := ResultRows(state.Height)
	proj := state.Projection

	if proj.Len() == 0 {
		lines := make([]string, rows)
		switch {
		case state.State.Active():
			lines[0] = r.styles.Dim.Render("Searching...")
		case state.Total > 0:
			lines[0] = r.styles.Dim.Render("No results match the filter.")
		default:
			lines[0] = r.styles.Dim.Render("No results.")
		}
		return strings.Join(lines, "\n")
	}

	lines := make([]string, 0, rows)
	end := min(state.Offset+rows, proj.Len())
	for i := state.Offset; i < end; i++ {
		rec := proj.At(i)
		lines = append(lines, r.rows.RenderRow(rec, state.Highlighter, state.Width-2,
			i == state.Cursor && state.Focus == FieldResults, state.Selected[proj.Index(i)]))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderStatusBar shows processed/queued, hits, visible rows, elapsed time
// and the status text
func (r *Renderer) renderStatusBar(state ViewState) string {
	c := state.Counters
	counts := fmt.Sprintf("%d / %d files  %d hits  %d shown  %s",
		c.ProcessedCount, c.QueuedTotal, c.HitCount, state.Projection.Len(),
		progress.FormatElapsed(state.Elapsed))

	text := state.StatusText
	style := r.styles.Status
	switch {
	case strings.HasPrefix(text, progress.ErrorPrefix):
		style = r.styles.StatusError
	case state.State.Active():
		style = r.styles.StatusRunning
	case strings.HasPrefix(text, "done"):
		style = r.styles.StatusDone
	}

	bar := r.styles.Status.Render(counts)
	if state.State.Active() {
		bar = r.styles.StatusRunning.Render("● ") + bar
	}
	return bar + "  " + style.Render(text)
}
