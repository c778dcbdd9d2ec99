package views

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"fastfinder/internal/domain"
	"fastfinder/internal/highlight"
	"fastfinder/internal/progress"
)

// Column widths of the result table
const (
	pathWidthMin  = 24
	entryWidth    = 18
	lineWidth     = 6
	markerWidth   = 4 // cursor + selection marker
	columnSpacing = 3
)

// ResultRenderer handles rendering of result rows
type ResultRenderer struct {
	styles *Styles
}

// NewResultRenderer creates a new result renderer
func NewResultRenderer(styles *Styles) *ResultRenderer {
	return &ResultRenderer{styles: styles}
}

// columns splits the terminal width between path and snippet
func columns(width int) (pathW, snippetW int) {
	if width <= 0 {
		width = 80
	}
	rest := width - markerWidth - entryWidth - lineWidth - columnSpacing
	pathW = rest * 2 / 5
	if pathW < pathWidthMin {
		pathW = pathWidthMin
	}
	snippetW = rest - pathW
	if snippetW < 10 {
		snippetW = 10
	}
	return pathW, snippetW
}

// RenderHeader renders the column titles, marking the sorted column
func (r *ResultRenderer) RenderHeader(width int, key domain.SortKey, desc bool) string {
	pathW, snippetW := columns(width)
	title := func(name string, k domain.SortKey) string {
		if k == key && key != domain.SortNone {
			if desc {
				return name + " ▼"
			}
			return name + " ▲"
		}
		return name
	}

	path := title("Path", domain.SortPath)
	if key == domain.SortExtension {
		path = title("Path (ext)", domain.SortExtension)
	}
	cells := []string{
		strings.Repeat(" ", markerWidth-1),
		pad(path, pathW),
		pad(title("Entry", domain.SortEntry), entryWidth),
		padLeft(title("Line", domain.SortLine), lineWidth),
		pad(title("Snippet", domain.SortSnippet), snippetW),
	}
	return r.styles.Header.Render(strings.Join(cells, " "))
}

// RenderRow renders one record. Matches of the run's query are
// highlighted in the path and the snippet.
func (r *ResultRenderer) RenderRow(rec domain.Record, hl *highlight.Highlighter, width int, isCursor, isSelected bool) string {
	pathW, snippetW := columns(width)

	bg := lipgloss.NewStyle()
	if isCursor {
		bg = r.styles.SelectionBg
	}

	mark, sel := " ", " "
	if isCursor {
		mark = ">"
	}
	if isSelected {
		sel = "*"
	}

	line := ""
	if rec.Line > 0 {
		line = strconv.Itoa(rec.Line)
	}

	path := progress.Shorten(rec.DisplayPath(), pathW)
	cells := []string{
		r.styles.Cursor.Inherit(bg).Render(mark + sel + " "),
		r.highlighted(path, hl, pathW, r.styles.Path.Inherit(bg)),
		r.styles.Entry.Inherit(bg).Render(pad(progress.Shorten(rec.Entry, entryWidth), entryWidth)),
		r.styles.Line.Inherit(bg).Render(padLeft(line, lineWidth)),
		r.highlighted(rec.Snippet, hl, snippetW, r.styles.Snippet.Inherit(bg)),
	}
	return strings.Join(cells, bg.Render(" "))
}

// highlighted cuts text to width runes and renders it with match spans
func (r *ResultRenderer) highlighted(text string, hl *highlight.Highlighter, width int, base lipgloss.Style) string {
	text = sanitize(text)
	cut := byteOffset(text, width)
	spans := clipSpans(hl.Spans(text), cut)
	text = text[:cut]

	out := RenderHighlighted(text, spans, base, r.styles.Match.Inherit(base))
	if n := utf8.RuneCountInString(text); n < width {
		out += base.Render(strings.Repeat(" ", width-n))
	}
	return out
}

// RenderHighlighted renders text with base style and every span with
// match style. Spans must be sorted and non-overlapping.
func RenderHighlighted(text string, spans []domain.MatchSpan, base, match lipgloss.Style) string {
	if len(spans) == 0 {
		return base.Render(text)
	}

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.Start < pos || s.End() > len(text) {
			continue
		}
		if s.Start > pos {
			b.WriteString(base.Render(text[pos:s.Start]))
		}
		b.WriteString(match.Render(text[s.Start:s.End()]))
		pos = s.End()
	}
	if pos < len(text) {
		b.WriteString(base.Render(text[pos:]))
	}
	return b.String()
}

// sanitize replaces control characters with spaces, keeping byte offsets
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\t\r\n\x00") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\r', '\n', 0:
			return ' '
		}
		return r
	}, s)
}

// byteOffset returns the byte length of the first n runes of s
func byteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// clipSpans drops spans beyond limit and shortens the one crossing it
func clipSpans(spans []domain.MatchSpan, limit int) []domain.MatchSpan {
	out := spans[:0:0]
	for _, s := range spans {
		if s.Start >= limit {
			break
		}
		if s.End() > limit {
			s.Length = limit - s.Start
		}
		out = append(out, s)
	}
	return out
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func padLeft(s string, width int) string {
	return fmt.Sprintf("%*s", width, s)
}
