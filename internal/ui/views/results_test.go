package views

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"fastfinder/internal/domain"
	"fastfinder/internal/highlight"
)

var (
	plain  = lipgloss.NewStyle()
	marked = lipgloss.NewStyle()
)

func TestRenderHighlightedKeepsText(t *testing.T) {
	spans := []domain.MatchSpan{{Start: 0, Length: 5}, {Start: 12, Length: 5}}
	got := RenderHighlighted("hello world hello", spans, plain, marked)
	assert.Equal(t, "hello world hello", got)
}

func TestRenderHighlightedSkipsBadSpans(t *testing.T) {
	spans := []domain.MatchSpan{{Start: 2, Length: 2}, {Start: 3, Length: 1}, {Start: 10, Length: 5}}
	assert.Equal(t, "abcdef", RenderHighlighted("abcdef", spans, plain, marked))
}

func TestClipSpans(t *testing.T) {
	spans := []domain.MatchSpan{{Start: 0, Length: 3}, {Start: 4, Length: 4}, {Start: 9, Length: 1}}
	got := clipSpans(spans, 6)
	assert.Equal(t, []domain.MatchSpan{{Start: 0, Length: 3}, {Start: 4, Length: 2}}, got)
	// the input is left alone
	assert.Equal(t, 4, spans[1].Length)
}

func TestByteOffset(t *testing.T) {
	assert.Equal(t, 0, byteOffset("abc", 0))
	assert.Equal(t, 2, byteOffset("abc", 2))
	assert.Equal(t, 3, byteOffset("abc", 10))
	assert.Equal(t, 6, byteOffset("日本語", 2))
}

func TestSanitizeKeepsOffsets(t *testing.T) {
	in := "a\tb\r\nc"
	out := sanitize(in)
	assert.Equal(t, "a b  c", out)
	assert.Equal(t, len(in), len(out))
}

func TestRenderRowContainsColumns(t *testing.T) {
	r := NewResultRenderer(NewStyles())
	rec := domain.Record{Location: `\\?\C:\data\report.docx`, Entry: "word/document.xml", Line: 42, Snippet: "quarterly\treport"}
	row := r.RenderRow(rec, highlight.New(domain.ModeLiteral, "report"), 120, true, true)

	assert.Contains(t, row, `C:\data\report.docx`)
	assert.NotContains(t, row, `\\?\`)
	assert.Contains(t, row, "word/document.xml")
	assert.Contains(t, row, "42")
	assert.Contains(t, row, "quarterly report")
	assert.True(t, strings.HasPrefix(row, ">*"))
}

func TestRenderRowOmitsZeroLine(t *testing.T) {
	r := NewResultRenderer(NewStyles())
	row := r.RenderRow(domain.Record{Location: "/a", Snippet: "x"}, nil, 80, false, false)
	assert.True(t, strings.HasPrefix(row, "   "))
	assert.NotContains(t, row, " 0 ")
}

func TestRenderHeaderMarksSortColumn(t *testing.T) {
	r := NewResultRenderer(NewStyles())
	assert.Contains(t, r.RenderHeader(100, domain.SortLine, false), "Line ▲")
	assert.Contains(t, r.RenderHeader(100, domain.SortSnippet, true), "Snippet ▼")
	assert.Contains(t, r.RenderHeader(100, domain.SortExtension, false), "Path (ext) ▲")
	assert.NotContains(t, r.RenderHeader(100, domain.SortNone, false), "▲")
}

func TestRenderShowsStatusAndRows(t *testing.T) {
	records := []domain.Record{
		{Location: "/x/a.txt", Line: 1, Snippet: "alpha"},
		{Location: "/x/b.txt", Line: 2, Snippet: "beta"},
	}
	out := NewRenderer().Render(ViewState{
		Width:      100,
		Height:     20,
		Focus:      FieldResults,
		Projection: domain.NewViewProjection(records, []int{1, 0}),
		Counters:   domain.Counters{ProcessedCount: 5, QueuedTotal: 9, HitCount: 2},
		StatusText: "Ready",
		Options:    []Option{{Key: "F2", Label: "regex", On: true}},
	})

	assert.Contains(t, out, "fastfinder")
	assert.Contains(t, out, "5 / 9 files")
	assert.Contains(t, out, "2 hits")
	assert.Contains(t, out, "00:00:00")
	assert.Contains(t, out, "F2 [x] regex")
	assert.Less(t, strings.Index(out, "/x/b.txt"), strings.Index(out, "/x/a.txt"))
}

func TestRenderEmptyStates(t *testing.T) {
	r := NewRenderer()
	assert.Contains(t, r.Render(ViewState{State: domain.StateRunning}), "Searching...")
	assert.Contains(t, r.Render(ViewState{Total: 3}), "No results match the filter.")
	assert.Contains(t, r.Render(ViewState{}), "No results.")
}

func TestResultRows(t *testing.T) {
	assert.Equal(t, 11, ResultRows(20))
	assert.Equal(t, 1, ResultRows(5))
	assert.Equal(t, 15, ResultRows(0))
}
