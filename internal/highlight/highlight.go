// Package highlight computes the match spans rendered over record text.
package highlight

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"fastfinder/internal/domain"
)

// MaxSpans bounds the spans produced for one text in literal mode
const MaxSpans = 64

// Highlighter finds query matches in text. It is immutable after New and
// safe for concurrent use.
type Highlighter struct {
	mode       domain.QueryMode
	query      string
	lowerQuery string
	asciiQuery bool
	queryRunes int
	re         *regexp.Regexp
	err        error
}

// New prepares a highlighter for one run. Pattern queries are compiled
// case-insensitively here and never again; a compile error is kept and
// reported through Err.
func New(mode domain.QueryMode, query string) *Highlighter {
	h := &Highlighter{mode: mode, query: query}
	if query == "" {
		return h
	}

	switch mode {
	case domain.ModePattern:
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			h.err = errors.Wrap(err, "compile highlight pattern")
			return h
		}
		h.re = re
	default:
		h.asciiQuery = isASCII(query)
		h.lowerQuery = strings.ToLower(query)
		h.queryRunes = utf8.RuneCountInString(query)
	}
	return h
}

// Mode returns the query mode
func (h *Highlighter) Mode() domain.QueryMode { return h.mode }

// Query returns the raw query
func (h *Highlighter) Query() string { return h.query }

// Err returns the pattern compile error, if any
func (h *Highlighter) Err() error { return h.err }

// Spans returns ordered, non-overlapping match spans over text
func (h *Highlighter) Spans(text string) []domain.MatchSpan {
	if h == nil || h.query == "" || text == "" {
		return nil
	}

	if h.mode == domain.ModePattern {
		if h.re == nil {
			return nil
		}
		loc := h.re.FindStringIndex(text)
		if loc == nil || loc[1] == loc[0] {
			return nil
		}
		return []domain.MatchSpan{{Start: loc[0], Length: loc[1] - loc[0]}}
	}

	if h.asciiQuery && isASCII(text) {
		return h.asciiSpans(text)
	}
	return h.foldSpans(text)
}

func (h *Highlighter) asciiSpans(text string) []domain.MatchSpan {
	lower := strings.ToLower(text)
	n := len(h.lowerQuery)

	var spans []domain.MatchSpan
	for i := 0; i < len(lower) && len(spans) < MaxSpans; {
		found := strings.Index(lower[i:], h.lowerQuery)
		if found < 0 {
			break
		}
		spans = append(spans, domain.MatchSpan{Start: i + found, Length: n})
		i += found + n
	}
	return spans
}

// foldSpans walks rune boundaries comparing with simple case folding, so
// offsets stay valid in the original text even when lowercasing would
// change byte lengths.
func (h *Highlighter) foldSpans(text string) []domain.MatchSpan {
	var spans []domain.MatchSpan
	for i := 0; i < len(text) && len(spans) < MaxSpans; {
		end := advanceRunes(text, i, h.queryRunes)
		if end < 0 {
			break
		}
		if strings.EqualFold(text[i:end], h.query) {
			spans = append(spans, domain.MatchSpan{Start: i, Length: end - i})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// advanceRunes returns the byte offset n runes after start, or -1 if the
// text is shorter than that
func advanceRunes(s string, start, n int) int {
	i := start
	for ; n > 0; n-- {
		if i >= len(s) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
