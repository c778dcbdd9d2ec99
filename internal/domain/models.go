package domain

import (
	"strings"
	"time"
)

// Record represents one hit reported by the worker
type Record struct {
	Location string // absolute path of the containing file
	Entry    string // path inside an archive, "" for plain files
	Line     int    // 0 when not applicable
	Snippet  string
}

// DisplayPath returns the location without the Windows long-path prefix
func (r Record) DisplayPath() string {
	return strings.TrimPrefix(r.Location, `\\?\`)
}

// MatchSpan is a highlighted byte range of a rendered text
type MatchSpan struct {
	Start  int
	Length int
}

// End returns the offset just past the span
func (s MatchSpan) End() int { return s.Start + s.Length }

// RunState represents the lifecycle state of a search run
type RunState int

const (
	StateIdle RunState = iota
	StateStarting
	StateRunning
	StateCancelRequested
	StateExited
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCancelRequested:
		return "cancelling"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Active reports whether a worker may still be producing output
func (s RunState) Active() bool {
	return s == StateStarting || s == StateRunning || s == StateCancelRequested
}

// Counters holds the aggregated progress of the current run
type Counters struct {
	QueuedTotal    int
	ProcessedCount int
	HitCount       int
	CurrentItem    string
	Message        string
	MessageExpiry  time.Time
}

// ActiveMessage returns the transient message if it has not expired yet
func (c Counters) ActiveMessage(now time.Time) (string, bool) {
	if c.Message == "" || now.After(c.MessageExpiry) {
		return "", false
	}
	return c.Message, true
}

// QueryMode selects how the query is matched
type QueryMode int

const (
	ModeLiteral QueryMode = iota
	ModePattern
)

// SortKey represents the column the projection is ordered by
type SortKey int

const (
	SortNone SortKey = iota
	SortPath
	SortExtension
	SortEntry
	SortLine
	SortSnippet
)

var sortKeyNames = []string{"none", "path", "ext", "entry", "line", "snippet"}

func (k SortKey) String() string {
	if int(k) < 0 || int(k) >= len(sortKeyNames) {
		return "unknown"
	}
	return sortKeyNames[k]
}

// Next cycles to the following sort key, wrapping back to SortNone
func (k SortKey) Next() SortKey {
	return SortKey((int(k) + 1) % len(sortKeyNames))
}

// ParseSortKey maps a column name to a SortKey
func ParseSortKey(name string) (SortKey, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "none":
		return SortNone, true
	case "extension":
		return SortExtension, true
	}
	for i, n := range sortKeyNames {
		if n == name {
			return SortKey(i), true
		}
	}
	return SortNone, false
}

// SearchOptions mirrors the worker's optional switches
type SearchOptions struct {
	Regex          bool
	Zip            bool
	Recursive      bool
	Word           bool
	Excel          bool
	Legacy         bool
	LegacyDoc      string // "", auto, com or external
	Extensions     string // comma separated, e.g. ".txt,.md"
	ExcludeFolders string // comma separated folder names
	MaxWorkers     int    // 0 lets the worker decide
	Diag           bool
}

// SearchRequest is one search invocation
type SearchRequest struct {
	Root    string
	Query   string
	Options SearchOptions
}

// Mode returns the query mode implied by the options
func (r SearchRequest) Mode() QueryMode {
	if r.Options.Regex {
		return ModePattern
	}
	return ModeLiteral
}

// ViewProjection is an immutable snapshot of the visible, ordered records
type ViewProjection struct {
	records []Record
	indices []int
}

// NewViewProjection wraps a record log and the visible indices into it.
// The caller must not mutate either slice afterwards.
func NewViewProjection(records []Record, indices []int) ViewProjection {
	return ViewProjection{records: records, indices: indices}
}

// Len returns the number of visible records
func (p ViewProjection) Len() int { return len(p.indices) }

// At returns the i-th visible record
func (p ViewProjection) At(i int) Record { return p.records[p.indices[i]] }

// Index returns the insertion index of the i-th visible record
func (p ViewProjection) Index(i int) int { return p.indices[i] }

// Records materializes the visible records in order
func (p ViewProjection) Records() []Record {
	out := make([]Record, len(p.indices))
	for i, idx := range p.indices {
		out[i] = p.records[idx]
	}
	return out
}
