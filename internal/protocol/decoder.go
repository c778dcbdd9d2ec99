// Package protocol decodes the line oriented output of the search worker.
//
// The primary stream carries two kinds of lines. Status lines start with
// '#' and hold a tab separated kind followed by its fields:
//
//	#queued	<total>
//	#current	<label>
//	#progress	<processed>	<hits>	<label>
//	#done	<processed>	<hits>	<elapsedSeconds>
//
// Every other non-empty line is a data record with exactly four tab
// separated fields: location, entry, line number and snippet. Lines on the
// secondary stream are free text diagnostics.
package protocol

import (
	"strconv"
	"strings"

	"fastfinder/internal/domain"
)

// StatusMarker prefixes every status line
const StatusMarker = '#'

// Kind classifies a decoded line
type Kind int

const (
	KindEmpty Kind = iota
	KindRecord
	KindStatus
	KindError
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRecord:
		return "record"
	case KindStatus:
		return "status"
	case KindError:
		return "error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Status kinds understood by the aggregator
const (
	StatusQueued   = "queued"
	StatusCurrent  = "current"
	StatusProgress = "progress"
	StatusDone     = "done"
)

// Status is a parsed status line
type Status struct {
	Kind       string // verbatim, may be a kind this decoder does not know
	Fields     []string
	Total      int
	Processed  int
	Hits       int
	Label      string
	HasLabel   bool
	Elapsed    float64
	HasElapsed bool
}

// Known reports whether the status kind is one of the recognized ones
func (s Status) Known() bool {
	switch s.Kind {
	case StatusQueued, StatusCurrent, StatusProgress, StatusDone:
		return true
	}
	return false
}

// Event is the result of decoding one line
type Event struct {
	Kind   Kind
	Record domain.Record
	Status Status
	Text   string // error text, or the raw line when malformed
}

// Decode classifies and parses one line of the worker's primary stream.
// It never fails; unusable lines come back as KindMalformed or KindEmpty.
func Decode(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Event{Kind: KindEmpty}
	}

	if line[0] == StatusMarker {
		return Event{Kind: KindStatus, Status: parseStatus(line[1:])}
	}

	parts := strings.SplitN(line, "\t", 4)
	if len(parts) < 4 {
		return Event{Kind: KindMalformed, Text: line}
	}

	return Event{
		Kind: KindRecord,
		Record: domain.Record{
			Location: parts[0],
			Entry:    parts[1],
			Line:     atoi(parts[2]),
			Snippet:  parts[3],
		},
	}
}

// DecodeError wraps a line of the worker's secondary stream
func DecodeError(line string) Event {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Event{Kind: KindEmpty}
	}
	return Event{Kind: KindError, Text: line}
}

func parseStatus(payload string) Status {
	parts := strings.Split(payload, "\t")
	st := Status{Kind: parts[0], Fields: parts[1:]}

	field := func(i int) (string, bool) {
		if i < len(parts) {
			return parts[i], true
		}
		return "", false
	}

	switch st.Kind {
	case StatusQueued:
		if v, ok := field(1); ok {
			st.Total = atoi(v)
		}
	case StatusCurrent:
		st.Label, st.HasLabel = field(1)
	case StatusProgress:
		if v, ok := field(1); ok {
			st.Processed = atoi(v)
		}
		if v, ok := field(2); ok {
			st.Hits = atoi(v)
		}
		st.Label, st.HasLabel = field(3)
	case StatusDone:
		if v, ok := field(1); ok {
			st.Processed = atoi(v)
		}
		if v, ok := field(2); ok {
			st.Hits = atoi(v)
		}
		if v, ok := field(3); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				st.Elapsed = f
				st.HasElapsed = true
			}
		}
	}

	return st
}

// atoi parses a non-negative count, defaulting to 0
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
