// Package results holds the records of the current run and the filtered,
// sorted projection the view renders.
package results

import (
	"sync"

	"fastfinder/internal/domain"
)

// Store is an append-only record log plus its visible projection.
// Writers are the pipeline's drain loop and user-triggered filter/sort
// requests; readers receive immutable snapshots.
type Store struct {
	mu         sync.RWMutex
	records    []domain.Record
	projection []int

	filterText string
	tokens     []string
	sortKey    domain.SortKey
	desc       bool

	version  uint64
	snap     domain.ViewProjection
	snapDone uint64 // version the cached snapshot was built at, 0 when none
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{version: 1}
}

// Append adds a record to the log and returns its insertion index.
// The projection is not touched; see AppendToProjection.
func (s *Store) Append(rec domain.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.version++
	return len(s.records) - 1
}

// AppendToProjection extends the projection with a freshly appended record
// if it passes the current filter, keeping the current sort order.
func (s *Store) AppendToProjection(rec domain.Record, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) || !Matches(rec, s.tokens) {
		return false
	}
	s.projection = s.sorter().insert(s.projection, index)
	s.version++
	return true
}

// AppendBatch appends records in order and extends the projection with
// those that pass the filter, under one lock. Returns how many became
// visible.
func (s *Store) AppendBatch(recs []domain.Record) int {
	if len(recs) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var added []int
	for _, rec := range recs {
		s.records = append(s.records, rec)
		if Matches(rec, s.tokens) {
			added = append(added, len(s.records)-1)
		}
	}
	s.version++

	if len(added) == 0 {
		return 0
	}

	srt := s.sorter()
	if srt.key == domain.SortNone {
		s.projection = append(s.projection, added...)
	} else {
		srt.sortIndices(added)
		s.projection = srt.merge(s.projection, added)
	}
	return len(added)
}

// SetFilter replaces the quick filter and rebuilds the projection with a
// full scan
func (s *Store) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filterText = text
	s.tokens = ParseTokens(text)
	s.rebuildLocked()
}

// SetSort changes the sort key and direction and re-sorts the projection
func (s *Store) SetSort(key domain.SortKey, desc bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortKey = key
	s.desc = desc
	s.sorter().sortIndices(s.projection)
	s.version++
}

// Clear drops every record and the projection together. Filter and sort
// settings are kept for the next run.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// fresh slices: snapshots handed out earlier keep the old ones
	s.records = nil
	s.projection = nil
	s.version++
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Visible returns the number of records in the projection
func (s *Store) Visible() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projection)
}

// Record returns the record at an insertion index
func (s *Store) Record(index int) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.records) {
		return domain.Record{}, false
	}
	return s.records[index], true
}

// Records returns the full log in insertion order
func (s *Store) Records() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out
}

// FilterText returns the active quick-filter text
func (s *Store) FilterText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterText
}

// Sort returns the active sort key and direction
func (s *Store) Sort() (domain.SortKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey, s.desc
}

// Snapshot returns the current projection. Snapshots are immutable and
// cached until the store changes.
func (s *Store) Snapshot() domain.ViewProjection {
	s.mu.RLock()
	if s.snapDone == s.version {
		snap := s.snap
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapDone != s.version {
		indices := make([]int, len(s.projection))
		copy(indices, s.projection)
		// the log prefix is never rewritten, so sharing it is safe
		s.snap = domain.NewViewProjection(s.records[:len(s.records):len(s.records)], indices)
		s.snapDone = s.version
	}
	return s.snap
}

func (s *Store) rebuildLocked() {
	projection := make([]int, 0, len(s.records))
	for i := range s.records {
		if Matches(s.records[i], s.tokens) {
			projection = append(projection, i)
		}
	}
	s.sorter().sortIndices(projection)
	s.projection = projection
	s.version++
}

func (s *Store) sorter() sorter {
	return sorter{records: s.records, key: s.sortKey, desc: s.desc}
}
