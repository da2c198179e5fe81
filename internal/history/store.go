package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/udownload/udownload/internal/model"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history: store is closed")

// Filter selects a subset of history records. Zero fields match everything.
type Filter struct {
	Platform string     // exact platform name, empty matches all
	Success  *bool      // nil matches both outcomes
	From     time.Time  // inclusive lower bound on Timestamp
	To       time.Time  // exclusive upper bound on Timestamp
}

// PlatformStats is the per-platform slice of a stats summary.
type PlatformStats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// StatsSummary aggregates download outcomes over a filtered record set.
type StatsSummary struct {
	Total       int                      `json:"total"`
	Succeeded   int                      `json:"succeeded"`
	Failed      int                      `json:"failed"`
	SuccessRate float64                  `json:"success_rate"`
	PerPlatform map[string]PlatformStats `json:"per_platform"`
}

// Store is a concurrency-safe, append-only history of download outcomes
// persisted as JSON Lines. All mutating operations funnel through one
// mutex-guarded file handle, so a reader never observes a partially
// written record.
type Store struct {
	mu      sync.RWMutex
	path    string
	file    *os.File
	records []model.HistoryRecord
	closed  bool
}

// Open loads the history file at path, creating it (and its parent
// directory) if missing, and returns a store ready for appends. Corrupted
// or partially written trailing lines are skipped on load.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	records, err := loadRecords(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}

	return &Store{
		path:    path,
		file:    file,
		records: records,
	}, nil
}

// loadRecords reads all complete records from the file. A missing file
// yields an empty history.
func loadRecords(path string) ([]model.HistoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}
	defer f.Close()

	var records []model.HistoryRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.HistoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			// Tolerate a partial trailing line from an interrupted write.
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}
	return records, nil
}

// Append persists a record and makes it visible to queries. The write is
// a single line appended to the file; ordering between concurrent appends
// is unspecified but each append is total.
func (s *Store) Append(rec model.HistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "encode history record", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := s.file.Write(data); err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "write history record", err)
	}
	s.records = append(s.records, rec)
	return nil
}

// Query returns records matching the filter in insertion order. An empty
// filter returns all records.
func (s *Store) Query(f Filter) []model.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.HistoryRecord
	for _, rec := range s.records {
		if f.matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Recent returns up to n records, newest first. n <= 0 yields nil.
func (s *Store) Recent(n int) []model.HistoryRecord {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]model.HistoryRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out
}

// Stats computes aggregate statistics over the filtered record set.
// SuccessRate is 0 when no records match.
func (s *Store) Stats(f Filter) StatsSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := StatsSummary{PerPlatform: make(map[string]PlatformStats)}
	for _, rec := range s.records {
		if !f.matches(rec) {
			continue
		}
		summary.Total++
		ps := summary.PerPlatform[rec.Platform]
		ps.Total++
		if rec.Success {
			summary.Succeeded++
			ps.Succeeded++
		} else {
			summary.Failed++
			ps.Failed++
		}
		summary.PerPlatform[rec.Platform] = ps
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Succeeded) / float64(summary.Total)
	}
	return summary
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear atomically removes all records. The file is replaced via a
// temp-file rename so a crash mid-clear leaves either the old or the new
// content, never a torn file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "create temp history file", err)
	}
	if err := f.Close(); err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "close temp history file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "replace history file", err)
	}

	// Reopen the append handle against the new file.
	if err := s.file.Close(); err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "close old history file", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return model.NewDownloadError(model.ErrorKindStore, "reopen history file", err)
	}
	s.file = file
	s.records = nil
	return nil
}

// Close releases the underlying file. Further appends fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// Path returns the location of the persisted history file.
func (s *Store) Path() string {
	return s.path
}

func (f Filter) matches(rec model.HistoryRecord) bool {
	if f.Platform != "" && rec.Platform != f.Platform {
		return false
	}
	if f.Success != nil && rec.Success != *f.Success {
		return false
	}
	if !f.From.IsZero() && rec.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !rec.Timestamp.Before(f.To) {
		return false
	}
	return true
}
