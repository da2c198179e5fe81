package model

import (
	"strings"
	"time"
)

// DownloadTask represents a single download task. The live instance is
// owned by the orchestrator; observers receive value copies via Snapshot.
type DownloadTask struct {
	ID         string
	Request    DownloadRequest
	Status     TaskStatus
	Attempt    int       // attempts started so far, 0 before the first slot
	Progress   float64   // 0.0 to 1.0, reset at the start of each retry
	LastError  string    // last error message if any
	Platform   string    // platform derived from the URL
	Title      string    // media title, set on success
	FilePath   string    // path to downloaded file, set on success
	FileSize   int64     // file size in bytes
	StartedAt  time.Time // when the first download attempt began; zero while queued
	FinishedAt time.Time // zero until a terminal state is reached
}

// Snapshot returns a value copy safe to hand to observers.
func (dt *DownloadTask) Snapshot() DownloadTask {
	return *dt
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	if dt.FilePath != "" {
		parts := strings.FieldsFunc(dt.FilePath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return dt.Request.URL
}

// Duration returns how long the task ran, excluding queue wait. It is 0
// while the task is unfinished and for tasks that never started an attempt.
func (dt *DownloadTask) Duration() time.Duration {
	if dt.StartedAt.IsZero() || dt.FinishedAt.IsZero() {
		return 0
	}
	return dt.FinishedAt.Sub(dt.StartedAt)
}

// FetchResult carries the metadata reported by the fetch primitive on a
// successful attempt.
type FetchResult struct {
	Title         string
	FilePath      string
	FileSizeBytes int64
}
