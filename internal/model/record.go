package model

import "time"

// HistoryRecord is the immutable outcome record of one completed task.
// It is appended to the history store once the task reaches a terminal
// state and never mutated afterwards. Optional fields carry omitempty so
// the persisted form stays forward compatible.
type HistoryRecord struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Platform      string    `json:"platform"`
	Success       bool      `json:"success"`
	Title         string    `json:"title,omitempty"`
	FilePath      string    `json:"file_path,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes,omitempty"`
	ErrorMessage  string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	DurationMs    int64     `json:"duration_ms"`
}

// RecordFromTask builds a history record from a terminal task. The
// caller is responsible for only recording tasks that should appear in
// history (cancelled tasks are not recorded).
func RecordFromTask(dt *DownloadTask) HistoryRecord {
	return HistoryRecord{
		ID:            dt.ID,
		URL:           dt.Request.URL,
		Platform:      dt.Platform,
		Success:       dt.Status == TaskStatusSucceeded,
		Title:         dt.Title,
		FilePath:      dt.FilePath,
		FileSizeBytes: dt.FileSize,
		ErrorMessage:  dt.LastError,
		Timestamp:     dt.FinishedAt,
		DurationMs:    dt.Duration().Milliseconds(),
	}
}
