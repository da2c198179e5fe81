package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"gocloud.dev/blob"

	"github.com/udownload/udownload/internal/model"
)

// Export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// csvHeader is the fixed column order of CSV exports.
var csvHeader = []string{
	"id", "url", "platform", "success", "title", "file_path",
	"file_size_bytes", "error", "timestamp", "duration_ms",
}

// ExportAll serializes the full record sequence in insertion order.
// The output is deterministic for a given store content.
func (s *Store) ExportAll(format string) ([]byte, error) {
	s.mu.RLock()
	records := make([]model.HistoryRecord, len(s.records))
	copy(records, s.records)
	s.mu.RUnlock()

	switch format {
	case FormatJSON:
		return exportJSON(records)
	case FormatCSV:
		return exportCSV(records)
	default:
		return nil, fmt.Errorf("history: unsupported export format %q", format)
	}
}

func exportJSON(records []model.HistoryRecord) ([]byte, error) {
	if records == nil {
		records = []model.HistoryRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history export: %w", err)
	}
	return data, nil
}

func exportCSV(records []model.HistoryRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.URL,
			rec.Platform,
			strconv.FormatBool(rec.Success),
			rec.Title,
			rec.FilePath,
			strconv.FormatInt(rec.FileSizeBytes, 10),
			rec.ErrorMessage,
			rec.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			strconv.FormatInt(rec.DurationMs, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv export: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToBucket writes a full export to a blob bucket under the given
// key. Any gocloud.dev bucket works: fileblob for local backups, s3blob
// or gcsblob for offsite copies.
func (s *Store) ExportToBucket(ctx context.Context, bucket *blob.Bucket, key, format string) error {
	data, err := s.ExportAll(format)
	if err != nil {
		return err
	}
	if err := bucket.WriteAll(ctx, key, data, nil); err != nil {
		return fmt.Errorf("write history export to bucket: %w", err)
	}
	return nil
}
