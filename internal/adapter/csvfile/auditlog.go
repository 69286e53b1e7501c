package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/flight-weather-etl/internal/domain"
)

var auditHeader = []string{"iata", "status", "notes"}

// AuditLog appends fetch outcomes to a CSV file. The header is written once,
// when the file is first created; existing rows are never rewritten.
type AuditLog struct {
	path string
}

// NewAuditLog returns an audit log at path. The file is created lazily.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Path returns the log location.
func (a *AuditLog) Path() string { return a.path }

// Record appends one outcome row and syncs it to disk before returning.
func (a *AuditLog) Record(_ context.Context, o domain.FetchOutcome) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("audit log dir: %w", err)
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(auditHeader); err != nil {
			return fmt.Errorf("write audit header: %w", err)
		}
	}
	if err := w.Write([]string{o.Station, string(o.Status), o.Notes}); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush audit log: %w", err)
	}
	return f.Sync()
}

// ReadAuditLog returns every outcome recorded at path, oldest first.
func ReadAuditLog(path string) ([]domain.FetchOutcome, error) {
	t, err := ReadTable(path, ',')
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	out := make([]domain.FetchOutcome, 0, t.Len())
	for i := range t.Rows {
		out = append(out, domain.FetchOutcome{
			Station: t.Value(i, "iata"),
			Status:  domain.FetchStatus(t.Value(i, "status")),
			Notes:   t.Value(i, "notes"),
		})
	}
	return out, nil
}
