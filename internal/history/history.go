// Package history keeps a log of past validations.
//
// Each call to the validate endpoint produces one Record. Records are written
// to PostgreSQL when a database is configured and to a bounded in-memory ring
// otherwise. The log is informational only: a failure to record never changes
// the validation result returned to the client.
package history

import (
	"context"
	"time"

	"github.com/JonMunkholm/csvgate/internal/core"
)

// Record describes one completed validation.
type Record struct {
	ID          string      `json:"id" msgpack:"id"`
	FileName    string      `json:"fileName" msgpack:"fileName"`
	FileSize    int64       `json:"fileSize" msgpack:"fileSize"`
	OK          bool        `json:"ok" msgpack:"ok"`
	Reason      core.Reason `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Code        string      `json:"code,omitempty" msgpack:"code,omitempty"`
	Columns     []string    `json:"columns,omitempty" msgpack:"columns,omitempty"`
	RowsCounted int         `json:"rowsCounted" msgpack:"rowsCounted"`
	DurationMs  int64       `json:"durationMs" msgpack:"durationMs"`
	ClientIP    string      `json:"clientIp,omitempty" msgpack:"clientIp,omitempty"`
	UserAgent   string      `json:"userAgent,omitempty" msgpack:"userAgent,omitempty"`
	CreatedAt   time.Time   `json:"createdAt" msgpack:"createdAt"`
}

// Store persists validation records.
type Store interface {
	// Add appends a record.
	Add(ctx context.Context, rec Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// Prune deletes records created before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pagination limits for Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ClampLimit applies the default and maximum page sizes.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NewRecord builds a record from a validation result. Client details are
// taken from ctx when the web layer attached them.
func NewRecord(ctx context.Context, id string, src core.Source, res core.Result) Record {
	return Record{
		ID:          id,
		FileName:    src.Name(),
		FileSize:    src.Size(),
		OK:          res.OK,
		Reason:      res.Reason,
		Code:        core.CodeFor(res.Reason),
		Columns:     res.Header,
		RowsCounted: res.RowsCounted,
		DurationMs:  res.Duration.Milliseconds(),
		ClientIP:    core.ClientIPFromContext(ctx),
		UserAgent:   core.UserAgentFromContext(ctx),
		CreatedAt:   time.Now().UTC(),
	}
}
