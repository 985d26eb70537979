package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvgate/internal/core"
	"github.com/JonMunkholm/csvgate/internal/history"
	"github.com/JonMunkholm/csvgate/internal/logging"
)

const (
	// multipartMemory is the part of an upload kept in memory; the rest
	// spills to a temporary file.
	multipartMemory = 32 << 20

	// multipartOverhead allows for boundaries and form fields on top of
	// the file itself.
	multipartOverhead = 1 << 20

	historyWriteTimeout = 5 * time.Second
)

// validateResponse is the body of a completed validation. Failed
// validations are reported here too, with OK unset.
type validateResponse struct {
	core.Result
	ValidationID   string `json:"validationId" msgpack:"validationId"`
	FileName       string `json:"fileName" msgpack:"fileName"`
	FileSize       int64  `json:"fileSize" msgpack:"fileSize"`
	ColumnsSummary string `json:"columnsSummary,omitempty" msgpack:"columnsSummary,omitempty"`
	DurationMs     int64  `json:"durationMs" msgpack:"durationMs"`
}

// handleValidate runs both validation passes over an uploaded file.
// The file itself is never stored.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, errFileTooLarge, http.StatusBadRequest)
			return
		}
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	fh := files[0]
	if fh.Size > maxSize {
		respondError(w, r, errFileTooLarge, http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(WithRequestMetadata(r.Context(), r), s.cfg.Upload.Timeout)
	defer cancel()

	id := uuid.NewString()
	src := core.MultipartSource(fh)
	logger := logging.WithFields(ctx, "validation_id", id, "file", src.Name())
	logger.Info("validation started", "size", src.Size())

	res := s.validator.Validate(ctx, src)

	s.recordHistory(ctx, history.NewRecord(ctx, id, src, res))

	logger.Info("validation finished",
		"ok", res.OK,
		"reason", res.Reason,
		"rows_counted", res.RowsCounted,
		"duration_ms", res.Duration.Milliseconds(),
	)

	writeResponse(w, r, http.StatusOK, validateResponse{
		Result:         res,
		ValidationID:   id,
		FileName:       core.DisplayFileName(src.Name()),
		FileSize:       src.Size(),
		ColumnsSummary: core.SummarizeColumns(res.Header),
		DurationMs:     res.Duration.Milliseconds(),
	})
}

// recordHistory stores the outcome. It outlives a disconnected client so the
// log stays complete; failures are logged and otherwise ignored.
func (s *Server) recordHistory(ctx context.Context, rec history.Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	if err := s.history.Add(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("failed to record validation",
			"validation_id", rec.ID,
			"error", err,
		)
	}
}

type historyResponse struct {
	Records []history.Record `json:"records" msgpack:"records"`
}

// handleHistory returns recent validation outcomes, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", history.DefaultLimit)

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []history.Record{}
	}

	writeResponse(w, r, http.StatusOK, historyResponse{Records: records})
}

// limitsResponse describes the thresholds. The header line counts toward
// RowLimit, so a file may hold RowLimit-1 data rows.
type limitsResponse struct {
	RowLimit               int                `json:"rowLimit" msgpack:"rowLimit"`
	RowLimitIncludesHeader bool               `json:"rowLimitIncludesHeader" msgpack:"rowLimitIncludesHeader"`
	MaxDataRows            int                `json:"maxDataRows" msgpack:"maxDataRows"`
	PreviewLines           int                `json:"previewLines" msgpack:"previewLines"`
	MaxLineBytes           int                `json:"maxLineBytes" msgpack:"maxLineBytes"`
	MaxFileSize            int64              `json:"maxFileSize" msgpack:"maxFileSize"`
	MaxFileSizeMB          int64              `json:"maxFileSizeMb" msgpack:"maxFileSizeMb"`
	Validations            core.LimiterStatus `json:"validations" msgpack:"validations"`
}

// handleLimits reports the thresholds a client should check before uploading.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	policy := s.validator.Policy()

	writeResponse(w, r, http.StatusOK, limitsResponse{
		RowLimit:               policy.RowLimit,
		RowLimitIncludesHeader: true,
		MaxDataRows:            policy.RowLimit - 1,
		PreviewLines:           policy.PreviewLines,
		MaxLineBytes:           policy.EffectiveMaxLineBytes(),
		MaxFileSize:            s.cfg.Upload.MaxFileSize,
		MaxFileSizeMB:          s.cfg.Upload.MaxFileSize >> 20,
		Validations:            s.limiter.Status(),
	})
}

// pinger is implemented by history stores backed by a database.
type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status      string             `json:"status" msgpack:"status"`
	History     string             `json:"history" msgpack:"history"`
	Validations core.LimiterStatus `json:"validations" msgpack:"validations"`
}

// handleHealth reports liveness. A failing history database degrades the
// status but does not fail the check, since validation still works.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		History:     "ok",
		Validations: s.limiter.Status(),
	}

	if p, ok := s.history.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("history database unavailable", "error", err)
			resp.Status = "degraded"
			resp.History = "unavailable"
		}
	}

	writeResponse(w, r, http.StatusOK, resp)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
