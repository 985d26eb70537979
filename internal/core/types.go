package core

import (
	"fmt"
	"time"
)

// Reason identifies why a validation failed.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonTooManyRows      Reason = "too_many_rows"
	ReasonTooFewRows       Reason = "too_few_rows"
	ReasonHeaderUnreadable Reason = "header_unreadable"
	ReasonReadError        Reason = "read_error"
)

// Phase indicates the current stage of a validation run.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseCountingRows      Phase = "counting_rows"
	PhaseExtractingPreview Phase = "extracting_preview"
	PhaseReady             Phase = "ready"
	PhaseRowLimitExceeded  Phase = "row_limit_exceeded"
	PhaseHeaderInvalid     Phase = "header_invalid"
	PhaseReadError         Phase = "read_error"
)

// Terminal reports whether no further transition can follow p.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseReady, PhaseRowLimitExceeded, PhaseHeaderInvalid, PhaseReadError:
		return true
	default:
		return false
	}
}

// Policy defaults, matching the import modal.
const (
	DefaultRowLimit     = 50000
	DefaultPreviewLines = 4
	DefaultMaxLineBytes = 1 << 20
)

// Policy holds the thresholds applied to every validation.
type Policy struct {
	RowLimit     int // Maximum logical rows, header included
	PreviewLines int // Lines extracted for the preview: header + PreviewLines-1 data rows
	ChunkSize    int // Bytes requested from the source per read
	MaxLineBytes int // Longest physical line accepted; 0 selects DefaultMaxLineBytes
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		RowLimit:     DefaultRowLimit,
		PreviewLines: DefaultPreviewLines,
		ChunkSize:    DefaultChunkSize,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// EffectiveMaxLineBytes returns MaxLineBytes, or DefaultMaxLineBytes when unset.
func (p Policy) EffectiveMaxLineBytes() int {
	if p.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return p.MaxLineBytes
}

// Validate checks that the policy can be applied.
func (p Policy) Validate() error {
	if p.RowLimit <= 0 {
		return fmt.Errorf("%w: row limit must be positive, got %d", ErrInvalidPolicy, p.RowLimit)
	}
	if p.PreviewLines < 2 {
		return fmt.Errorf("%w: preview lines must be at least 2, got %d", ErrInvalidPolicy, p.PreviewLines)
	}
	if p.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidPolicy, p.ChunkSize)
	}
	if p.MaxLineBytes < 0 {
		return fmt.Errorf("%w: max line bytes must not be negative, got %d", ErrInvalidPolicy, p.MaxLineBytes)
	}
	return nil
}

// Result is the outcome of validating one file.
//
// On success OK is set and Header and Rows hold the preview. On failure
// Reason and Message describe what went wrong; Message is meant for display.
type Result struct {
	OK          bool          `json:"ok" msgpack:"ok"`
	Header      []string      `json:"header,omitempty" msgpack:"header,omitempty"`
	Rows        []PreviewRow  `json:"rows,omitempty" msgpack:"rows,omitempty"`
	Reason      Reason        `json:"reason,omitempty" msgpack:"reason,omitempty"`
	Message     string        `json:"message,omitempty" msgpack:"message,omitempty"`
	RowsCounted int           `json:"rowsCounted" msgpack:"rowsCounted"`
	Duration    time.Duration `json:"-" msgpack:"-"`
}

// Err returns the sentinel error matching a failed result, or nil on success.
func (r Result) Err() error {
	switch r.Reason {
	case ReasonNone:
		return nil
	case ReasonTooManyRows:
		return ErrTooManyRows
	case ReasonTooFewRows:
		return ErrTooFewRows
	case ReasonHeaderUnreadable:
		return ErrHeaderUnreadable
	default:
		return ErrRead
	}
}
