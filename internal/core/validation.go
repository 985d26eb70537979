package core

// validation.go sequences the two validation passes.
//
// The row count pass runs first because it is the cheapest way to reject an
// oversized file; a file over the limit never pays for preview parsing. Only
// when the count passes is a second, independent stream opened to extract and
// parse the preview lines:
//
//	idle -> counting_rows -> row_limit_exceeded
//	                      -> extracting_preview -> header_invalid
//	                                            -> ready
//
// read_error is reachable from both streaming phases, and so is header_invalid
// when a line exceeds the policy's MaxLineBytes. Every failure is reported as a
// Result, never as a Go error.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Validator runs validations against a fixed Policy.
// It holds no per-file state and is safe for concurrent use.
type Validator struct {
	policy  Policy
	logger  *slog.Logger
	onPhase func(Phase)
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for phase and outcome logging.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithPhaseHook registers fn to be called on every phase transition.
// fn runs on the validating goroutine and must not block.
func WithPhaseHook(fn func(Phase)) Option {
	return func(v *Validator) {
		v.onPhase = fn
	}
}

// NewValidator creates a Validator. Returns ErrInvalidPolicy if the policy
// cannot be applied.
func NewValidator(policy Policy, opts ...Option) (*Validator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	v := &Validator{
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Policy returns the thresholds the validator applies.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Validate checks src against the policy and returns the first result it can
// determine. Cancelling ctx stops both passes and yields a read_error result.
func (v *Validator) Validate(ctx context.Context, src Source) Result {
	start := time.Now()
	logger := v.logger.With("file", src.Name(), "size", src.Size())

	v.enter(logger, PhaseCountingRows)
	count, err := CountRows(ctx, src, v.policy.RowLimit, v.policy.ChunkSize, v.policy.MaxLineBytes)
	if err != nil {
		return v.fail(logger, streamFailurePhase(err), err, count.Rows, start)
	}
	if count.Exceeded {
		err := fmt.Errorf("%w: more than %d", ErrTooManyRows, v.policy.RowLimit)
		return v.fail(logger, PhaseRowLimitExceeded, err, count.Rows, start)
	}

	v.enter(logger, PhaseExtractingPreview)
	text, err := ReadLines(ctx, src, v.policy.PreviewLines, v.policy.ChunkSize, v.policy.MaxLineBytes)
	if err != nil {
		return v.fail(logger, streamFailurePhase(err), err, count.Rows, start)
	}

	preview, err := ParsePreview(text, v.policy.PreviewLines)
	if err != nil {
		return v.fail(logger, PhaseHeaderInvalid, err, count.Rows, start)
	}

	v.enter(logger, PhaseReady)
	res := Result{
		OK:          true,
		Header:      preview.Header,
		Rows:        preview.Rows,
		RowsCounted: count.Rows,
		Duration:    time.Since(start),
	}

	logger.Info("validation succeeded",
		"columns", len(res.Header),
		"preview_rows", len(res.Rows),
		"rows_counted", res.RowsCounted,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

// streamFailurePhase maps an error from either streaming pass to its
// terminal phase. Overlong lines mean the content is not line-oriented CSV.
func streamFailurePhase(err error) Phase {
	if errors.Is(err, ErrLineTooLong) {
		return PhaseHeaderInvalid
	}
	return PhaseReadError
}

func (v *Validator) enter(logger *slog.Logger, phase Phase) {
	logger.Debug("validation phase", "phase", phase)
	if v.onPhase != nil {
		v.onPhase(phase)
	}
}

func (v *Validator) fail(logger *slog.Logger, phase Phase, err error, rows int, start time.Time) Result {
	v.enter(logger, phase)

	reason := ReasonOf(err)
	res := Result{
		Reason:      reason,
		Message:     DisplayMessage(reason, v.policy.RowLimit),
		RowsCounted: rows,
		Duration:    time.Since(start),
	}

	logger.Info("validation failed",
		"reason", reason,
		"code", CodeFor(reason),
		"error", err,
		"rows_counted", rows,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}
