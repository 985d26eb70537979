// Package core validates user-supplied CSV files before they are imported.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Validation Outcomes (CSV001-CSV099)
//
// One code per failure reason reported by [Validator.Validate]:
//
//	CSV001 - Too many rows: the file is over the configured row limit
//	         Action: Split the file into multiple files and upload them separately
//	         Reason: too_many_rows
//
//	CSV002 - Too few rows: fewer than two non-blank records (header + one data row)
//	         Action: Add at least one data row below the header
//	         Reason: too_few_rows
//
//	CSV003 - Header unreadable: the header has at most one column, or a line
//	         is longer than the configured maximum (no line breaks)
//	         Action: Save the file as comma-separated values
//	         Reason: header_unreadable
//
//	CSV004 - Read error: the file could not be read
//	         Action: Select the file again
//	         Reason: read_error
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: the upload is over the size limit
//	          Patterns: "file too large"
//
//	FILE004 - No file: no file was selected
//	          Patterns: "no file provided"
//
// # Capacity Errors (UPL001-UPL099, RATE001)
//
//	UPL002 - System busy: too many validations in progress
//	         Patterns: "too many concurrent validations"
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
//	RATE001 - Rate limited
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.
//
// # Matching
//
// Sentinel errors are matched first with errors.Is. Everything else is
// matched case-insensitively using strings.Contains; the first matching
// pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	// ErrRead marks an I/O failure on the underlying byte stream.
	ErrRead = errors.New("read error")

	// ErrTooManyRows is returned when a file has more rows than the policy allows.
	ErrTooManyRows = errors.New("too many rows")

	// ErrTooFewRows is returned when a file has fewer than two usable records.
	ErrTooFewRows = errors.New("too few rows")

	// ErrHeaderUnreadable is returned when the header yields at most one column.
	ErrHeaderUnreadable = errors.New("header unreadable")

	// ErrLineTooLong is returned when a physical line exceeds the policy's
	// MaxLineBytes. It reports as header_unreadable: such a file is not
	// line-oriented CSV.
	ErrLineTooLong = fmt.Errorf("%w: line too long", ErrHeaderUnreadable)

	// ErrInvalidPolicy is returned for thresholds that cannot be applied.
	ErrInvalidPolicy = errors.New("invalid policy")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// reasonMessages holds the catalogue entry for each failure reason.
var reasonMessages = map[Reason]UserMessage{
	ReasonTooManyRows: {
		Message: "CSV file exceeds the maximum row limit",
		Action:  "Please split the file into multiple files and upload them separately",
		Code:    "CSV001",
	},
	ReasonTooFewRows: {
		Message: "CSV file must have at least 2 rows",
		Action:  "Add at least one data row below the header",
		Code:    "CSV002",
	},
	ReasonHeaderUnreadable: {
		Message: "Failed to retrieve CSV column data",
		Action:  "Ensure the file is comma-separated with a header row",
		Code:    "CSV003",
	},
	ReasonReadError: {
		Message: "Failed to read CSV file",
		Action:  "Please select the file again",
		Code:    "CSV004",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages for errors raised outside the validation pipeline.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "too many concurrent validations",
		msg: UserMessage{
			Message: "System is busy validating other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// ReasonOf classifies err into one of the four failure reasons.
// Anything that is not a validation outcome is treated as a read failure.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrTooManyRows):
		return ReasonTooManyRows
	case errors.Is(err, ErrTooFewRows):
		return ReasonTooFewRows
	case errors.Is(err, ErrHeaderUnreadable):
		return ReasonHeaderUnreadable
	default:
		return ReasonReadError
	}
}

// MapError converts a technical error to a user-friendly message.
// Validation sentinels map to their CSV code; other errors are matched
// against errorPatterns, falling back to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrTooManyRows), errors.Is(err, ErrTooFewRows),
		errors.Is(err, ErrHeaderUnreadable), errors.Is(err, ErrRead):
		return reasonMessages[ReasonOf(err)]
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// CodeFor returns the support code for a failure reason.
func CodeFor(reason Reason) string {
	return reasonMessages[reason].Code
}

// DisplayMessage returns the text shown to the user for a failed validation.
// The row limit is formatted with thousands separators ("50,000").
func DisplayMessage(reason Reason, rowLimit int) string {
	switch reason {
	case ReasonNone:
		return ""
	case ReasonTooManyRows:
		p := message.NewPrinter(language.English)
		return p.Sprintf("CSV file exceeds the maximum limit of %d rows. "+
			"Please split the file into multiple files and upload them separately.", rowLimit)
	case ReasonTooFewRows:
		return "CSV file must have at least 2 rows."
	case ReasonHeaderUnreadable:
		return "Failed to retrieve CSV column data."
	default:
		return "Failed to read CSV file."
	}
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a known message rather than the
// generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
