// Package errs defines the error taxonomy for the certificate generation
// engine and maps internal errors to user-facing messages.
//
// Errors fall into two propagation classes:
//
//   - Structural errors (size/row limits, unparseable input, missing
//     required columns, unusable templates) halt a batch before any
//     rendering starts and surface to the caller with full detail.
//   - Per-recipient render errors are recorded in the batch result and
//     never propagate; the batch completes and reports the failure count.
//
// Packaging faults are the one fatal post-render error: a partial archive
// is never meaningful.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a class of engine error. The set is closed; handlers
// switch on codes rather than matching message text.
type Code string

const (
	CodeSizeLimitExceeded     Code = "SIZE_LIMIT_EXCEEDED"
	CodeRowLimitExceeded      Code = "ROW_LIMIT_EXCEEDED"
	CodeFileFormat            Code = "FILE_FORMAT_ERROR"
	CodeEncoding              Code = "ENCODING_ERROR"
	CodeMissingRequiredColumn Code = "MISSING_REQUIRED_COLUMN"
	CodeTemplateFieldMissing  Code = "TEMPLATE_FIELD_MISSING"
	CodeTemplateNotFound      Code = "TEMPLATE_NOT_FOUND"
	CodeRender                Code = "RENDER_ERROR"
	CodePackaging             Code = "PACKAGING_ERROR"
	CodeBatchCancelled        Code = "BATCH_CANCELLED"
	CodeBatchNotFound         Code = "BATCH_NOT_FOUND"
	CodeTooManyBatches        Code = "TOO_MANY_BATCHES"
	CodeStorage               Code = "STORAGE_ERROR"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// Error is a structured engine error. Message is safe to show to callers;
// Details carries technical context for logs.
type Error struct {
	Code    Code
	Message string
	Details string

	wrapped error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// New creates an engine error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an engine error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an engine error that records cause as both detail text and
// the unwrap target.
func Wrap(code Code, message string, cause error) *Error {
	e := &Error{Code: code, Message: message, wrapped: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// CodeOf extracts the engine error code from err, or CodeInternal when err
// is not an engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given engine error code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
