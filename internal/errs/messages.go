package errs

// messages.go maps engine errors to user-facing messages with actionable
// guidance. Operators quote the error code to support staff for faster
// diagnosis.
//
// Mapping happens in two stages: typed engine errors resolve by code, and
// anything else falls back to case-insensitive pattern matching on the
// error text (context cancellation, storage faults from third-party
// clients, and other errors that cross the engine boundary untyped).

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`          // What happened (user-friendly)
	Action  string `json:"action,omitempty"` // What to do about it
	Code    string `json:"code"`             // Error code for support reference
}

// codeMessages maps engine error codes to user messages.
var codeMessages = map[Code]UserMessage{
	CodeSizeLimitExceeded: {
		Message: "The uploaded file exceeds the size limit",
		Action:  "Split the recipient list into smaller files",
		Code:    string(CodeSizeLimitExceeded),
	},
	CodeRowLimitExceeded: {
		Message: "The recipient list has too many rows for one batch",
		Action:  "Split the list and submit multiple batches",
		Code:    string(CodeRowLimitExceeded),
	},
	CodeFileFormat: {
		Message: "The uploaded file could not be parsed",
		Action:  "Upload a CSV or XLSX file with a header row",
		Code:    string(CodeFileFormat),
	},
	CodeEncoding: {
		Message: "The file contains characters in an unexpected encoding",
		Action:  "Save the file as UTF-8 and upload again",
		Code:    string(CodeEncoding),
	},
	CodeMissingRequiredColumn: {
		Message: "Required columns are missing from the recipient list",
		Action:  "Add the named columns (any accepted spelling) and re-upload",
		Code:    string(CodeMissingRequiredColumn),
	},
	CodeTemplateFieldMissing: {
		Message: "The template has no usable fillable fields",
		Action:  "Use a template with first-name and last-name fields",
		Code:    string(CodeTemplateFieldMissing),
	},
	CodeTemplateNotFound: {
		Message: "The selected template does not exist",
		Action:  "Pick a template from the template list",
		Code:    string(CodeTemplateNotFound),
	},
	CodeRender: {
		Message: "A certificate failed to render",
		Action:  "Check the failure manifest and re-submit the failed rows",
		Code:    string(CodeRender),
	},
	CodePackaging: {
		Message: "The certificate archive could not be written",
		Action:  "Please try again",
		Code:    string(CodePackaging),
	},
	CodeBatchCancelled: {
		Message: "The batch was cancelled",
		Action:  "Start a new batch when ready",
		Code:    string(CodeBatchCancelled),
	},
	CodeBatchNotFound: {
		Message: "Batch not found",
		Action:  "The batch may have expired; start a new one",
		Code:    string(CodeBatchNotFound),
	},
	CodeTooManyBatches: {
		Message: "Too many batches are running right now",
		Action:  "Please wait a moment and try again",
		Code:    string(CodeTooManyBatches),
	},
	CodeStorage: {
		Message: "Template or archive storage is unavailable",
		Action:  "Please try again in a few moments",
		Code:    string(CodeStorage),
	},
}

// errorPattern defines a substring to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns handles errors that reach the boundary untyped. First match
// wins, so specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    string(CodeBatchCancelled),
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller batch or try again later",
			Code:    string(CodeBatchCancelled),
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "A storage backend is unreachable",
			Action:  "Please try again in a few moments",
			Code:    string(CodeStorage),
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The selected template does not exist",
			Action:  "Pick a template from the template list",
			Code:    string(CodeTemplateNotFound),
		},
	},
}

// defaultMessage is the fallback when nothing matches. Support staff should
// check logs for the original technical error when users report it.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    string(CodeInternal),
}

// MapError converts a technical error to a user-friendly message. Typed
// engine errors resolve by code; other errors fall back to pattern
// matching, then to the generic default.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var e *Error
	if errors.As(err, &e) {
		if msg, ok := codeMessages[e.Code]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted one-line error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Action == "" {
		return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
