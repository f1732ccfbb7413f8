package web

// errors.go provides unified error response handling for the web layer.
//
// Every handler error flows through respondError: the technical error is
// logged with the request ID for correlation, and the client receives a
// user-facing message with an action suggestion and a stable machine code.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"certbatch/internal/errs"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError maps err to a user-facing message, logs the technical
// detail, and writes a JSON error with a status derived from the code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := errs.MapError(err)
	status := statusForCode(errs.CodeOf(err))

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusForCode maps engine error codes to HTTP statuses.
func statusForCode(code errs.Code) int {
	switch code {
	case errs.CodeSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case errs.CodeRowLimitExceeded,
		errs.CodeFileFormat,
		errs.CodeEncoding,
		errs.CodeMissingRequiredColumn,
		errs.CodeTemplateFieldMissing:
		return http.StatusUnprocessableEntity
	case errs.CodeTemplateNotFound, errs.CodeBatchNotFound:
		return http.StatusNotFound
	case errs.CodeTooManyBatches:
		return http.StatusTooManyRequests
	case errs.CodeBatchCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
