// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"

	"investor-match-workers/internal/common/errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeStandardError picks the HTTP status from the error code.
func writeStandardError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	writeError(w, statusFor(stdErr.Code), string(stdErr.Code), stdErr.Message)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeStartupNotFound, errors.ErrCodeInvestorNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInputValidationFailed, errors.ErrCodeProfileInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// statusRecorder captures the status code for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
