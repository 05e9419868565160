// Package respond writes JSON responses and maps domain errors onto HTTP
// status codes, so handlers never hand-roll envelopes.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	derrors "paperflow/pkg/domain-errors"
	"paperflow/pkg/requestcontext"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps a domain error onto its HTTP status and writes a JSON error
// body. Internal errors are logged with their cause; the client only sees
// the sanitized message.
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := derrors.ToHTTPStatus(derrors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	JSON(w, status, map[string]string{"error": derrors.Message(err)})
}
