package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	applog "ledger/internal/log"
)

// successEnvelope wraps every successful response body.
type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// errorEnvelope wraps every failure. Errors carries the per-field messages of
// a validation failure and is omitted otherwise.
type errorEnvelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Status: "success", Data: data})
}

// writeError maps an error to its HTTP status and renders the error
// envelope. Unrecognized errors are treated as storage failures so driver
// details never leak to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	env := errorEnvelope{Status: "error", Message: "Internal server error"}
	status := http.StatusInternalServerError

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		env.Message = coreErr.Message
		switch coreErr.Kind {
		case core.KindValidation:
			status = http.StatusBadRequest
			env.Errors = coreErr.Fields
		case core.KindNotFound:
			status = http.StatusNotFound
		case core.KindConflict:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}

	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentHTTP).
			ErrorContext(r.Context(), "Request failed",
				applog.FieldPath, r.URL.Path, applog.FieldError, err.Error())
	}

	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
