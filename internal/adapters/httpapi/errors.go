package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/travel-log-api/internal/app/travels"
)

const (
	codeUnauthenticated    = "UNAUTHENTICATED"
	codeIdempotencyReuse   = "IDEMPOTENCY_KEY_REUSE"
	messageUnauthenticated = "authentication required"
	messageInternal        = "internal server error"
)

// ErrorBody is the payload of every non-2xx JSON response.
type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, codeUnauthenticated, messageUnauthenticated, nil)
}

// writeServiceError maps application errors to HTTP. Anything unrecognized is an
// opaque 500; the cause only goes to the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	var ae *travels.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case travels.KindValidation:
			writeError(w, r, http.StatusBadRequest, ae.Code, ae.Message, ae.Details)
			return
		case travels.KindNotFoundOrUnauthorized:
			writeError(w, r, http.StatusNotFound, ae.Code, ae.Message, nil)
			return
		}
	}
	writeInternal(w, r, logger, err)
}

func writeInternal(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	if logger != nil {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	writeError(w, r, http.StatusInternalServerError, travels.CodeInternal, messageInternal, nil)
}
