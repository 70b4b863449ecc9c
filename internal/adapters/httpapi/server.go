package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Overland-East-Bay/travel-log-api/internal/app/travels"
	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	platformclock "github.com/Overland-East-Bay/travel-log-api/internal/platform/clock"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
)

const (
	headerIdempotencyKey      = "Idempotency-Key"
	headerIdempotentReplayed  = "Idempotent-Replayed"
	routeCreateTravel         = "POST /travels"
	contentTypeJSON           = "application/json"
	maxIdempotencyKeyLen      = 255
	messageIdempotencyReuse   = "idempotency key reuse with different payload"
	messageInvalidBody        = "request body must be a JSON object"
	messageIdempotencyKeySize = "must be at most 255 characters"
)

// Server is the HTTP adapter for the travels use-cases.
type Server struct {
	Travels *travels.Service
	// Idem is optional; without it Idempotency-Key is ignored.
	Idem   idempotency.Store
	Clock  clock.Clock
	Logger *log.Logger
}

func NewServer(travelsSvc *travels.Service, idem idempotency.Store, logger *log.Logger) *Server {
	return &Server{
		Travels: travelsSvc,
		Idem:    idem,
		Clock:   platformclock.NewSystemClock(),
		Logger:  logger,
	}
}

func (s *Server) ListTravels(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}
	ts, err := s.Travels.ListTravels(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, s.Logger, err)
		return
	}
	out := make([]Travel, 0, len(ts))
	for _, t := range ts {
		out = append(out, travelFromDomain(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateTravel(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if key == "" || s.Idem == nil {
		t, err := s.Travels.CreateTravel(r.Context(), sub, in)
		if err != nil {
			writeServiceError(w, r, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, travelFromDomain(t))
		return
	}
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, r, http.StatusBadRequest, travels.CodeValidation, "invalid Idempotency-Key header",
			map[string]any{headerIdempotencyKey: messageIdempotencyKeySize})
		return
	}

	// Validation runs before the idempotency lookup so an invalid request can
	// never claim a key.
	fields, err := travels.ValidateInput(in)
	if err != nil {
		writeServiceError(w, r, s.Logger, err)
		return
	}
	bodyHash := hashTravelFields(fields)
	fp := idempotency.Fingerprint{
		Key:     idempotency.Key(key),
		Subject: sub,
		Route:   routeCreateTravel,
	}

	// Replay if same subject+key+route+bodyHash; reject a different bodyHash (409).
	rec, found, err := s.Idem.Get(r.Context(), fp)
	if err != nil {
		writeInternal(w, r, s.Logger, err)
		return
	}
	if found {
		if rec.BodyHash != bodyHash {
			writeError(w, r, http.StatusConflict, codeIdempotencyReuse, messageIdempotencyReuse, nil)
			return
		}
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set(headerIdempotentReplayed, "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	t, err := s.Travels.CreateTravel(r.Context(), sub, in)
	if err != nil {
		writeServiceError(w, r, s.Logger, err)
		return
	}
	body, err := json.Marshal(travelFromDomain(t))
	if err != nil {
		writeInternal(w, r, s.Logger, err)
		return
	}
	if err := s.Idem.Put(r.Context(), fp, idempotency.Record{
		BodyHash:    bodyHash,
		StatusCode:  http.StatusCreated,
		ContentType: contentTypeJSON,
		Body:        body,
		CreatedAt:   s.Clock.Now(),
	}); err != nil && s.Logger != nil {
		// The record is created; a retry with this key will create another.
		s.Logger.Warn("store idempotency record",
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (s *Server) UpdateTravel(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}
	in, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	id := domain.TravelID(chi.URLParam(r, "id"))
	t, err := s.Travels.UpdateTravel(r.Context(), sub, id, in)
	if err != nil {
		writeServiceError(w, r, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, travelFromDomain(t))
}

func (s *Server) DeleteTravel(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w, r)
		return
	}
	id := domain.TravelID(chi.URLParam(r, "id"))
	if err := s.Travels.DeleteTravel(r.Context(), sub, id); err != nil {
		writeServiceError(w, r, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (travels.TravelInput, bool) {
	body, err := readBody(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, travels.CodeValidation, messageInvalidBody,
			map[string]any{"body": err.Error()})
		return travels.TravelInput{}, false
	}
	in, err := decodeTravelInput(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, travels.CodeValidation, messageInvalidBody,
			map[string]any{"body": "must be a valid JSON object"})
		return travels.TravelInput{}, false
	}
	return in, true
}

// hashTravelFields hashes the normalized fields, so requests that differ only in
// whitespace or date spelling replay the same response.
func hashTravelFields(f domain.TravelFields) string {
	canon := struct {
		Destination   string `json:"destination"`
		Description   string `json:"description"`
		DepartureDate string `json:"departureDate"`
		Duration      int    `json:"duration"`
	}{
		Destination:   f.Destination,
		Description:   f.Description,
		DepartureDate: domain.FormatCalendarDate(f.DepartureDate),
		Duration:      f.DurationDays,
	}
	raw, _ := json.Marshal(canon)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
