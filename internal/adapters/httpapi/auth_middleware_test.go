package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/platform/auth/jwks_testutil"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/auth/jwtverifier"
	"github.com/Overland-East-Bay/travel-log-api/internal/platform/config"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// authProbeServer echoes the subject placed in context by the auth middleware.
type authProbeServer struct{}

func (authProbeServer) ListTravels(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "MISSING_SUBJECT", "subject missing from context", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"subject": string(sub)})
}
func (authProbeServer) CreateTravel(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}
func (authProbeServer) UpdateTravel(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}
func (authProbeServer) DeleteTravel(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func newTestAuthRouter(t *testing.T) (http.Handler, func(now time.Time, kid string) string) {
	t.Helper()

	jwksSrv, setKeys := jwks_testutil.NewRotatingJWKSServer()
	t.Cleanup(jwksSrv.Close)

	kp, err := jwks_testutil.GenerateRSAKeypair("kid-1")
	if err != nil {
		t.Fatalf("GenerateRSAKeypair: %v", err)
	}
	setKeys([]jwks_testutil.Keypair{kp})

	cfg := config.JWTConfig{
		Algorithm:              config.AlgRS256,
		Issuer:                 "test-iss",
		Audience:               "test-aud",
		JWKSURL:                jwksSrv.URL,
		ClockSkew:              0,
		JWKSRefreshInterval:    10 * time.Minute,
		JWKSMinRefreshInterval: 0,
		HTTPTimeout:            2 * time.Second,
	}

	clk := fixedClock{t: time.Unix(1700000000, 0)}
	v := jwtverifier.NewWithOptions(cfg, nil, clk)

	mint := func(now time.Time, kid string) string {
		if kid != kp.Kid {
			t.Fatalf("unsupported kid in test: %s", kid)
		}
		jwt, err := jwks_testutil.MintRS256JWT(kp, cfg.Issuer, cfg.Audience, "u1", now, 5*time.Minute, nil)
		if err != nil {
			t.Fatalf("MintRS256JWT: %v", err)
		}
		return jwt
	}

	h := NewRouterWithOptions(authProbeServer{}, RouterOptions{
		AuthMiddleware: NewAuthMiddleware(v, nil),
	})

	return h, mint
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/travels", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want %d", rec.Code, http.StatusUnauthorized)
	}
	var er ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Error.Code != "UNAUTHENTICATED" {
		t.Fatalf("code: got %q", er.Error.Code)
	}
	if !er.Error.RequestId.IsSpecified() || er.Error.RequestId.IsNull() {
		t.Fatalf("expected requestId to be set")
	}
	if rid, err := er.Error.RequestId.Get(); err != nil || rid == "" {
		t.Fatalf("expected requestId to be a non-empty string")
	}
	if er.Error.Details.IsSpecified() {
		t.Fatalf("expected no details on 401")
	}
}

func TestAuthMiddleware_AllFailuresShareOneBody(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t)
	expired := mint(time.Unix(1700000000, 0).Add(-time.Hour), "kid-1")

	headers := []string{
		"",
		"Basic abc",
		"Bearer",
		"Bearer not-a-jwt",
		"Bearer " + expired,
	}
	var first string
	for i, hdr := range headers {
		req := httptest.NewRequest(http.MethodGet, "/travels", nil)
		req.Header.Set("X-Request-Id", "fixed")
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status got %d want 401", hdr, rec.Code)
		}
		if i == 0 {
			first = rec.Body.String()
			continue
		}
		if rec.Body.String() != first {
			t.Fatalf("%q: body differs:\n got %s\nwant %s", hdr, rec.Body.String(), first)
		}
	}
}

func TestAuthMiddleware_ValidToken_AllowsRequestAndSetsSubject(t *testing.T) {
	t.Parallel()

	h, mint := newTestAuthRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/travels", nil)
	req.Header.Set("Authorization", "bearer "+mint(time.Unix(1700000000, 0), "kid-1"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want %d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["subject"] != "u1" {
		t.Fatalf("subject: got %q", got["subject"])
	}
}

func TestRouter_HealthzIsUnauthenticated(t *testing.T) {
	t.Parallel()

	h, _ := newTestAuthRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_NoAuthMiddlewareDeniesTravelRoutes(t *testing.T) {
	t.Parallel()

	h := NewRouterWithOptions(authProbeServer{}, RouterOptions{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/travels", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d want 401", rec.Code)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	t.Parallel()

	h := NewRouterWithOptions(authProbeServer{}, RouterOptions{AuthMiddleware: NewDevAuthMiddleware("")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/travels", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without subject: got %d want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/travels", nil)
	req.Header.Set("X-Debug-Subject", "dev|alice")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with subject: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	h := NewRouterWithOptions(authProbeServer{}, RouterOptions{
		AuthMiddleware:     NewDevAuthMiddleware(""),
		CORSAllowedOrigins: []string{"https://app.example"},
	})
	req := httptest.NewRequest(http.MethodOptions, "/travels", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("Access-Control-Allow-Origin: got %q", got)
	}
}
