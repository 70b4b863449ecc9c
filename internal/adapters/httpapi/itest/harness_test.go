package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Overland-East-Bay/travel-log-api/internal/adapters/httpapi"
	memclock "github.com/Overland-East-Bay/travel-log-api/internal/adapters/memory/clock"
	memidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/memory/idempotency"
	memtravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/memory/travelrepo"
	pgidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres/idempotency"
	postgres_testutil "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres/testutil"
	pgtravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres/travelrepo"
	redisidempotency "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis/idempotency"
	redistravelrepo "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis/travelrepo"
	"github.com/Overland-East-Bay/travel-log-api/internal/app/travels"
	idempotencyport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
	travelrepoport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
	backendRedis    backend = "redis"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "redis":
		return []backend{backendRedis}
	case "all":
		return []backend{backendMemory, backendPostgres, backendRedis}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|redis|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	const issuer = "itest-issuer"
	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		travelRepo travelrepoport.Repository
		idemStore  idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		travelRepo = pgtravelrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool, issuer, time.Hour)
	case backendRedis:
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		travelRepo = redistravelrepo.NewRepo(client, "itest:")
		idemStore = redisidempotency.NewStore(client, "itest:", time.Hour)
	case backendMemory:
		travelRepo = memtravelrepo.NewRepo()
		idemStore = memidempotency.NewStore(clk, time.Hour)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	api := httpapi.NewServer(travels.NewService(travelRepo), idemStore, nil)
	api.Clock = clk

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// We pass empty default subject to ensure requests MUST provide X-Debug-Subject, allowing
	// auth-failure coverage.
	authMW := httpapi.NewDevAuthMiddleware("")
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: authMW})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, subject string, body any) (int, []byte, http.Header) {
	t.Helper()
	return s.doJSONWithHeaders(t, method, path, subject, body, nil)
}

func (s *testServer) doJSONWithHeaders(t *testing.T, method string, path string, subject string, body any, headers map[string]string) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
