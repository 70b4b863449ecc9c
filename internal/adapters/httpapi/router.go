package httpapi

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// API is the set of handlers mounted under /travels.
type API interface {
	ListTravels(w http.ResponseWriter, r *http.Request)
	CreateTravel(w http.ResponseWriter, r *http.Request)
	UpdateTravel(w http.ResponseWriter, r *http.Request)
	DeleteTravel(w http.ResponseWriter, r *http.Request)
}

type RouterOptions struct {
	// AuthMiddleware guards every /travels route. It is required; a router
	// without one rejects all travel requests.
	AuthMiddleware func(http.Handler) http.Handler
	Logger         *log.Logger

	// CORSAllowedOrigins defaults to "*".
	CORSAllowedOrigins []string
	// RequestTimeout <= 0 disables the per-request timeout.
	RequestTimeout time.Duration
}

// NewRouterWithOptions constructs the API HTTP router.
func NewRouterWithOptions(api API, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.Logger != nil {
		r.Use(requestLogger(opts.Logger))
	}
	r.Use(middleware.Recoverer)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// Health endpoint is unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authMW := opts.AuthMiddleware
	if authMW == nil {
		authMW = denyAll
	}
	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Get("/travels", api.ListTravels)
		r.Post("/travels", api.CreateTravel)
		r.Put("/travels/{id}", api.UpdateTravel)
		r.Delete("/travels/{id}", api.DeleteTravel)
	})
	return r
}

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(writeUnauthenticatedHandler)
}

func writeUnauthenticatedHandler(w http.ResponseWriter, r *http.Request) {
	writeUnauthenticated(w, r)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
