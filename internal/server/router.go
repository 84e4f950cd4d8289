package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fintrack/fintrack/internal/handler"
	"github.com/fintrack/fintrack/internal/metrics"
	"github.com/fintrack/fintrack/internal/middleware"
	"github.com/fintrack/fintrack/internal/model"
	"github.com/fintrack/fintrack/internal/service"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Logger   *slog.Logger
	Users    *service.UserService
	Records  *service.RecordService
	Summary  *service.SummaryService
	Verifier middleware.TokenVerifier
	Metrics  *metrics.InMemoryRecorder

	// Health probes. Cache may be nil.
	DB    handler.HealthChecker
	Cache handler.HealthChecker

	RateLimit middleware.RateLimitConfig
	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig

	MaxRequestBodySize int64
}

// NewRouter builds the HTTP API. Resource routes are served both at the
// root and under /api.
func NewRouter(deps Deps) http.Handler {
	h := handler.New()
	health := handler.NewHealthHandler(deps.DB, deps.Cache)
	var snapshotter metrics.Snapshotter
	var recorder metrics.Recorder = metrics.NewNoop()
	if deps.Metrics != nil {
		snapshotter = deps.Metrics
		recorder = deps.Metrics
	}
	metricsHandler := handler.NewMetricsHandler(snapshotter)
	deps.RateLimit.Metrics = recorder

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Security(deps.Security))
	r.Use(middleware.CORS(deps.CORS))
	if deps.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(deps.MaxRequestBodySize))
	}

	r.Get("/", h.Index)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Mount("/api", apiRoutes(deps, recorder))
	r.Mount("/", apiRoutes(deps, recorder))

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

func apiRoutes(deps Deps, recorder metrics.Recorder) chi.Router {
	h := handler.New()
	authHandler := handler.NewAuthHandler(deps.Users, deps.Logger)
	summaryHandler := handler.NewSummaryHandler(deps.Summary, deps.Logger)

	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(deps.RateLimit))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:   deps.Logger,
			Verifier: deps.Verifier,
			Metrics:  recorder,
		}))
		r.Use(middleware.RateLimitUser(deps.RateLimit))

		for _, kind := range model.Kinds {
			r.Mount("/"+kind.Collection(), handler.NewRecordHandler(kind, deps.Records, deps.Logger).Routes())
		}
		r.Get("/summary", summaryHandler.Get)
	})

	return r
}
