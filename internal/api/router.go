package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/docsearch/internal/api/handlers"
	"github.com/nikhilbhutani/docsearch/internal/api/middleware"
	"github.com/nikhilbhutani/docsearch/internal/auth"
	"github.com/nikhilbhutani/docsearch/internal/config"
	"github.com/nikhilbhutani/docsearch/internal/metrics"
)

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Ingestor handlers.Ingestor
	Searcher handlers.Searcher
	Store    handlers.Lister
	Queue    handlers.Enqueuer // nil disables /ingest/async
	Checks   map[string]handlers.Checker
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	if rt.cfg.RateLimit.RPS > 0 {
		rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
		r.Use(rl.Limit)
	}

	health := handlers.NewHealthHandler(rt.deps.Checks)
	r.Get("/", health.Root)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	docH := handlers.NewDocumentHandler(rt.deps.Ingestor, rt.deps.Queue, rt.deps.Store, rt.cfg.Server.MaxUploadBytes)
	r.Post("/ingest", docH.Ingest)
	if rt.deps.Queue != nil {
		r.Post("/ingest/async", docH.IngestAsync)
	}

	queryH := handlers.NewQueryHandler(rt.deps.Searcher)
	r.Post("/query", queryH.Query)

	// Admin listing
	r.Group(func(r chi.Router) {
		if rt.cfg.Auth.JWTSecret != "" {
			r.Use(auth.NewJWTMiddleware(rt.cfg.Auth.JWTSecret).Authenticate)
			r.Use(auth.RequirePermission(auth.PermDocumentsRead))
		}
		r.Get("/documents", docH.List)
	})

	return r
}
