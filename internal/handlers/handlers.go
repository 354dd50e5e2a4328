// Package handlers serves the scouting API and dashboard over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Alias1177/MatchScout/internal/database"
	"github.com/Alias1177/MatchScout/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxBodySize limits the size of request bodies to 64KB
const MaxBodySize = 64 << 10

// ReportService is the prediction and report backend.
type ReportService interface {
	Teams() []string
	Predict(teamA, teamB string) (models.MatchPrediction, error)
	Generate(ctx context.Context, teamA, teamB string) (*models.ScoutReport, error)
}

// HistoryReader lists served reports.
type HistoryReader interface {
	RecentReports(ctx context.Context, limit int) ([]database.ReportSummary, error)
}

type Config struct {
	Reports        ReportService
	History        HistoryReader // optional
	AllowedOrigins []string
	ReportTimeout  time.Duration
}

type Handler struct {
	reports       ReportService
	history       HistoryReader
	validator     *validator.Validate
	logger        zerolog.Logger
	origins       []string
	reportTimeout time.Duration
}

func New(cfg Config) *Handler {
	if cfg.ReportTimeout == 0 {
		cfg.ReportTimeout = time.Minute
	}
	return &Handler{
		reports:       cfg.Reports,
		history:       cfg.History,
		validator:     validator.New(),
		logger:        log.With().Str("component", "http").Logger(),
		origins:       cfg.AllowedOrigins,
		reportTimeout: cfg.ReportTimeout,
	}
}

// Router wires every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	origins := h.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", h.Dashboard)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/teams", h.ListTeams)
		r.Post("/predict", h.PredictMatch)
		r.Post("/report", h.GenerateReport)
		r.Get("/reports/recent", h.RecentReports)
	})
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request")
	})
}
