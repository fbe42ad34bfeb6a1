// Package chi is the inbound HTTP API: task submission and status, stored
// analyses, synchronous keyword scoring, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/compscope/internal/domain/keyword"
	domtask "github.com/kailas-cloud/compscope/internal/domain/task"
	"github.com/kailas-cloud/compscope/internal/logger"
	healthuc "github.com/kailas-cloud/compscope/internal/usecase/health"
)

const (
	maxScoreKeywords = 5000
	maxBodyBytes     = 8 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type competitorsRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=domain location"`
}

type scoreRequest struct {
	Keywords []keyword.Record `json:"keywords" validate:"required,min=1,max=5000"`
}

type taskAccepted struct {
	TaskID string         `json:"task_id"`
	Status domtask.Status `json:"status"`
	Kind   domtask.Kind   `json:"kind"`
}

// Server holds the HTTP handlers.
type Server struct {
	tasks    TaskRunner
	analyses AnalysisReader
	scorer   KeywordScorer
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	tasks TaskRunner,
	analyses AnalysisReader,
	scorer KeywordScorer,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		tasks:    tasks,
		analyses: analyses,
		scorer:   scorer,
		health:   health,
		logger:   logger,
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/businesses/{id}", func(r chi.Router) {
			r.Post("/competitors", s.SubmitCompetitors)
			r.Post("/keywords", s.submit(domtask.KindKeywords))
			r.Post("/targets", s.submit(domtask.KindTargets))
			r.Post("/opportunities", s.submit(domtask.KindOpportunities))
			r.Get("/analysis", s.GetAnalysis)
		})
		r.Get("/tasks/{id}", s.GetTask)
		r.Post("/keywords/score", s.ScoreKeywords)
	})
}

// SubmitCompetitors handles POST /api/v1/businesses/{id}/competitors.
// An empty body or mode "domain" runs organic discovery; "location" runs map discovery.
func (s *Server) SubmitCompetitors(w http.ResponseWriter, r *http.Request) {
	var req competitorsRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code: CodeValidationFailed, Message: "mode must be domain or location", Field: "mode",
		})
		return
	}

	kind := domtask.KindCompetitors
	if req.Mode == "location" {
		kind = domtask.KindLocationCompetitors
	}
	s.submit(kind)(w, r)
}

func (s *Server) submit(kind domtask.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID := chi.URLParam(r, "id")
		t, err := s.tasks.Submit(r.Context(), kind, businessID)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}

		w.Header().Set("Location", "/api/v1/tasks/"+t.ID)
		writeJSON(w, http.StatusAccepted, taskAccepted{TaskID: t.ID, Status: t.Status, Kind: t.Kind})
	}
}

// GetTask handles GET /api/v1/tasks/{id}.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetAnalysis handles GET /api/v1/businesses/{id}/analysis.
func (s *Server) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	doc, err := s.analyses.Analysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ScoreKeywords handles POST /api/v1/keywords/score.
func (s *Server) ScoreKeywords(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidationFailed,
			Message: fmt.Sprintf("keywords must hold 1 to %d records", maxScoreKeywords),
			Field:   "keywords",
		})
		return
	}

	writeJSON(w, http.StatusOK, s.scorer.Score(req.Keywords))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// clientKey identifies the caller for rate limiting: its API key when
// authenticated, else the remote host.
func clientKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return "key:" + auth[len(bearerPrefix):]
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}
