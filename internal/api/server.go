package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/eventsync/internal/config"
	"github.com/Kerhoff/eventsync/internal/models"
	"github.com/Kerhoff/eventsync/internal/service"
)

// Syncer runs passes on request.
type Syncer interface {
	RunPass(ctx context.Context, trigger service.Trigger) (*service.PassReport, error)
	LastReport() *service.PassReport
	Running() bool
}

// CategoryEditor reads and changes the category policy.
type CategoryEditor interface {
	Snapshot() *config.Categories
	Update(name models.Category, cc config.CategoryConfig) (config.CategoryConfig, error)
}

// Server provides the HTTP API.
type Server struct {
	svc        Syncer
	categories CategoryEditor
	logger     *logrus.Logger
	mux        *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc Syncer, categories CategoryEditor, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, categories: categories, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	// API – Sync passes
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("GET /api/sync/last", s.handleLastReport)

	// API – Category policy
	s.mux.HandleFunc("GET /api/categories", s.handleGetCategories)
	s.mux.HandleFunc("PUT /api/categories/{category}", s.handleUpdateCategory)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": s.svc.Running(),
	})
}

var statusCodes = map[service.Status]int{
	service.StatusCompleted: http.StatusOK,
	service.StatusThrottled: http.StatusTooManyRequests,
	service.StatusBusy:      http.StatusConflict,
	service.StatusAborted:   http.StatusInternalServerError,
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.RunPass(r.Context(), service.TriggerAPI)
	if err != nil {
		if errors.Is(err, service.ErrMissingGrants) {
			s.respondJSON(w, http.StatusForbidden, report)
			return
		}
		s.logger.WithError(err).Error("failed to run sync pass")
		s.respondError(w, http.StatusInternalServerError, "failed to run sync pass")
		return
	}

	code, ok := statusCodes[report.Status]
	if !ok {
		code = http.StatusOK
	}
	s.respondJSON(w, code, report)
}

func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	report := s.svc.LastReport()
	if report == nil {
		s.respondError(w, http.StatusNotFound, "no sync pass has run yet")
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.categories.Snapshot())
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	name := models.Category(r.PathValue("category"))
	if !name.Valid() {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", name))
		return
	}

	var req config.CategoryConfig
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := s.categories.Update(name, req)
	if err != nil {
		s.logger.WithError(err).WithField("category", name).Error("failed to update category")
		s.respondError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"category": name,
		"enabled":  updated.Enabled,
	}).Info("Category policy updated; applies from the next pass")

	s.respondJSON(w, http.StatusOK, updated)
}
