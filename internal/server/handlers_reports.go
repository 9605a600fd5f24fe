package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-forge/internal/db"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	store := s.svc.Reports()
	if store == nil {
		writeError(w, HTTPStatus(ErrStorageDisabled), ErrStorageDisabled.Error())
		return
	}

	limit := db.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := store.ListReports(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list reports", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if reports == nil {
		reports = []db.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	store, id, ok := s.reportTarget(w, r)
	if !ok {
		return
	}

	report, err := store.GetReport(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to get report", zap.String("id", id.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	store, id, ok := s.reportTarget(w, r)
	if !ok {
		return
	}

	deleted, err := store.DeleteReport(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to delete report", zap.String("id", id.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reportTarget resolves the store and the {id} path parameter, writing the error
// response when either is unusable.
func (s *Server) reportTarget(w http.ResponseWriter, r *http.Request) (db.Store, uuid.UUID, bool) {
	store := s.svc.Reports()
	if store == nil {
		writeError(w, HTTPStatus(ErrStorageDisabled), ErrStorageDisabled.Error())
		return nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report ID")
		return nil, uuid.Nil, false
	}
	return store, id, true
}
