package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"registro/internal/core"
	"registro/internal/ledger"
	"registro/internal/services"
)

// Request bodies are kept small and flat; everything arrives as strings and
// the service layer does the parsing and validation.
type commitRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
	Date        string `json:"date"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the API contract: validation failures
// are 422 with a user-visible message, missing IDs are 404, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, ledger.ErrInvalidSnapshot):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid backup file"})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrUnknownCategory),
		errors.Is(err, core.ErrUnknownType),
		errors.Is(err, core.ErrUnknownWindowMode),
		errors.Is(err, core.ErrMissingStartDate),
		errors.Is(err, core.ErrMissingEndDate):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	tx, err := s.svc.Commit(r.Context(), services.CommitParams{
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Date:        req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePaid(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.TogglePaid(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	txs := s.svc.Recent(s.recentLimit)
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func queryParams(r *http.Request) services.QueryParams {
	q := r.URL.Query()
	return services.QueryParams{
		Mode:     q.Get("mode"),
		Start:    q.Get("start"),
		End:      q.Get("end"),
		Category: q.Get("category"),
		Keyword:  q.Get("keyword"),
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Query(queryParams(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Credit(queryParams(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.svc.Categories()})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "category name cannot be empty"})
		return
	}
	if !s.svc.AddCategory(r.Context(), req.Name) {
		// Duplicate: already present, nothing changed.
		writeJSON(w, http.StatusOK, map[string]any{"categories": s.svc.Categories()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"categories": s.svc.Categories()})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	if !s.svc.RemoveCategory(r.Context(), r.PathValue("name")) {
		writeError(w, services.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubCategories(w http.ResponseWriter, r *http.Request) {
	subs := s.svc.SubCategories(r.PathValue("name"))
	writeJSON(w, http.StatusOK, map[string]any{"subCategories": subs})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filename := "LEDGER_BACKUP_" + time.Now().UTC().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := s.svc.Export(w); err != nil {
		s.logger.ErrorContext(r.Context(), "Export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Import(r.Context(), r.Body); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	s.svc.Purge(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
