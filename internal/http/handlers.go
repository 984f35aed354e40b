package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"iuran/internal/core"
	"iuran/internal/log"
)

// viewResponse is the envelope shared by the record-serving endpoints:
// the active category plus how the backing fetch went. A degraded fetch
// is a notice, not an error status.
type viewResponse struct {
	Category core.Category        `json:"category"`
	Records  []core.PaymentRecord `json:"records"`
	Degraded bool                 `json:"degraded,omitempty"`
	Notice   string               `json:"notice,omitempty"`
}

type summaryResponse struct {
	Category core.Category `json:"category"`
	Summary  core.Summary  `json:"summary"`
	Degraded bool          `json:"degraded,omitempty"`
	Notice   string        `json:"notice,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handlePayments serves the filtered record view on GET and records a new
// payment on POST.
func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listPayments(w, r)
	case http.MethodPost:
		s.submitPayment(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	s.payments.SetCriteria(parseCriteria(r))
	view := s.payments.CurrentView()
	writeJSON(w, http.StatusOK, viewResponse{
		Category: view.Category,
		Records:  s.payments.Records(),
		Degraded: view.Degraded,
		Notice:   view.Notice,
	})
}

func (s *Server) submitPayment(w http.ResponseWriter, r *http.Request) {
	entry, err := parseEntry(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.payments.Submit(r.Context(), entry); err != nil {
		logger := log.FromContext(r.Context())
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "Payment submit failed",
			log.FieldPersonID, entry.PersonID,
			log.FieldMonth, entry.Month,
			"error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view := s.payments.CurrentView()
	writeJSON(w, http.StatusOK, summaryResponse{
		Category: view.Category,
		Summary:  s.payments.Summary(),
		Degraded: view.Degraded,
		Notice:   view.Notice,
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view := s.payments.CurrentView()
	writeJSON(w, http.StatusOK, viewResponse{
		Category: view.Category,
		Records:  s.payments.Recent(parseLimit(r)),
		Degraded: view.Degraded,
		Notice:   view.Notice,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.payments.Categories())
}

// handleSwitchCategory activates a category and returns the resulting
// view. Unknown keys fall back to the first configured category.
func (s *Server) handleSwitchCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	key, err := parseCategoryKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view := s.payments.SwitchCategory(r.Context(), key)
	writeJSON(w, http.StatusOK, viewResponse{
		Category: view.Category,
		Records:  s.payments.Records(),
		Degraded: view.Degraded,
		Notice:   view.Notice,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view := s.payments.Refresh(r.Context())
	writeJSON(w, http.StatusOK, viewResponse{
		Category: view.Category,
		Records:  s.payments.Records(),
		Degraded: view.Degraded,
		Notice:   view.Notice,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyName) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidMonth)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
