package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.resultService.LeaderboardFor(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) GetQuizAttempts(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	attempts, err := h.resultService.AttemptsForQuiz(r.Context(), principal.AccountID, chi.URLParam(r, "code"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	export, err := h.resultService.ExportResults(r.Context(), principal.AccountID, chi.URLParam(r, "code"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, export)
}

func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	stats, err := h.resultService.UserStats(r.Context(), principal.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
