package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func (h *Handler) CheckQuizAttempt(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	status, err := h.attemptService.HasAttempted(r.Context(), principal, chi.URLParam(r, "code"), chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.SubmitQuizRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.attemptService.Submit(r.Context(), principal.AccountID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetQuizResult(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	result, err := h.attemptService.GetResult(r.Context(), principal, chi.URLParam(r, "code"), chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetAttemptedQuizzes(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	attempts, err := h.attemptService.AttemptedQuizzes(r.Context(), principal.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, attempts)
}
