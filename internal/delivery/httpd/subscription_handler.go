package httpd

import (
	"net/http"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.SubscriptionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.subscriptionService.Subscribe(r.Context(), principal.AccountID, req.TeacherID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.SubscriptionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.subscriptionService.Unsubscribe(r.Context(), principal.AccountID, req.TeacherID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w)
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	teachers, err := h.subscriptionService.ListSubscriptions(r.Context(), principal.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, teachers)
}

func (h *Handler) GetUpcomingQuizzes(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	quizzes, err := h.subscriptionService.UpcomingQuizzesFor(r.Context(), principal.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quizzes)
}
