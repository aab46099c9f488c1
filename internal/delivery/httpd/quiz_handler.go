package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.CreateQuizRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	response, err := h.quizService.CreateQuiz(r.Context(), principal.AccountID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	quizID := chi.URLParam(r, "quiz")
	if _, err := uuid.Parse(quizID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quiz_id format")
		return
	}

	var req models.UpdateQuizRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizService.UpdateQuiz(r.Context(), principal.AccountID, quizID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) GetQuizByCode(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizService.GetQuizByCode(r.Context(), chi.URLParam(r, "quiz"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) GetMyQuizzes(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	quizzes, err := h.quizService.GetQuizzesCreatedBy(r.Context(), principal.AccountID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quizzes)
}
