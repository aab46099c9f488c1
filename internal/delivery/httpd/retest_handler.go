package httpd

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func (h *Handler) CreateRetestRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	// Отсутствующий quiz_id отдельно отвечает 400 с понятным текстом.
	var req models.CreateRetestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quiz_id is required")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	request, err := h.retestService.RequestRetest(r.Context(), principal.AccountID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// ListRetestRequests отдает учителю ожидающие запросы по его квизам, студенту его собственные.
func (h *Handler) ListRetestRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var (
		requests []models.RetestRequestDetails
		err      error
	)
	if principal.IsTeacher() {
		requests, err = h.retestService.ListPendingForTeacher(r.Context(), principal.AccountID)
	} else {
		requests, err = h.retestService.ListForStudent(r.Context(), principal.AccountID)
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) ResolveRetestRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(requestID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id format")
		return
	}

	var req models.ResolveRetestRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	request, err := h.retestService.ResolveRetest(r.Context(), principal.AccountID, requestID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, request)
}
