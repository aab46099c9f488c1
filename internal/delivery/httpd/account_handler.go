package httpd

import (
	"net/http"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.SignupResponse{UserID: account.ID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	response, err := h.accountService.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.authenticator.EndSession(r.Context(), principal); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if err := h.accountService.ChangePassword(r.Context(), principal.AccountID, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.UpdateProfile(r.Context(), principal.AccountID, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    account,
	})
}

func (h *Handler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.accountService.ListTeachers(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, teachers)
}
