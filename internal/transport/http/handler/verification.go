package handler

import (
	"encoding/json"
	"net/http"

	"github.com/couple-registry/internal/application/verification"
	"github.com/couple-registry/internal/domain"
)

// VerificationHandler handles email and SMS code request/confirm endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}
	if _, err := h.svc.RequestCode(r.Context(), domain.ChannelEmail, body.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "verification code sent",
		"email":   body.Email,
	})
}

func (h *VerificationHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" || body.Code == "" {
		writeError(w, http.StatusBadRequest, "email and code required")
		return
	}
	if err := h.svc.ConfirmCode(r.Context(), domain.ChannelEmail, body.Email, body.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *VerificationHandler) RequestSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone required")
		return
	}
	if _, err := h.svc.RequestCode(r.Context(), domain.ChannelSMS, body.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "verification code sent",
		"phone":   body.Phone,
	})
}

func (h *VerificationHandler) ConfirmSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" || body.Code == "" {
		writeError(w, http.StatusBadRequest, "phone and code required")
		return
	}
	if err := h.svc.ConfirmCode(r.Context(), domain.ChannelSMS, body.Phone, body.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
