package handler

import (
	"encoding/json"
	"net/http"

	"github.com/couple-registry/internal/application/identity"
	s3infra "github.com/couple-registry/internal/infrastructure/s3"
)

// IdentityHandler handles ID-document upload, stateless face matching and the
// manual review decision.
type IdentityHandler struct {
	svc identity.Service
}

func NewIdentityHandler(svc identity.Service) *IdentityHandler {
	return &IdentityHandler{svc: svc}
}

func (h *IdentityHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RegistrationID string `json:"registration_id"`
		PersonNumber   int    `json:"person_number"`
		IDImage        string `json:"id_image"`
		Selfie         string `json:"selfie"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RegistrationID == "" || body.IDImage == "" {
		writeError(w, http.StatusBadRequest, "registration_id and id_image required")
		return
	}
	idImage, err := s3infra.DecodeImage(body.IDImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id_image is not valid base64")
		return
	}
	selfie, err := s3infra.DecodeImage(body.Selfie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "selfie is not valid base64")
		return
	}

	v, err := h.svc.Submit(r.Context(), identity.SubmitInput{
		CoupleID:     body.RegistrationID,
		PersonNumber: body.PersonNumber,
		IDImage:      idImage,
		Selfie:       selfie,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      v.VerificationID,
		"status":  v.Status,
	})
}

// Face runs a stateless adjudication without storing anything.
func (h *IdentityHandler) Face(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDImage string `json:"id_image"`
		Selfie  string `json:"selfie"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IDImage == "" || body.Selfie == "" {
		writeError(w, http.StatusBadRequest, "id_image and selfie required")
		return
	}
	idImage, err := s3infra.DecodeImage(body.IDImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id_image is not valid base64")
		return
	}
	selfie, err := s3infra.DecodeImage(body.Selfie)
	if err != nil {
		writeError(w, http.StatusBadRequest, "selfie is not valid base64")
		return
	}
	res, err := h.svc.Adjudicate(r.Context(), idImage, selfie)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Approve applies a terminal manual decision to a pending verification.
func (h *IdentityHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID       string `json:"id"`
		Approved *bool  `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" || body.Approved == nil {
		writeError(w, http.StatusBadRequest, "id and approved required")
		return
	}
	v, err := h.svc.Review(r.Context(), body.ID, *body.Approved)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": v.Status})
}
