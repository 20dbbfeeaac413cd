package handler

import (
	"encoding/json"
	"net/http"

	"github.com/couple-registry/internal/application/couple"
	"github.com/couple-registry/internal/application/payment"
	"github.com/couple-registry/internal/domain"
	s3infra "github.com/couple-registry/internal/infrastructure/s3"
	"github.com/go-chi/chi/v5"
)

// CoupleHandler handles couple registration, verification flags, public
// lookup and profile endpoints.
type CoupleHandler struct {
	svc      couple.Service
	payments payment.Service
}

func NewCoupleHandler(svc couple.Service, payments payment.Service) *CoupleHandler {
	return &CoupleHandler{svc: svc, payments: payments}
}

func (h *CoupleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterCoupleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	session, err := h.payments.CreateRegistrationCharge(r.Context(), c.CoupleID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"couple_id":    c.CoupleID,
		"status":       c.Status,
		"session_id":   session.SessionID,
		"checkout_url": session.RedirectURL,
	})
}

func (h *CoupleHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Field == "" {
		writeError(w, http.StatusBadRequest, "field required")
		return
	}
	c, err := h.svc.SetFlag(r.Context(), chi.URLParam(r, "id"), body.Field)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "verification updated",
		"status":  c.Status,
	})
}

func (h *CoupleHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	session, err := h.payments.CreateUpgradeCharge(r.Context(), c.CoupleID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id":   session.SessionID,
		"checkout_url": session.RedirectURL,
	})
}

func (h *CoupleHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Image == "" {
		writeError(w, http.StatusBadRequest, "image required")
		return
	}
	image, err := s3infra.DecodeImage(body.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is not valid base64")
		return
	}
	ref, err := h.svc.AddPhoto(r.Context(), chi.URLParam(r, "id"), image)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"photo": ref})
}

func (h *CoupleHandler) Customize(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCustomizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.svc.Customize(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "profile customized"})
}

func (h *CoupleHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CoupleHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CoupleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "couple deleted"})
}

func (h *CoupleHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Search(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}
