package handler

import (
	"io"
	"net/http"

	"github.com/couple-registry/internal/application/payment"
)

// maxWebhookBody caps the provider payload we are willing to read.
const maxWebhookBody = 1 << 16

// PaymentHandler consumes payment-provider completion callbacks.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	if err := h.svc.HandleCompletion(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "received"})
}
