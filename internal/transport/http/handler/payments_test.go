package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couple-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPaymentHandler_Webhook(t *testing.T) {
	payments := &mockPaymentService{}
	payments.On("HandleCompletion", mock.Anything, []byte(`{"type":"checkout.session.completed"}`), "t=1,v1=abc").
		Return(nil)

	h := NewPaymentHandler(payments)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook",
		strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	payments.AssertExpectations(t)
}

func TestPaymentHandler_Webhook_BadSignature(t *testing.T) {
	payments := &mockPaymentService{}
	payments.On("HandleCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrUnauthorized)

	h := NewPaymentHandler(payments)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
