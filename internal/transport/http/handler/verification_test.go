package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couple-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockVerificationService struct{ mock.Mock }

func (m *mockVerificationService) RequestCode(ctx context.Context, channel, identifier string) (bool, error) {
	args := m.Called(ctx, channel, identifier)
	return args.Bool(0), args.Error(1)
}
func (m *mockVerificationService) ConfirmCode(ctx context.Context, channel, identifier, submitted string) error {
	return m.Called(ctx, channel, identifier, submitted).Error(0)
}

func TestVerificationHandler_RequestEmail(t *testing.T) {
	svc := &mockVerificationService{}
	svc.On("RequestCode", mock.Anything, domain.ChannelEmail, "a@x.com").Return(true, nil)
	h := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify/email/request", strings.NewReader(`{"email":"a@x.com"}`))
	rec := httptest.NewRecorder()
	h.RequestEmail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification code sent")
	svc.AssertExpectations(t)
}

func TestVerificationHandler_RequestEmail_MissingBody(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationService{})

	for _, body := range []string{``, `{}`, `{"email":""}`, `not-json`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/verify/email/request", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.RequestEmail(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestVerificationHandler_ConfirmEmail(t *testing.T) {
	svc := &mockVerificationService{}
	svc.On("ConfirmCode", mock.Anything, domain.ChannelEmail, "a@x.com", "123456").Return(nil)
	h := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify/email/confirm",
		strings.NewReader(`{"email":"a@x.com","code":"123456"}`))
	rec := httptest.NewRecorder()
	h.ConfirmEmail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verified":true}`, rec.Body.String())
}

func TestVerificationHandler_ConfirmEmail_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"wrong code", domain.ErrCodeInvalid, http.StatusBadRequest},
		{"no outstanding code", domain.ErrNotFound, http.StatusNotFound},
		{"expired code", domain.ErrCodeExpired, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockVerificationService{}
			svc.On("ConfirmCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tc.err)
			h := NewVerificationHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/v1/verify/email/confirm",
				strings.NewReader(`{"email":"a@x.com","code":"000000"}`))
			rec := httptest.NewRecorder()
			h.ConfirmEmail(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestVerificationHandler_ConfirmSMS(t *testing.T) {
	svc := &mockVerificationService{}
	svc.On("ConfirmCode", mock.Anything, domain.ChannelSMS, "+15550001111", "123456").Return(nil)
	h := NewVerificationHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/verify/sms/confirm",
		strings.NewReader(`{"phone":"+15550001111","code":"123456"}`))
	rec := httptest.NewRecorder()
	h.ConfirmSMS(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestVerificationHandler_RequestSMS_MissingPhone(t *testing.T) {
	h := NewVerificationHandler(&mockVerificationService{})
	req := httptest.NewRequest(http.MethodPost, "/v1/verify/sms/request", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.RequestSMS(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
