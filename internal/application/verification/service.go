package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couple-registry/internal/domain"
	"github.com/couple-registry/internal/infrastructure/smtp"
	"github.com/couple-registry/internal/infrastructure/sns"
	"github.com/couple-registry/internal/pkg/otp"
)

// dispatchTimeout bounds the outbound send; code validity never depends on it.
const dispatchTimeout = 10 * time.Second

// CodeStore is the pluggable backend holding outstanding codes. Both the
// DynamoDB repo and the in-memory store satisfy it; Redeem must be atomic.
type CodeStore interface {
	Put(ctx context.Context, c *domain.VerificationCode) error
	Redeem(ctx context.Context, channel, identifier, submitted string) error
}

// flagLedger is what the service needs from the registration ledger after a
// successful redemption.
type flagLedger interface {
	SetFlagForIdentifier(ctx context.Context, channel, identifier string) error
}

type Service interface {
	// RequestCode issues a fresh code for (channel, identifier) and attempts
	// delivery. The returned bool reports delivery only; the code is
	// redeemable either way.
	RequestCode(ctx context.Context, channel, identifier string) (delivered bool, err error)
	// ConfirmCode redeems a submitted code and, when a couple record holds
	// the identifier, marks the corresponding verification flag.
	ConfirmCode(ctx context.Context, channel, identifier, submitted string) error
}

type service struct {
	store     CodeStore
	mailer    smtp.Mailer
	smsSender sns.SMSSender
	ledger    flagLedger
}

func NewService(store CodeStore, mailer smtp.Mailer, smsSender sns.SMSSender, ledger flagLedger) Service {
	return &service{store: store, mailer: mailer, smsSender: smsSender, ledger: ledger}
}

func (s *service) RequestCode(ctx context.Context, channel, identifier string) (bool, error) {
	if channel != domain.ChannelEmail && channel != domain.ChannelSMS {
		return false, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	if identifier == "" {
		return false, fmt.Errorf("identifier required: %w", domain.ErrBadRequest)
	}

	code, err := otp.New()
	if err != nil {
		return false, err
	}
	now := time.Now()
	entry := &domain.VerificationCode{
		Channel:    channel,
		Identifier: identifier,
		Code:       code,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(domain.CodeTTL).Unix(),
	}
	if err := s.store.Put(ctx, entry); err != nil {
		return false, err
	}

	// Best-effort notify, authoritative store: a dead transport must not
	// invalidate the code that was just issued.
	delivered := s.dispatch(ctx, channel, identifier, code)
	return delivered, nil
}

func (s *service) dispatch(ctx context.Context, channel, identifier, code string) bool {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	var err error
	switch channel {
	case domain.ChannelEmail:
		if s.mailer == nil {
			err = errors.New("mailer not configured")
			break
		}
		err = s.mailer.SendEmail(identifier, "Your verification code", "Your verification code: "+code)
	case domain.ChannelSMS:
		if s.smsSender == nil {
			err = errors.New("sms sender not configured")
			break
		}
		err = s.smsSender.SendSMS(ctx, identifier, "Your verification code: "+code)
	}
	if err != nil {
		slog.Warn("code dispatch failed", "channel", channel, "err", err)
		return false
	}
	return true
}

func (s *service) ConfirmCode(ctx context.Context, channel, identifier, submitted string) error {
	if err := s.store.Redeem(ctx, channel, identifier, submitted); err != nil {
		return err
	}
	// Identifiers may be verified ahead of registration; no couple holding
	// the address is not an error.
	if err := s.ledger.SetFlagForIdentifier(ctx, channel, identifier); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
