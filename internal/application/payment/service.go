package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couple-registry/internal/domain"
)

// gateway is the payment provider boundary (Stripe in production).
type gateway interface {
	CreateCheckoutSession(ctx context.Context, coupleID, purpose, productName string, amountCents int64) (*domain.CheckoutSession, error)
	ParseCompletion(payload []byte, signature string) (*domain.ChargeCompletion, error)
}

// chargeLedger records processed sessions; MarkCompleted returns ErrConflict
// for replays.
type chargeLedger interface {
	MarkCompleted(ctx context.Context, rec *domain.ChargeRecord) error
}

// registrationLedger is the part of the couple ledger driven by payment
// completion events.
type registrationLedger interface {
	CompleteRegistration(ctx context.Context, coupleID string) error
	MarkVerified(ctx context.Context, coupleID string) error
}

type Service interface {
	CreateRegistrationCharge(ctx context.Context, coupleID string) (*domain.CheckoutSession, error)
	CreateUpgradeCharge(ctx context.Context, coupleID string) (*domain.CheckoutSession, error)
	// HandleCompletion consumes a provider confirmation exactly once and
	// applies its purpose to the ledger. Replays are acknowledged no-ops.
	HandleCompletion(ctx context.Context, payload []byte, signature string) error
}

type service struct {
	gw              gateway
	charges         chargeLedger
	ledger          registrationLedger
	registrationFee int64
	upgradeFee      int64
}

func NewService(gw gateway, charges chargeLedger, ledger registrationLedger, registrationFee, upgradeFee int64) Service {
	return &service{
		gw:              gw,
		charges:         charges,
		ledger:          ledger,
		registrationFee: registrationFee,
		upgradeFee:      upgradeFee,
	}
}

func (s *service) CreateRegistrationCharge(ctx context.Context, coupleID string) (*domain.CheckoutSession, error) {
	return s.gw.CreateCheckoutSession(ctx, coupleID, domain.PurposeRegistration,
		"Couple registration", s.registrationFee)
}

func (s *service) CreateUpgradeCharge(ctx context.Context, coupleID string) (*domain.CheckoutSession, error) {
	return s.gw.CreateCheckoutSession(ctx, coupleID, domain.PurposeBadgeUpgrade,
		"Verified badge upgrade", s.upgradeFee)
}

func (s *service) HandleCompletion(ctx context.Context, payload []byte, signature string) error {
	completion, err := s.gw.ParseCompletion(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // event type we don't care about; acknowledge
		}
		return err
	}

	// Apply the effect before consuming the session. If the ledger write
	// fails the session stays unconsumed and the provider's retry re-applies
	// it; both effects tolerate being re-run.
	switch completion.Purpose {
	case domain.PurposeRegistration:
		err = s.ledger.CompleteRegistration(ctx, completion.CoupleID)
	case domain.PurposeBadgeUpgrade:
		err = s.ledger.MarkVerified(ctx, completion.CoupleID)
	default:
		return fmt.Errorf("unknown charge purpose %q: %w", completion.Purpose, domain.ErrBadRequest)
	}
	if err != nil {
		return err
	}

	if err := s.charges.MarkCompleted(ctx, &domain.ChargeRecord{
		SessionID:   completion.SessionID,
		CoupleID:    completion.CoupleID,
		Purpose:     completion.Purpose,
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			slog.Info("charge confirmation replayed, ignoring",
				"session_id", completion.SessionID)
			return nil
		}
		return err
	}
	return nil
}
