package domain

import "time"

// Charge purposes carried through checkout session metadata. The completion
// callback dispatches on purpose, never on the paid amount.
const (
	PurposeRegistration = "registration"
	PurposeBadgeUpgrade = "badge_upgrade"
)

// CheckoutSession is the opaque handle returned by the payment provider.
type CheckoutSession struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"checkout_url"`
}

// ChargeCompletion is the provider's confirmation that a charge succeeded.
type ChargeCompletion struct {
	SessionID string
	CoupleID  string
	Purpose   string
}

// ChargeRecord marks a completed charge session. Written with a
// put-if-absent condition so a replayed confirmation is detected and ignored.
type ChargeRecord struct {
	SessionID   string    `json:"session_id" dynamodbav:"session_id"`
	CoupleID    string    `json:"couple_id" dynamodbav:"couple_id"`
	Purpose     string    `json:"purpose" dynamodbav:"purpose"`
	CompletedAt time.Time `json:"completed_at" dynamodbav:"completed_at"`
}
