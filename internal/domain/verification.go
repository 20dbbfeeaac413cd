package domain

import "time"

// Verification channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// CodeTTL is how long an issued code stays redeemable.
const CodeTTL = 10 * time.Minute

// VerificationCode is a one-time 6-digit code proving control of an identifier.
// PK: channel, SK: identifier — at most one outstanding code per pair; a new
// issue replaces any prior entry. ExpiresAt doubles as the DynamoDB TTL.
type VerificationCode struct {
	Channel    string `json:"channel" dynamodbav:"channel"`
	Identifier string `json:"identifier" dynamodbav:"identifier"`
	Code       string `json:"code" dynamodbav:"code"`
	IssuedAt   int64  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt  int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *VerificationCode) Expired(now time.Time) bool {
	return now.Unix() > c.ExpiresAt
}
