package domain

import "time"

// Couple lifecycle statuses.
const (
	StatusAwaitingPayment     = "awaiting_payment"
	StatusPendingVerification = "pending_verification"
	StatusActive              = "active"
	StatusDeleted             = "deleted"
)

// Verification flag names, as accepted by SetFlag and the verify endpoint.
const (
	FlagEmail1 = "email1"
	FlagPhone1 = "phone1"
	FlagID1    = "id1"
	FlagEmail2 = "email2"
	FlagPhone2 = "phone2"
	FlagID2    = "id2"
)

// ValidFlag reports whether name is one of the six verification flags.
func ValidFlag(name string) bool {
	switch name {
	case FlagEmail1, FlagPhone1, FlagID1, FlagEmail2, FlagPhone2, FlagID2:
		return true
	}
	return false
}

type Person struct {
	BirthName string `json:"birth_name" dynamodbav:"birth_name" validate:"required"`
	Email     string `json:"email" dynamodbav:"email" validate:"required,email"`
	Phone     string `json:"phone" dynamodbav:"phone" validate:"required"`
	City      string `json:"city" dynamodbav:"city"`
	State     string `json:"state" dynamodbav:"state"`
	Age       int    `json:"age" dynamodbav:"age" validate:"required,gte=18"`
}

// Verification is the set of independent proofs backing a couple record.
// Flags are set in any order; activation is a set-completion guard.
type Verification struct {
	Email1 bool `json:"email1" dynamodbav:"email1"`
	Phone1 bool `json:"phone1" dynamodbav:"phone1"`
	ID1    bool `json:"id1" dynamodbav:"id1"`
	Email2 bool `json:"email2" dynamodbav:"email2"`
	Phone2 bool `json:"phone2" dynamodbav:"phone2"`
	ID2    bool `json:"id2" dynamodbav:"id2"`
}

// Complete is the activation policy: a couple may become active only once
// every proof is in.
func (v Verification) Complete() bool {
	return v.Email1 && v.Phone1 && v.ID1 && v.Email2 && v.Phone2 && v.ID2
}

// Customization holds the couple's public profile decoration.
type Customization struct {
	CustomColor     string            `json:"custom_color" dynamodbav:"custom_color"`
	LoveStory       string            `json:"love_story" dynamodbav:"love_story"`
	AnniversaryDate string            `json:"anniversary_date" dynamodbav:"anniversary_date"` // YYYY-MM-DD
	Tips            []map[string]string `json:"tips" dynamodbav:"tips"`
}

type Couple struct {
	CoupleID              string        `json:"id" dynamodbav:"couple_id"`
	Person1               Person        `json:"person1" dynamodbav:"person1"`
	Person2               Person        `json:"person2" dynamodbav:"person2"`
	RelationshipStartDate time.Time     `json:"relationship_start_date" dynamodbav:"relationship_start_date"`
	Photos                []string      `json:"photos" dynamodbav:"photos"`
	Verification          Verification  `json:"verification" dynamodbav:"verification"`
	Status                string        `json:"status" dynamodbav:"status"`
	Verified              bool          `json:"verified" dynamodbav:"verified"` // paid badge upgrade
	Customization         Customization `json:"customization" dynamodbav:"customization"`
	CreatedAt             time.Time     `json:"created" dynamodbav:"created_at"`
	DeletedAt             *time.Time    `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
}

type RegisterCoupleRequest struct {
	Person1               Person   `json:"person1" validate:"required"`
	Person2               Person   `json:"person2" validate:"required"`
	RelationshipStartDate string   `json:"relationship_start_date" validate:"required"` // YYYY-MM-DD
	Photos                []string `json:"photos"`
}

type UpdateCustomizationRequest struct {
	CustomColor     *string              `json:"custom_color"`
	LoveStory       *string              `json:"love_story"`
	AnniversaryDate *string              `json:"anniversary_date"` // YYYY-MM-DD
	Tips            *[]map[string]string `json:"tips"`
}

// EmailClaim reserves an email address for a non-deleted couple. One claim per
// address enforces the global uniqueness invariant at registration time.
type EmailClaim struct {
	Email    string `json:"email" dynamodbav:"email"`
	CoupleID string `json:"couple_id" dynamodbav:"couple_id"`
}
