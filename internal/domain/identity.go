package domain

import "time"

// IdentityVerification review statuses. Approved and rejected are terminal.
const (
	ReviewPending  = "pending_review"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// FaceMatchResult is the adjudicator's classification of an ID photo against
// a live selfie. Confidence reports the weaker of the two detections.
type FaceMatchResult struct {
	Match              bool    `json:"match" dynamodbav:"match"`
	Confidence         float64 `json:"confidence" dynamodbav:"confidence"`
	IDFaceDetected     bool    `json:"id_face_detected" dynamodbav:"id_face_detected"`
	SelfieFaceDetected bool    `json:"selfie_face_detected" dynamodbav:"selfie_face_detected"`
}

type IdentityVerification struct {
	VerificationID string          `json:"id" dynamodbav:"verification_id"`
	CoupleID       string          `json:"couple_id" dynamodbav:"couple_id"`
	PersonNumber   int             `json:"person_number" dynamodbav:"person_number"` // 1 or 2
	IDImageRef     string          `json:"id_image_ref" dynamodbav:"id_image_ref"`
	SelfieRef      *string         `json:"selfie_ref,omitempty" dynamodbav:"selfie_ref"`
	FaceMatch      FaceMatchResult `json:"face_match" dynamodbav:"face_match"`
	Status         string          `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time       `json:"created" dynamodbav:"created_at"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at"`
}

// IDFlagForPerson maps a person number to its identity verification flag.
func IDFlagForPerson(personNumber int) string {
	if personNumber == 2 {
		return FlagID2
	}
	return FlagID1
}
