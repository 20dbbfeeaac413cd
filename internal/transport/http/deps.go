package http

import (
	"github.com/couple-registry/internal/application/verification"
	"github.com/couple-registry/internal/infrastructure/dynamo"
	jwtinfra "github.com/couple-registry/internal/infrastructure/jwt"
	"github.com/couple-registry/internal/infrastructure/rekognition"
	s3infra "github.com/couple-registry/internal/infrastructure/s3"
	"github.com/couple-registry/internal/infrastructure/smtp"
	"github.com/couple-registry/internal/infrastructure/sns"
	"github.com/couple-registry/internal/infrastructure/stripe"
)

// Deps holds all infrastructure dependencies for the router.
//
// CodeStore is an interface so the DynamoDB repo and the in-memory store are
// interchangeable; everything else is the concrete production adapter with a
// nil meaning "not configured, degrade gracefully" where the service allows it.
type Deps struct {
	CodeStore    verification.CodeStore
	CoupleRepo   *dynamo.CoupleRepo
	IdentityRepo *dynamo.IdentityRepo
	ChargeRepo   *dynamo.ChargeRepo
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender
	FaceDetector rekognition.FaceDetector
	Payments     stripe.Gateway
	JWTProvider  *jwtinfra.Provider

	FaceMatchThreshold   float64
	RegistrationFeeCents int64
	UpgradeFeeCents      int64
}
