package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	RekognitionRegion  string
	FaceMatchThreshold float64

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string
	RegistrationFeeCents int64
	UpgradeFeeCents      int64

	JWTPublicKeyPath string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Couples               string
	VerificationCodes     string
	IdentityVerifications string
	EmailClaims           string
	Charges               string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Couples:               getEnv("DYNAMO_TABLE_COUPLES", "couples"),
			VerificationCodes:     getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			IdentityVerifications: getEnv("DYNAMO_TABLE_IDENTITY_VERIFICATIONS", "identity_verifications"),
			EmailClaims:           getEnv("DYNAMO_TABLE_EMAIL_CLAIMS", "email_claims"),
			Charges:               getEnv("DYNAMO_TABLE_CHARGES", "charges"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "couple-registry-media"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		RekognitionRegion:  getEnv("REKOGNITION_REGION", "us-east-1"),
		FaceMatchThreshold: getEnvFloat("FACE_MATCH_THRESHOLD", 0.7),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeSuccessURL:     getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
		StripeCancelURL:      getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
		RegistrationFeeCents: getEnvInt64("REGISTRATION_FEE_CENTS", 2900),
		UpgradeFeeCents:      getEnvInt64("UPGRADE_FEE_CENTS", 900),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
