package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couple-registry/internal/application/verification"
	"github.com/couple-registry/internal/config"
	"github.com/couple-registry/internal/infrastructure/dynamo"
	jwtinfra "github.com/couple-registry/internal/infrastructure/jwt"
	"github.com/couple-registry/internal/infrastructure/memstore"
	"github.com/couple-registry/internal/infrastructure/rekognition"
	s3infra "github.com/couple-registry/internal/infrastructure/s3"
	"github.com/couple-registry/internal/infrastructure/smtp"
	"github.com/couple-registry/internal/infrastructure/sns"
	"github.com/couple-registry/internal/infrastructure/stripe"
	transporthttp "github.com/couple-registry/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider for admin review routes (optional — routes stay locked
	// without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for ID documents, selfies and gallery photos.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — codes stay redeemable without delivery).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Face-detection oracle (optional — submissions queue for manual review).
	var detector rekognition.FaceDetector
	if d, err := rekognition.NewDetector(cfg); err == nil {
		detector = d
	} else {
		log.Printf("WARN: Rekognition detector not available: %v", err)
	}

	// Verification codes: DynamoDB in any deployed environment, in-memory
	// when pointed at nothing (local hacking without LocalStack).
	var codeStore verification.CodeStore = dynamo.NewCodeRepo(dynamoClient, cfg.DynamoTables.VerificationCodes)
	if cfg.AppEnv == "development" && cfg.AWSEndpointURL == "" && cfg.AWSAccessKeyID == "" {
		log.Println("WARN: using in-memory verification code store")
		codeStore = memstore.NewCodeStore()
	}

	deps := &transporthttp.Deps{
		CodeStore:    codeStore,
		CoupleRepo:   dynamo.NewCoupleRepo(dynamoClient, cfg.DynamoTables.Couples, cfg.DynamoTables.EmailClaims),
		IdentityRepo: dynamo.NewIdentityRepo(dynamoClient, cfg.DynamoTables.IdentityVerifications),
		ChargeRepo:   dynamo.NewChargeRepo(dynamoClient, cfg.DynamoTables.Charges),
		S3Store:      s3Store,
		Mailer:       mailer,
		SMSSender:    smsSender,
		FaceDetector: detector,
		Payments:     stripe.NewGateway(cfg),
		JWTProvider:  jwtProvider,

		FaceMatchThreshold:   cfg.FaceMatchThreshold,
		RegistrationFeeCents: cfg.RegistrationFeeCents,
		UpgradeFeeCents:      cfg.UpgradeFeeCents,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
