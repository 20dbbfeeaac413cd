package http

import (
	"net/http"

	"github.com/couple-registry/internal/application/couple"
	"github.com/couple-registry/internal/application/identity"
	"github.com/couple-registry/internal/application/payment"
	"github.com/couple-registry/internal/application/verification"
	"github.com/couple-registry/internal/config"
	jwtinfra "github.com/couple-registry/internal/infrastructure/jwt"
	"github.com/couple-registry/internal/transport/http/handler"
	appmiddleware "github.com/couple-registry/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to code-issuing and
	// registration endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	coupleSvc := couple.NewService(deps.CoupleRepo, deps.S3Store)
	verificationSvc := verification.NewService(deps.CodeStore, deps.Mailer, deps.SMSSender, coupleSvc)
	identitySvc := identity.NewService(deps.FaceDetector, deps.IdentityRepo, deps.S3Store, coupleSvc, deps.FaceMatchThreshold)
	paymentSvc := payment.NewService(deps.Payments, deps.ChargeRepo, coupleSvc, deps.RegistrationFeeCents, deps.UpgradeFeeCents)

	healthH := handler.NewHealthHandler()
	verificationH := handler.NewVerificationHandler(verificationSvc)
	identityH := handler.NewIdentityHandler(identitySvc)
	coupleH := handler.NewCoupleHandler(coupleSvc, paymentSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/verify/email/request", verificationH.RequestEmail)
		r.Post("/verify/email/confirm", verificationH.ConfirmEmail)
		r.With(sensitiveRL.Limit).Post("/verify/sms/request", verificationH.RequestSMS)
		r.Post("/verify/sms/confirm", verificationH.ConfirmSMS)

		r.Post("/verify/id/upload", identityH.Upload)
		r.Post("/verify/face", identityH.Face)

		r.With(sensitiveRL.Limit).Post("/couples", coupleH.Create)
		r.Post("/couples/{id}/verify", coupleH.Verify)
		r.Post("/couples/{id}/upgrade", coupleH.Upgrade)
		r.Post("/couples/{id}/photos", coupleH.AddPhoto)
		r.Put("/couples/{id}/customize", coupleH.Customize)
		r.Get("/couples/{id}/profile", coupleH.Profile)
		r.Delete("/couples/{id}", coupleH.Delete)

		r.Get("/search", coupleH.Search)
		r.Get("/couple/{id}", coupleH.Get)

		r.Post("/payments/webhook", paymentH.Webhook)

		// Manual adjudication requires the reviewer role.
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(appmiddleware.RequireRole(jwtinfra.RoleAdmin))

			r.Post("/admin/approve-id", identityH.Approve)
		})
	})

	return r
}
