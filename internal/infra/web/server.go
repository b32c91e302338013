package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"partner-subscription-platform/internal/config"
	"partner-subscription-platform/internal/usecase"
)

type Server struct {
	checkoutUC usecase.CheckoutUseCase
	paymentUC  usecase.PaymentUseCase
	subUC      usecase.SubscriptionUseCase
	auth       *AuthManager
	cfg        config.PaymentConfig
	adminKey   string
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	paymentUC usecase.PaymentUseCase,
	subUC usecase.SubscriptionUseCase,
	auth *AuthManager,
	cfg config.PaymentConfig,
	adminKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC: checkoutUC,
		paymentUC:  paymentUC,
		subUC:      subUC,
		auth:       auth,
		cfg:        cfg,
		adminKey:   adminKey,
		log:        logger,
	}
}

// Router assembles the full HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(30*time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Webhooks authenticate with their checksum, not a bearer token.
		r.Post("/webhooks/payments", s.handleWebhook)

		r.Get("/subscriptions/status", s.handleEntityStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireUser)
			r.Post("/checkout", s.handleCheckout)
			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Post("/subscriptions/{id}/cancel", s.handleCancel)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(s.adminKey))
			r.Post("/payments/{id}/override", s.handleOverride)
			r.Delete("/payments/{id}", s.handlePurge)
			r.Post("/subscriptions", s.handleGrant)
			r.Post("/subscriptions/{id}/cancel", s.handleAdminCancel)
		})
	})

	return r
}
