package http

import (
	"net/http"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/eltovar/DeiiwoCoffee/internal/notifier"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouterDeps struct {
	Registry       *checkout.Registry
	Estimator      checkout.QuoteEstimator
	Links          LinkCreator
	Notifier       CallbackHandler
	Signature      notifier.SignaturePolicy
	Limiter        *rate.Limiter
	RequestTimeout time.Duration
	IdentityKeySet bool
	SecretKeySet   bool
	Logger         *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Limiter == nil {
		d.Limiter = rate.NewLimiter(rate.Inf, 0)
	}

	cartHandler := NewCartHandler(d.RequestTimeout, logger)
	prefsHandler := NewPreferencesHandler(d.RequestTimeout, logger)
	shippingHandler := NewShippingHandler(d.Estimator, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.RequestTimeout, logger)
	paymentHandler := NewPaymentHandler(d.Links, d.RequestTimeout, logger)
	webhookHandler := NewWebhookHandler(d.Signature, d.Notifier, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", HealthHandler(d.IdentityKeySet, d.SecretKeySet))

	limited := RateLimitMiddleware(d.Limiter)

	// Legacy paths kept for storefront builds that predate /api/v1.
	r.Post("/webhook-bold", webhookHandler.Receive)
	r.With(limited).Post("/create-payment-link", paymentHandler.CreateLink)

	r.Route("/api/v1", func(r chi.Router) {
		// Provider callbacks are never rate limited.
		r.Post("/payments/webhook", webhookHandler.Receive)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/payments/create-link", paymentHandler.CreateLink)

			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(d.Registry, logger))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartHandler.GetCart)
					r.Delete("/", cartHandler.ClearCart)
					r.Post("/items", cartHandler.AddItem)
					r.Patch("/items/{name}", cartHandler.UpdateQuantity)
					r.Delete("/items/{name}", cartHandler.RemoveItem)
					r.Get("/whatsapp", cartHandler.WhatsAppLink)
				})

				r.Get("/preferences/language", prefsHandler.GetLanguage)
				r.Put("/preferences/language", prefsHandler.SetLanguage)

				r.Post("/shipping/quote", shippingHandler.Quote)

				r.Route("/checkout", func(r chi.Router) {
					r.Get("/", checkoutHandler.GetState)
					r.Post("/open", checkoutHandler.Open)
					r.Post("/next", checkoutHandler.Next)
					r.Post("/back", checkoutHandler.Back)
					r.Post("/close", checkoutHandler.Close)
					r.Put("/details", checkoutHandler.UpdateDetails)
					r.Post("/pay", checkoutHandler.Pay)
				})
			})
		})
	})

	return r
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())),
			)
		})
	}
}
