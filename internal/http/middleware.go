package http

import (
	"context"
	"net/http"
	"regexp"

	"github.com/eltovar/DeiiwoCoffee/internal/checkout"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	RequestIDHeader = "X-Request-ID"
	SessionIDHeader = "X-Session-ID"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionKey
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = "req-" + uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionMiddleware resolves the visitor's session from X-Session-ID, creating one when the header
// is missing or malformed. The id in use is always echoed back.
func SessionMiddleware(registry *checkout.Registry, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionIDHeader)
			if !sessionIDPattern.MatchString(id) {
				id = uuid.NewString()
			}

			sess, err := registry.Get(r.Context(), id)
			if err != nil {
				logger.Error("failed to load session", zap.String("session_id", id), zap.Error(err))
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			w.Header().Set(SessionIDHeader, id)
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware rejects requests beyond the shared token bucket with 429.
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func sessionFromContext(ctx context.Context) *checkout.Session {
	if s, ok := ctx.Value(sessionKey).(*checkout.Session); ok {
		return s
	}
	return nil
}
