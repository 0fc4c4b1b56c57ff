package http

import (
	"net/http"
	"time"
)

type HealthResponseDTO struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	BoldIdentityKey bool   `json:"boldIdentityKey"`
	BoldSecretKey   bool   `json:"boldSecretKey"`
	Timestamp       string `json:"timestamp"`
}

// HealthHandler reports liveness and which provider keys are configured, never their values.
func HealthHandler(identityKeySet, secretKeySet bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponseDTO{
			Status:          "ok",
			Message:         "Servidor Deiiwo Coffee activo",
			BoldIdentityKey: identityKeySet,
			BoldSecretKey:   secretKeySet,
			Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}
