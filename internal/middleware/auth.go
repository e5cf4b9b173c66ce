package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
	"github.com/routepulse/server/internal/errs"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware extracts a bearer token from the Authorization header,
// verifies it, and attaches the resulting claims to the request context.
// Requests without a valid token are rejected before any handler runs.
// Tokens are self-contained; no user lookup happens here.
func AuthMiddleware(tokens *auth.TokenService, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				respondWithError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				// expired and invalid are logged apart but surface identically
				if errors.Is(err, errs.ErrTokenExpired) {
					log.Debug("rejected expired token", zap.String("path", r.URL.Path))
				} else {
					log.Debug("rejected invalid token", zap.String("path", r.URL.Path))
				}
				respondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the identity claims attached by AuthMiddleware.
func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]string{"error": message}
	_ = json.NewEncoder(w).Encode(response)
}
