package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const clientContextKey = contextKey("clientID")

// dummyHash is compared against when the client id is unknown so both
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-client"), bcrypt.MinCost)

// Claims represents the JWT payload; the subject is the client id.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenRequest is the body of POST /api/auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// HashSecret returns the bcrypt hash to configure for a client secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

func (s *Server) authEnabled() bool { return s.cfg.JWTSecret != "" }

// generateToken creates a signed token for a client.
func (s *Server) generateToken(clientID string) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) handleToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			respondError(w, http.StatusNotFound, "authentication is disabled")
			return
		}

		var req TokenRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ClientID == "" || req.ClientSecret == "" {
			respondError(w, http.StatusBadRequest, "client_id and client_secret are required")
			return
		}

		hash, known := s.cfg.Clients[req.ClientID]
		if !known {
			hash = string(dummyHash)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.ClientSecret)); err != nil || !known {
			s.logger.Warn("token request rejected", "client_id", req.ClientID)
			respondError(w, http.StatusUnauthorized, "invalid client credentials")
			return
		}

		token, err := s.generateToken(req.ClientID)
		if err != nil {
			s.logger.Error("failed to sign token", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to generate token")
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(s.cfg.TokenTTL.Seconds()),
		})
	}
}

// requireAuth verifies the bearer token. With no secret configured every
// request passes as the "local" client.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientContextKey, "local")))
			return
		}

		tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			respondError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return []byte(s.cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil || !token.Valid || claims.Subject == "" {
			respondError(w, http.StatusUnauthorized, "invalid authentication token")
			return
		}

		ctx := context.WithValue(r.Context(), clientContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientID extracts the authenticated client id from the request context.
func clientID(r *http.Request) string {
	if v, ok := r.Context().Value(clientContextKey).(string); ok {
		return v
	}
	return ""
}
