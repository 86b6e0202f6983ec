package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsKey contextKey = "claims"

const issuer = "ocr-chat-service"

var (
	jwtSecret []byte
	tokenTTL  = 24 * time.Hour
)

var (
	ErrNotInitialized = errors.New("auth not initialized")
	ErrNoClaims       = errors.New("no session claims in context")
)

// Claims identifies a chat session
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Init sets the signing secret and token lifetime
func Init(secret string, ttl time.Duration) error {
	if len(secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	jwtSecret = []byte(secret)
	if ttl > 0 {
		tokenTTL = ttl
	}
	return nil
}

// GenerateToken signs a session token
func GenerateToken(sessionID string) (string, time.Time, error) {
	if len(jwtSecret) == 0 {
		return "", time.Time{}, ErrNotInitialized
	}

	now := time.Now()
	expires := now.Add(tokenTTL)
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ParseToken validates a session token
func ParseToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrNotInitialized
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, errors.New("token has no session")
	}
	return claims, nil
}

// JWTMiddleware requires a bearer token on every route except /health and
// session creation
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}

		claims, err := ParseToken(tokenString)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func isPublic(r *http.Request) bool {
	if r.URL.Path == "/health" {
		return true
	}
	return r.URL.Path == "/api/session" && r.Method == http.MethodPost
}

// GetClaimsFromContext returns the claims stored by JWTMiddleware
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
