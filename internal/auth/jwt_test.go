package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/facturaIA/ocr-chat-service/internal/logging"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	if err := Init(testSecret, time.Hour); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestInitRejectsShortSecret(t *testing.T) {
	if err := Init("short", 0); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, expires, err := GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expiry should be in the future")
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.SessionID != "session-1" {
		t.Fatalf("SessionID = %q", claims.SessionID)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, _ := expired.SignedString([]byte(testSecret))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SessionID: "s",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	foreignToken, _ := foreign.SignedString([]byte("another-secret-another-secret-xx"))

	for name, tok := range map[string]string{
		"expired": expiredToken,
		"foreign": foreignToken,
		"garbage": "not.a.token",
	} {
		if _, err := ParseToken(tok); err == nil {
			t.Errorf("%s token should be rejected", name)
		}
	}
}

func TestJWTMiddleware(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := JWTMiddleware(next)

	// public routes
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodPost, "/api/session", nil),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s %s should be public, got %d", req.Method, req.URL.Path, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should be rejected, got %d", rec.Code)
	}

	token, _, _ := GenerateToken("abc")
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen == nil || seen.SessionID != "abc" {
		t.Fatalf("valid token should pass with claims, got %d %+v", rec.Code, seen)
	}
}

func TestGetClaimsFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := GetClaimsFromContext(req.Context()); !errors.Is(err, ErrNoClaims) {
		t.Fatalf("expected ErrNoClaims, got %v", err)
	}
}

func TestSessionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	SessionHandler(rec, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader("")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := ParseToken(resp.Token)
	if err != nil || claims.SessionID != resp.SessionID {
		t.Fatalf("issued token does not match session: %v %+v", err, claims)
	}
}
