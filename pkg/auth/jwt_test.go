package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenVerifier("test-secret", "biodid")

	token, err := v.SignToken("wallet-backend", time.Minute)
	if err != nil {
		t.Fatalf("SignToken() failed: %v", err)
	}

	claims, err := v.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	subject, err := claims.GetSubject()
	if err != nil || subject != "wallet-backend" {
		t.Fatalf("unexpected subject %q (err %v)", subject, err)
	}
	issuer, err := claims.GetIssuer()
	if err != nil || issuer != "biodid" {
		t.Fatalf("unexpected issuer %q (err %v)", issuer, err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewTokenVerifier("secret-a", "biodid").SignToken("ops", time.Minute)
	if err != nil {
		t.Fatalf("SignToken() failed: %v", err)
	}

	if _, err := NewTokenVerifier("secret-b", "biodid").ValidateToken(token); err == nil {
		t.Fatalf("token signed with a different secret must not validate")
	}
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	token, err := NewTokenVerifier("test-secret", "someone-else").SignToken("ops", time.Minute)
	if err != nil {
		t.Fatalf("SignToken() failed: %v", err)
	}

	if _, err := NewTokenVerifier("test-secret", "biodid").ValidateToken(token); err == nil {
		t.Fatalf("token with a different issuer must not validate")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	v := NewTokenVerifier("test-secret", "")

	token, err := v.SignToken("ops", -time.Minute)
	if err != nil {
		t.Fatalf("SignToken() failed: %v", err)
	}

	if _, err := v.ValidateToken(token); err == nil {
		t.Fatalf("expired token must not validate")
	}
}

func TestMiddleware(t *testing.T) {
	v := NewTokenVerifier("test-secret", "biodid")

	var gotSubject string
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := v.SignToken("wallet-backend", time.Minute)
		if err != nil {
			t.Fatalf("SignToken() failed: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if gotSubject != "wallet-backend" {
			t.Fatalf("handler saw subject %q", gotSubject)
		}
	})
}
