package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/morphid/biodid-middleware/pkg/app/errors"
	apphttp "github.com/morphid/biodid-middleware/pkg/app/http"
)

// TokenVerifier validates HMAC-signed service tokens used by the wallet
// backend to call management endpoints.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier for tokens signed with the shared
// secret and, when issuer is non-empty, restricted to that issuer.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses and validates a token string and returns its claims.
func (v *TokenVerifier) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	if v.issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != v.issuer {
			return nil, fmt.Errorf("invalid issuer")
		}
	}
	return claims, nil
}

// SignToken mints a token for the given subject. Used by tests and by the
// local development tooling.
func (v *TokenVerifier) SignToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// token subject in the request context.
func (v *TokenVerifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apphttp.WriteError(w, apperrors.UnAuthorizedError(nil, "bearer token required"))
			return
		}

		claims, err := v.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apphttp.WriteError(w, apperrors.UnAuthorizedError(err, "invalid token"))
			return
		}

		subject, _ := claims.GetSubject()
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}
