package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClaimsContextKey is the context key for the verified token claims
	ClaimsContextKey ContextKey = "claims"

	// AccountNoParam is the route parameter holding the account number.
	AccountNoParam = "accountNo"

	// OpsTokenHeader carries the operator token for ledger inspection routes.
	OpsTokenHeader = "X-Ops-Token"
)

// TokenVerifier is satisfied by *auth.JWTManager.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware requires a token issued for the account in the path.
// The token is read from the Authorization header or, failing that, from the
// cookie named after the account number that login sets.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountNo := chi.URLParam(r, AccountNoParam)

			tokenString, err := extractToken(r, accountNo)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, domain.MessageFor(err))
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, domain.MessageFor(err))
				return
			}

			if claims.AccountNo != accountNo {
				writeFailure(w, http.StatusForbidden, domain.MessageFor(domain.ErrForbidden))
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, accountNo string) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", domain.ErrInvalidToken
		}
		return strings.TrimSpace(parts[1]), nil
	}

	if accountNo != "" {
		if cookie, err := r.Cookie(accountNo); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}

	return "", domain.ErrUnauthorized
}

// GetClaimsFromContext extracts the verified claims from context
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}

// RequireOpsToken guards operator routes with a static shared token.
func RequireOpsToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(OpsTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeFailure(w, http.StatusUnauthorized, domain.MessageFor(domain.ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const msgInternal = "An Internal server error occurred"

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.Failure(message))
}
