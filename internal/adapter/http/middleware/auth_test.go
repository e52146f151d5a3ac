package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/infrastructure/auth"
)

func newAuthRouter(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()

	jwt := auth.NewJWTManager("test-secret", time.Hour)
	r := chi.NewRouter()
	r.With(AuthMiddleware(jwt)).Put("/api/fund/{accountNo}", func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		_, _ = w.Write([]byte(claims.AccountNo))
	})
	return r, jwt
}

func TestAuthMiddleware(t *testing.T) {
	router, jwt := newAuthRouter(t)

	own, err := jwt.Generate("8031234567", "+2348031234567")
	require.NoError(t, err)
	other, err := jwt.Generate("8039999999", "+2348039999999")
	require.NoError(t, err)
	expired, err := auth.NewJWTManager("test-secret", -time.Minute).Generate("8031234567", "+2348031234567")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		cookie      *http.Cookie
		wantStatus  int
		wantMessage string
	}{
		{name: "bearer token", header: "Bearer " + own, wantStatus: http.StatusOK},
		{name: "cookie named after account", cookie: &http.Cookie{Name: "8031234567", Value: own}, wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized, wantMessage: "Unauthenticated user"},
		{name: "cookie for another account ignored", cookie: &http.Cookie{Name: "8039999999", Value: other},
			wantStatus: http.StatusUnauthorized, wantMessage: "Unauthenticated user"},
		{name: "malformed header", header: "Token " + own, wantStatus: http.StatusUnauthorized, wantMessage: "Token verification failed"},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantMessage: "Token verification failed"},
		{name: "token for another account", header: "Bearer " + other, wantStatus: http.StatusForbidden,
			wantMessage: "Access to this account is not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/fund/8031234567", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "8031234567", rec.Body.String())
				return
			}

			var resp dto.Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Successful)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestRequireOpsToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		configured string
		sent       string
		wantStatus int
	}{
		{"matching token", "ops-secret", "ops-secret", http.StatusOK},
		{"wrong token", "ops-secret", "guess", http.StatusUnauthorized},
		{"missing token", "ops-secret", "", http.StatusUnauthorized},
		{"unconfigured rejects everything", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ledger/consistency", nil)
			if tt.sent != "" {
				req.Header.Set(OpsTokenHeader, tt.sent)
			}
			rec := httptest.NewRecorder()
			RequireOpsToken(tt.configured)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
