package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/usecase"
)

// LoginService defines the behavior needed by AuthHandler.
type LoginService interface {
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	loginUC      LoginService
	cookieTTL    time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. The session cookie lives as long as the token.
func NewAuthHandler(loginUC LoginService, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		loginUC:      loginUC,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
	}
}

// Login checks credentials, returns a token and stores it in a cookie named
// after the account number so browser clients can call the account routes.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.loginUC.Login(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     result.Account.AccountNo,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeSuccess(w, http.StatusCreated, "Login successful", dto.LoginResponse{
		Token:     result.Token,
		AccountNo: result.Account.AccountNo,
	})
}
