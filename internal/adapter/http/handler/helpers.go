package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/domain"
)

const (
	maxBodyBytes = 1 << 20

	msgInternal    = "An Internal server error occurred"
	msgInvalidBody = "Invalid request body"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Success(message, data))
}

// writeFailure writes a failed envelope.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.Failure(message))
}

// writeError maps err to a status and message. Server-side failures are logged
// with the request-scoped logger and never leak their cause to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("kind", string(domain.KindOf(err))).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeFailure(w, status, message)
}

// mapDomainError maps domain errors to HTTP status codes and client messages.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, dto.ErrInvalidRequest):
		return http.StatusBadRequest, requestMessage(err)
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountOutOfRange),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrMissingRecipient),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInvalidPhoneNumber),
		errors.Is(err, domain.ErrInvalidUsername),
		errors.Is(err, domain.ErrPasswordTooWeak):
		return http.StatusBadRequest, domain.MessageFor(err)
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, domain.MessageFor(err)
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, domain.MessageFor(err)
	case errors.Is(err, domain.ErrBlacklisted), errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.MessageFor(err)
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.MessageFor(err)
	case errors.Is(err, domain.ErrTransactionTimeout):
		return http.StatusGatewayTimeout, domain.MessageFor(err)
	case errors.Is(err, domain.ErrScreeningUnavailable):
		return http.StatusInternalServerError, domain.MessageFor(err)
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// requestMessage strips the sentinel prefix from a request decoding error.
func requestMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), dto.ErrInvalidRequest.Error()+": ")
	if msg == "" || msg == err.Error() {
		return msgInvalidBody
	}
	return msg
}

// decodeBody reads at most maxBodyBytes and decodes them into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: request body too large", dto.ErrInvalidRequest)
	}
	return dto.Decode(body, dst)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
