package domain

import "errors"

var (
	// Amount errors
	ErrInvalidAmount    = errors.New("amount must be a positive number")
	ErrAmountOutOfRange = errors.New("amount out of allowed range")

	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transfer errors
	ErrSelfTransfer     = errors.New("cannot transfer to own account")
	ErrMissingRecipient = errors.New("recipient account is required")

	// Engine errors
	ErrStorageFailure     = errors.New("storage failure")
	ErrTransactionTimeout = errors.New("transaction timed out")

	// Registration errors
	ErrInvalidPhoneNumber   = errors.New("invalid phone number")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrPasswordTooWeak      = errors.New("password does not meet requirements")
	ErrBlacklisted          = errors.New("identity is blacklisted")
	ErrScreeningUnavailable = errors.New("blacklist screening failed")

	// Authentication errors
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrForbidden          = errors.New("token does not grant access to this account")
)

// Kind is a stable label for an error class, used in logs and metrics.
type Kind string

const (
	KindNone                Kind = "none"
	KindInvalidAmount       Kind = "invalid_amount"
	KindAmountOutOfRange    Kind = "amount_out_of_range"
	KindSelfTransfer        Kind = "self_transfer"
	KindMissingRecipient    Kind = "missing_recipient"
	KindAccountNotFound     Kind = "account_not_found"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindTimeout             Kind = "timeout"
	KindStorage             Kind = "storage"
	KindUnauthorized        Kind = "unauthorized"
	KindUnknown             Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrAmountOutOfRange, KindAmountOutOfRange},
	{ErrSelfTransfer, KindSelfTransfer},
	{ErrMissingRecipient, KindMissingRecipient},
	{ErrAccountNotFound, KindAccountNotFound},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrTransactionTimeout, KindTimeout},
	{ErrStorageFailure, KindStorage},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidToken, KindUnauthorized},
	{ErrExpiredToken, KindUnauthorized},
}

// KindOf classifies err. A nil error is KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsRejection reports whether err is a business-rule rejection that left the store untouched
// and must not be retried.
func IsRejection(err error) bool {
	switch KindOf(err) {
	case KindInvalidAmount, KindAmountOutOfRange, KindSelfTransfer, KindMissingRecipient,
		KindAccountNotFound, KindInsufficientBalance:
		return true
	}
	return false
}
