package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Validation constants
const (
	DefaultMinAmount     = "5"
	DefaultMaxAmount     = "2000000"
	AmountDecimalPlaces  = 2
	AccountNoLength      = 10
	MinUsernameLength    = 3
	MaxUsernameLength    = 50
	MinPasswordLength    = 8
	MaxPasswordLength    = 128
	MaxPageSize          = 1000
	DefaultPageSize      = 50
	MaxAmountLength      = 64
	minPhoneNumberDigits = 11
	maxPhoneNumberDigits = 14
)

var (
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
	accountNoRe   = regexp.MustCompile(`^[0-9]{10}$`)
	hasUpper      = regexp.MustCompile(`[A-Z]`)
	hasLower      = regexp.MustCompile(`[a-z]`)
	hasNumber     = regexp.MustCompile(`[0-9]`)
)

// AmountRangeError is returned when an amount falls outside the policy bounds.
type AmountRangeError struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (e *AmountRangeError) Error() string {
	return fmt.Sprintf("%s: must be between %s and %s", ErrAmountOutOfRange, e.Min, e.Max)
}

func (e *AmountRangeError) Unwrap() error {
	return ErrAmountOutOfRange
}

// Message renders the bounds with thousands grouping, e.g. "Amount must be between 5 and 2,000,000".
func (e *AmountRangeError) Message() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("Amount must be between %v and %v",
		number.Decimal(e.Min.InexactFloat64()), number.Decimal(e.Max.InexactFloat64()))
}

// AmountPolicy holds the inclusive bounds for a single operation amount.
type AmountPolicy struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// DefaultAmountPolicy accepts amounts between 5 and 2,000,000 inclusive.
func DefaultAmountPolicy() AmountPolicy {
	return AmountPolicy{
		Min: decimal.RequireFromString(DefaultMinAmount),
		Max: decimal.RequireFromString(DefaultMaxAmount),
	}
}

// NewAmountPolicy parses the bounds and checks that they are usable.
func NewAmountPolicy(minAmount, maxAmount string) (AmountPolicy, error) {
	lo, err := decimal.NewFromString(minAmount)
	if err != nil {
		return AmountPolicy{}, fmt.Errorf("parse min amount %q: %w", minAmount, err)
	}
	hi, err := decimal.NewFromString(maxAmount)
	if err != nil {
		return AmountPolicy{}, fmt.Errorf("parse max amount %q: %w", maxAmount, err)
	}
	if !lo.IsPositive() || lo.GreaterThan(hi) {
		return AmountPolicy{}, fmt.Errorf("invalid amount bounds [%s, %s]", lo, hi)
	}
	return AmountPolicy{Min: lo, Max: hi}, nil
}

// Parse turns raw input into an amount. The first failing rule wins:
// the value must be a finite positive number with at most two decimal places,
// then it must fall inside [Min, Max].
func (p AmountPolicy) Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxAmountLength {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	// Rounding or comparing rescales the coefficient to the exponent, so an
	// exponent like 1e500000000 has to be settled from digit counts alone.
	exp := int(amount.Exponent())
	if exp < -(MaxAmountLength + AmountDecimalPlaces) {
		return decimal.Zero, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountDecimalPlaces)
	}
	if amount.NumDigits()+exp > p.integerDigits() {
		return decimal.Zero, &AmountRangeError{Min: p.Min, Max: p.Max}
	}

	if !amount.Equal(amount.Round(AmountDecimalPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountDecimalPlaces)
	}

	if err := p.Check(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// integerDigits is the number of integer digits Max can have. Any amount
// with more integer digits is above Max.
func (p AmountPolicy) integerDigits() int {
	return p.Max.NumDigits() + int(p.Max.Exponent())
}

// Check validates bounds of an already parsed amount.
func (p AmountPolicy) Check(amount decimal.Decimal) error {
	if amount.LessThan(p.Min) || amount.GreaterThan(p.Max) {
		return &AmountRangeError{Min: p.Min, Max: p.Max}
	}
	return nil
}

// ValidateTransferPair rejects transfers without a recipient or to the sender itself.
func ValidateTransferPair(from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrMissingRecipient
	}
	if from == to {
		return ErrSelfTransfer
	}
	return nil
}

// ValidatePhoneNumber accepts an optional leading '+' followed by 11 to 14 digits.
func ValidatePhoneNumber(phone string) error {
	phone = strings.TrimSpace(phone)
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("%w: must contain digits only", ErrInvalidPhoneNumber)
	}

	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < minPhoneNumberDigits || len(digits) > maxPhoneNumberDigits {
		return fmt.Errorf("%w: must have between %d and %d digits",
			ErrInvalidPhoneNumber, minPhoneNumberDigits, maxPhoneNumberDigits)
	}

	return nil
}

// AccountNoFromPhone derives the account number from the last ten digits of the phone number.
func AccountNoFromPhone(phone string) (string, error) {
	if err := ValidatePhoneNumber(phone); err != nil {
		return "", err
	}
	digits := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	return digits[len(digits)-AccountNoLength:], nil
}

// IsAccountNo reports whether s has the shape of an account number.
func IsAccountNo(s string) bool {
	return accountNoRe.MatchString(s)
}

// ValidateUsername validates username
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: must be between %d and %d characters",
			ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits, '_' and '.' are allowed", ErrInvalidUsername)
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	if !hasUpper.MatchString(password) || !hasLower.MatchString(password) || !hasNumber.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// MessageFor returns the user-facing message for a rejection, or "" if err has none.
func MessageFor(err error) string {
	var rangeErr *AmountRangeError
	if errors.As(err, &rangeErr) {
		return rangeErr.Message()
	}

	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "Amount is required and must be a positive number"
	case errors.Is(err, ErrAmountOutOfRange):
		return "Amount is out of the allowed range"
	case errors.Is(err, ErrSelfTransfer):
		return "Cannot transfer to own account"
	case errors.Is(err, ErrMissingRecipient):
		return "Recipient account number is required"
	case errors.Is(err, ErrAccountNotFound):
		return "User not found"
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, ErrTransactionTimeout):
		return "Transaction timed out"
	case errors.Is(err, ErrAccountExists):
		return "Account already exists"
	case errors.Is(err, ErrBlacklisted):
		return "You cannot register an account with us currently. Please contact support."
	case errors.Is(err, ErrScreeningUnavailable):
		return "Error checking blacklist"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid Username or Password"
	case errors.Is(err, ErrForbidden):
		return "Access to this account is not allowed"
	case errors.Is(err, ErrExpiredToken), errors.Is(err, ErrInvalidToken):
		return "Token verification failed"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthenticated user"
	case errors.Is(err, ErrInvalidPhoneNumber), errors.Is(err, ErrInvalidUsername),
		errors.Is(err, ErrPasswordTooWeak):
		return capitalize(err.Error())
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
