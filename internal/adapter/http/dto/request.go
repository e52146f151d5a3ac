package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/iho/democredit/internal/usecase"
)

// ErrInvalidRequest marks a request body that could not be decoded or failed validation.
var ErrInvalidRequest = errors.New("invalid request")

// Amount is the raw amount as sent by the client. Both JSON numbers and
// numeric strings are accepted; parsing and range checks happen in the engine.
type Amount string

// UnmarshalJSON keeps the literal text of a number and the contents of a string.
// Any other JSON value is kept verbatim so the engine rejects it as an invalid amount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		*a = Amount(b)
	}
	return nil
}

// String returns the raw amount.
func (a Amount) String() string {
	return string(a)
}

// FundRequest is the body of fund and withdraw requests.
type FundRequest struct {
	Amount Amount `json:"amount"`
}

// ToFundInput converts the request for the account in the path.
func (r *FundRequest) ToFundInput(accountNo string) usecase.FundInput {
	return usecase.FundInput{AccountNo: accountNo, Amount: r.Amount.String()}
}

// ToWithdrawInput converts the request for the account in the path.
func (r *FundRequest) ToWithdrawInput(accountNo string) usecase.WithdrawInput {
	return usecase.WithdrawInput{AccountNo: accountNo, Amount: r.Amount.String()}
}

// TransferRequest is the body of a transfer request.
type TransferRequest struct {
	Amount Amount `json:"amount"`
	To     string `json:"to"`
}

// ToUseCaseInput converts the request for the sender in the path.
func (r *TransferRequest) ToUseCaseInput(fromAccountNo string) usecase.TransferInput {
	return usecase.TransferInput{
		FromAccountNo: fromAccountNo,
		ToAccountNo:   strings.TrimSpace(r.To),
		Amount:        r.Amount.String(),
	}
}

// RegisterRequest is the body of an account registration.
type RegisterRequest struct {
	Firstname   string `json:"Firstname"   validate:"required,max=100"`
	Lastname    string `json:"Lastname"    validate:"required,max=100"`
	Username    string `json:"Username"    validate:"required"`
	PhoneNumber string `json:"PhoneNumber" validate:"required"`
	Password    string `json:"Password"    validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		FirstName:   strings.TrimSpace(r.Firstname),
		LastName:    strings.TrimSpace(r.Lastname),
		Username:    strings.TrimSpace(r.Username),
		PhoneNumber: strings.TrimSpace(r.PhoneNumber),
		Password:    r.Password,
	}
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Username string `json:"Username" validate:"required"`
	Password string `json:"Password" validate:"required"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.LoginInput {
	return usecase.LoginInput{Username: strings.TrimSpace(r.Username), Password: r.Password}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the struct tags of payload and reports the first failure
// as a client-facing message wrapped in ErrInvalidRequest.
func Validate(payload any) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, formatFieldError(fieldErrs[0]))
	}
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
}

// Decode reads a JSON body into dst and validates its tags.
func Decode(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: request body is required", ErrInvalidRequest)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", ErrInvalidRequest)
	}
	return Validate(dst)
}
