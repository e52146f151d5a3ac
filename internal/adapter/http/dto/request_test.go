package dto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/iho/democredit/internal/usecase"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Amount
	}{
		{"number", `{"amount": 100}`, "100"},
		{"fractional number", `{"amount": 12.34}`, "12.34"},
		{"numeric string", `{"amount": "250.50"}`, "250.50"},
		{"capitalised key", `{"Amount": 75}`, "75"},
		{"null", `{"amount": null}`, ""},
		{"missing", `{}`, ""},
		{"boolean kept verbatim", `{"amount": true}`, "true"},
		{"negative", `{"amount": -5}`, "-5"},
		{"exponent kept as written", `{"amount": 1e500000000}`, "1e500000000"},
		{"array kept verbatim", `{"amount": [1, 2]}`, "[1, 2]"},
		{"object kept verbatim", `{"amount": {}}`, "{}"},
		{"NaN string", `{"amount": "NaN"}`, "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req FundRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if req.Amount != tt.want {
				t.Fatalf("Amount = %q, want %q", req.Amount, tt.want)
			}
		})
	}
}

func TestFundRequest_Inputs(t *testing.T) {
	req := &FundRequest{Amount: "100"}

	if got := req.ToFundInput("8031234567"); got != (usecase.FundInput{AccountNo: "8031234567", Amount: "100"}) {
		t.Fatalf("ToFundInput() = %+v", got)
	}
	if got := req.ToWithdrawInput("8031234567"); got != (usecase.WithdrawInput{AccountNo: "8031234567", Amount: "100"}) {
		t.Fatalf("ToWithdrawInput() = %+v", got)
	}
}

func TestTransferRequest_ToUseCaseInput(t *testing.T) {
	var req TransferRequest
	if err := json.Unmarshal([]byte(`{"Amount": "20", "to": " 8039999999 "}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := req.ToUseCaseInput("8031234567")
	want := usecase.TransferInput{FromAccountNo: "8031234567", ToAccountNo: "8039999999", Amount: "20"}
	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestRegisterRequest_ToUseCaseInput(t *testing.T) {
	req := &RegisterRequest{
		Firstname:   " Ada ",
		Lastname:    "Lovelace",
		Username:    "ada",
		PhoneNumber: "+2348031234567",
		Password:    " Secret123",
	}

	got := req.ToUseCaseInput()
	if got.FirstName != "Ada" || got.PhoneNumber != "+2348031234567" {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Password != " Secret123" {
		t.Fatalf("password must be passed through untouched, got %q", got.Password)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"Firstname":"A","Lastname":"B","Username":"abc","PhoneNumber":"08031234567","Password":"x"}`, ""},
		{"empty body", ``, "request body is required"},
		{"malformed", `{"Firstname":`, "malformed JSON body"},
		{"missing field", `{"Firstname":"A","Lastname":"B","Username":"abc","Password":"x"}`, "PhoneNumber is required"},
		{"too long", `{"Firstname":"` + strings.Repeat("a", 101) + `","Lastname":"B","Username":"abc","PhoneNumber":"1","Password":"x"}`,
			"Firstname must be at most 100 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RegisterRequest
			err := Decode([]byte(tt.body), &req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	err := Validate(&LoginRequest{Username: "ada"})
	if !errors.Is(err, ErrInvalidRequest) || !strings.Contains(err.Error(), "Password is required") {
		t.Fatalf("unexpected error %v", err)
	}

	if err := Validate(&LoginRequest{Username: "ada", Password: "pw"}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
