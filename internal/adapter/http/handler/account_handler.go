package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error)
	GetAccount(ctx context.Context, accountNo string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Register opens an account with a zero balance.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := h.accountUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Account created successfully", dto.AccountFromDomain(account))
}

// Get retrieves an account by number.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), chi.URLParam(r, "accountNo"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Account retrieved successfully", dto.AccountFromDomain(account))
}

// List pages through all accounts. Mounted on the operator routes only.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]*dto.AccountResponse, len(accounts))
	for i, a := range accounts {
		views[i] = dto.AccountFromDomain(a)
	}
	writeSuccess(w, http.StatusOK, "Accounts retrieved successfully", views)
}
