package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Fund(ctx context.Context, input usecase.FundInput) (*domain.Account, error)
	Withdraw(ctx context.Context, input usecase.WithdrawInput) (*domain.Account, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
}

// Retrier re-runs an operation that failed with a transient storage error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// TransactionHandler serves fund, withdraw and transfer requests.
type TransactionHandler struct {
	txUC    TransactionService
	retrier Retrier
}

// NewTransactionHandler creates a new TransactionHandler. retrier may be nil.
func NewTransactionHandler(txUC TransactionService, retrier Retrier) *TransactionHandler {
	return &TransactionHandler{txUC: txUC, retrier: retrier}
}

func (h *TransactionHandler) run(ctx context.Context, operation func() error) error {
	if h.retrier == nil {
		return operation()
	}
	return h.retrier.Retry(ctx, operation)
}

// Fund credits the account in the path.
func (h *TransactionHandler) Fund(w http.ResponseWriter, r *http.Request) {
	var req dto.FundRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	accountNo := chi.URLParam(r, "accountNo")
	err := h.run(r.Context(), func() error {
		_, err := h.txUC.Fund(r.Context(), req.ToFundInput(accountNo))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Account funded successfully", nil)
}

// Withdraw debits the account in the path and returns its new balance.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.FundRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	accountNo := chi.URLParam(r, "accountNo")
	var account *domain.Account
	err := h.run(r.Context(), func() error {
		var err error
		account, err = h.txUC.Withdraw(r.Context(), req.ToWithdrawInput(accountNo))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Withdrawal successful", dto.BalanceFromDomain(account))
}

// Transfer moves funds from the account in the path to the account in the body.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	accountNo := chi.URLParam(r, "accountNo")
	err := h.run(r.Context(), func() error {
		_, err := h.txUC.Transfer(r.Context(), req.ToUseCaseInput(accountNo))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Transfer successful", nil)
}
