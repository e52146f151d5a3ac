package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/usecase"
)

// ReconciliationService defines the behavior needed by LedgerHandler.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	ReconcileAccount(ctx context.Context, accountNo string) (*usecase.ReconciliationResult, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	reconciliationUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC}
}

// CheckConsistency reports whether every balance matches its entries.
// An inconsistent ledger answers 409 with the full report.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dto.ReconciliationFromReport(report)
	if !resp.Consistent {
		writeJSON(w, http.StatusConflict, dto.Envelope{
			Successful: false,
			Message:    "Ledger is inconsistent",
			Data:       resp,
		})
		return
	}

	writeSuccess(w, http.StatusOK, "Ledger is consistent", resp)
}

// ReconcileAccount compares one account's balance with the sum of its entries.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), chi.URLParam(r, "accountNo"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Account reconciled", dto.DiscrepancyFromResult(result))
}
