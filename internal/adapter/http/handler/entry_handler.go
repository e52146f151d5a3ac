package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/adapter/http/dto"
	"github.com/iho/democredit/internal/domain"
	"github.com/iho/democredit/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	GetEntriesByAccount(ctx context.Context, input usecase.GetEntriesByAccountInput) ([]*domain.Entry, error)
	GetHistoricalBalance(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.entryUC.GetEntriesByAccount(r.Context(), usecase.GetEntriesByAccountInput{
		AccountNo: accountNo,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Entries retrieved successfully", dto.EntriesResponse{
		AccountNo: accountNo,
		Entries:   dto.EntriesFromDomain(entries),
		Limit:     limit,
		Offset:    offset,
	})
}

// GetHistoricalBalance gets the balance at a specific time.
func (h *EntryHandler) GetHistoricalBalance(w http.ResponseWriter, r *http.Request) {
	accountNo := chi.URLParam(r, "accountNo")

	atStr := r.URL.Query().Get("at")
	if atStr == "" {
		writeError(w, r, fmt.Errorf("%w: at is required", dto.ErrInvalidRequest))
		return
	}

	at, err := time.Parse(time.RFC3339, atStr)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: at must be an RFC3339 timestamp", dto.ErrInvalidRequest))
		return
	}

	balance, err := h.entryUC.GetHistoricalBalance(r.Context(), accountNo, at)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Balance retrieved successfully", map[string]any{
		"AccountNo": accountNo,
		"at":        at,
		"Balance":   dto.Money(balance),
	})
}
