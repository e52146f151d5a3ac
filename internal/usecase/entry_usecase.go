package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/democredit/internal/domain"
)

// EntryUseCase handles entry business logic.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntriesByAccountInput represents input for listing entries.
type GetEntriesByAccountInput struct {
	AccountNo string
	Limit     int
	Offset    int
}

// GetEntriesByAccount lists entries for an account.
func (uc *EntryUseCase) GetEntriesByAccount(ctx context.Context, input GetEntriesByAccountInput) ([]*domain.Entry, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.entryRepo.GetByAccount(ctx, input.AccountNo, input.Limit, input.Offset)
}

// GetEntriesByMovement lists entries written by a single operation.
func (uc *EntryUseCase) GetEntriesByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error) {
	return uc.entryRepo.GetByMovement(ctx, movementID)
}

// GetHistoricalBalance returns the balance at a specific point in time.
func (uc *EntryUseCase) GetHistoricalBalance(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error) {
	return uc.entryRepo.GetBalanceAtTime(ctx, accountNo, at)
}
