package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/democredit/internal/domain"
)

// AccountUseCase handles registration, login and account views.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	screening   ScreeningService
	tokens      TokenIssuer
	hashCost    int
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	screening ScreeningService,
	tokens TokenIssuer,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		screening:   screening,
		tokens:      tokens,
		hashCost:    bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost, mainly to keep tests fast.
func (uc *AccountUseCase) WithHashCost(cost int) *AccountUseCase {
	uc.hashCost = cost
	return uc
}

// RegisterInput represents input for opening an account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Username    string
	PhoneNumber string
	Password    string
}

// Register screens the identity and creates an account with a zero balance.
func (uc *AccountUseCase) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	accountNo, err := domain.AccountNoFromPhone(input.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := uc.screening.Check(ctx, input.PhoneNumber); err != nil {
		return nil, err
	}

	if err := uc.ensureAvailable(ctx, username, accountNo); err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.Password, uc.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		AccountNo:    accountNo,
		Username:     username,
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewAccountCreatedEvent(uc.idGen.Generate(), account)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	account.PasswordHash = ""
	return account, nil
}

func (uc *AccountUseCase) ensureAvailable(ctx context.Context, username, accountNo string) error {
	if _, err := uc.accountRepo.GetByUsername(ctx, username); err == nil {
		return domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	if _, err := uc.accountRepo.GetByAccountNo(ctx, accountNo); err == nil {
		return domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	return nil
}

// LoginInput represents login credentials.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the session token for the authenticated account.
type LoginResult struct {
	Account *domain.Account
	Token   string
}

// Login verifies credentials and issues a token bound to the account number.
func (uc *AccountUseCase) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := uc.accountRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := verifyPassword(account.PasswordHash, input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(account.AccountNo, account.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	account.PasswordHash = ""
	return &LoginResult{Account: account, Token: token}, nil
}

// GetAccount retrieves an account by number without locking it.
func (uc *AccountUseCase) GetAccount(ctx context.Context, accountNo string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByAccountNo(ctx, accountNo)
	if err != nil {
		return nil, err
	}

	account.PasswordHash = ""
	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	accounts, err := uc.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, account := range accounts {
		account.PasswordHash = ""
	}

	return accounts, nil
}

// hashPassword hashes a password using bcrypt
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword verifies a password against a hash
func verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
