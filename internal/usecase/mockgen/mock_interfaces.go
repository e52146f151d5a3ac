//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mockgen/mock_interfaces.go -package=mockgen
//

// Package mockgen is a generated GoMock package.
package mockgen

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/iho/democredit/internal/domain"
	usecase "github.com/iho/democredit/internal/usecase"
	decimal "github.com/shopspring/decimal"
	gomock "go.uber.org/mock/gomock"
)

// MockAccountRepository is a mock of AccountRepository interface.
type MockAccountRepository struct {
	ctrl     *gomock.Controller
	recorder *MockAccountRepositoryMockRecorder
	isgomock struct{}
}

// MockAccountRepositoryMockRecorder is the mock recorder for MockAccountRepository.
type MockAccountRepositoryMockRecorder struct {
	mock *MockAccountRepository
}

// NewMockAccountRepository creates a new mock instance.
func NewMockAccountRepository(ctrl *gomock.Controller) *MockAccountRepository {
	mock := &MockAccountRepository{ctrl: ctrl}
	mock.recorder = &MockAccountRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAccountRepository) EXPECT() *MockAccountRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, account)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockAccountRepositoryMockRecorder) Create(ctx, tx, account any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockAccountRepository)(nil).Create), ctx, tx, account)
}

// GetByAccountNo mocks base method.
func (m *MockAccountRepository) GetByAccountNo(ctx context.Context, accountNo string) (*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByAccountNo", ctx, accountNo)
	ret0, _ := ret[0].(*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByAccountNo indicates an expected call of GetByAccountNo.
func (mr *MockAccountRepositoryMockRecorder) GetByAccountNo(ctx, accountNo any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByAccountNo", reflect.TypeOf((*MockAccountRepository)(nil).GetByAccountNo), ctx, accountNo)
}

// GetByAccountNoForUpdate mocks base method.
func (m *MockAccountRepository) GetByAccountNoForUpdate(ctx context.Context, tx usecase.Transaction, accountNo string) (*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByAccountNoForUpdate", ctx, tx, accountNo)
	ret0, _ := ret[0].(*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByAccountNoForUpdate indicates an expected call of GetByAccountNoForUpdate.
func (mr *MockAccountRepositoryMockRecorder) GetByAccountNoForUpdate(ctx, tx, accountNo any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByAccountNoForUpdate", reflect.TypeOf((*MockAccountRepository)(nil).GetByAccountNoForUpdate), ctx, tx, accountNo)
}

// GetByUsername mocks base method.
func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByUsername", ctx, username)
	ret0, _ := ret[0].(*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByUsername indicates an expected call of GetByUsername.
func (mr *MockAccountRepositoryMockRecorder) GetByUsername(ctx, username any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByUsername", reflect.TypeOf((*MockAccountRepository)(nil).GetByUsername), ctx, username)
}

// List mocks base method.
func (m *MockAccountRepository) List(ctx context.Context, limit int, offset int) ([]*domain.Account, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx, limit, offset)
	ret0, _ := ret[0].([]*domain.Account)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List.
func (mr *MockAccountRepositoryMockRecorder) List(ctx, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockAccountRepository)(nil).List), ctx, limit, offset)
}

// UpdateBalance mocks base method.
func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, accountNo string, balance decimal.Decimal, updatedAt time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateBalance", ctx, tx, accountNo, balance, updatedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateBalance indicates an expected call of UpdateBalance.
func (mr *MockAccountRepositoryMockRecorder) UpdateBalance(ctx, tx, accountNo, balance, updatedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateBalance", reflect.TypeOf((*MockAccountRepository)(nil).UpdateBalance), ctx, tx, accountNo, balance, updatedAt)
}

// MockEntryRepository is a mock of EntryRepository interface.
type MockEntryRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEntryRepositoryMockRecorder
	isgomock struct{}
}

// MockEntryRepositoryMockRecorder is the mock recorder for MockEntryRepository.
type MockEntryRepositoryMockRecorder struct {
	mock *MockEntryRepository
}

// NewMockEntryRepository creates a new mock instance.
func NewMockEntryRepository(ctrl *gomock.Controller) *MockEntryRepository {
	mock := &MockEntryRepository{ctrl: ctrl}
	mock.recorder = &MockEntryRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockEntryRepository) EXPECT() *MockEntryRepositoryMockRecorder {
	return m.recorder
}

// Create mocks base method.
func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, entry)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create.
func (mr *MockEntryRepositoryMockRecorder) Create(ctx, tx, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockEntryRepository)(nil).Create), ctx, tx, entry)
}

// GetBalanceAtTime mocks base method.
func (m *MockEntryRepository) GetBalanceAtTime(ctx context.Context, accountNo string, at time.Time) (decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetBalanceAtTime", ctx, accountNo, at)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetBalanceAtTime indicates an expected call of GetBalanceAtTime.
func (mr *MockEntryRepositoryMockRecorder) GetBalanceAtTime(ctx, accountNo, at any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetBalanceAtTime", reflect.TypeOf((*MockEntryRepository)(nil).GetBalanceAtTime), ctx, accountNo, at)
}

// GetByAccount mocks base method.
func (m *MockEntryRepository) GetByAccount(ctx context.Context, accountNo string, limit int, offset int) ([]*domain.Entry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByAccount", ctx, accountNo, limit, offset)
	ret0, _ := ret[0].([]*domain.Entry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByAccount indicates an expected call of GetByAccount.
func (mr *MockEntryRepositoryMockRecorder) GetByAccount(ctx, accountNo, limit, offset any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByAccount", reflect.TypeOf((*MockEntryRepository)(nil).GetByAccount), ctx, accountNo, limit, offset)
}

// GetByMovement mocks base method.
func (m *MockEntryRepository) GetByMovement(ctx context.Context, movementID string) ([]*domain.Entry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByMovement", ctx, movementID)
	ret0, _ := ret[0].([]*domain.Entry)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByMovement indicates an expected call of GetByMovement.
func (mr *MockEntryRepositoryMockRecorder) GetByMovement(ctx, movementID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByMovement", reflect.TypeOf((*MockEntryRepository)(nil).GetByMovement), ctx, movementID)
}

// MockLedgerRepository is a mock of LedgerRepository interface.
type MockLedgerRepository struct {
	ctrl     *gomock.Controller
	recorder *MockLedgerRepositoryMockRecorder
	isgomock struct{}
}

// MockLedgerRepositoryMockRecorder is the mock recorder for MockLedgerRepository.
type MockLedgerRepositoryMockRecorder struct {
	mock *MockLedgerRepository
}

// NewMockLedgerRepository creates a new mock instance.
func NewMockLedgerRepository(ctrl *gomock.Controller) *MockLedgerRepository {
	mock := &MockLedgerRepository{ctrl: ctrl}
	mock.recorder = &MockLedgerRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLedgerRepository) EXPECT() *MockLedgerRepositoryMockRecorder {
	return m.recorder
}

// CheckConsistency mocks base method.
func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckConsistency", ctx)
	ret0, _ := ret[0].(decimal.Decimal)
	ret1, _ := ret[1].(decimal.Decimal)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// CheckConsistency indicates an expected call of CheckConsistency.
func (mr *MockLedgerRepositoryMockRecorder) CheckConsistency(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckConsistency", reflect.TypeOf((*MockLedgerRepository)(nil).CheckConsistency), ctx)
}

// FindBalanceDrift mocks base method.
func (m *MockLedgerRepository) FindBalanceDrift(ctx context.Context, limit int) ([]*domain.BalanceDrift, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindBalanceDrift", ctx, limit)
	ret0, _ := ret[0].([]*domain.BalanceDrift)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindBalanceDrift indicates an expected call of FindBalanceDrift.
func (mr *MockLedgerRepositoryMockRecorder) FindBalanceDrift(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindBalanceDrift", reflect.TypeOf((*MockLedgerRepository)(nil).FindBalanceDrift), ctx, limit)
}

// FindUnbalancedMovements mocks base method.
func (m *MockLedgerRepository) FindUnbalancedMovements(ctx context.Context, limit int) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindUnbalancedMovements", ctx, limit)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindUnbalancedMovements indicates an expected call of FindUnbalancedMovements.
func (mr *MockLedgerRepositoryMockRecorder) FindUnbalancedMovements(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindUnbalancedMovements", reflect.TypeOf((*MockLedgerRepository)(nil).FindUnbalancedMovements), ctx, limit)
}

// MockScreeningService is a mock of ScreeningService interface.
type MockScreeningService struct {
	ctrl     *gomock.Controller
	recorder *MockScreeningServiceMockRecorder
	isgomock struct{}
}

// MockScreeningServiceMockRecorder is the mock recorder for MockScreeningService.
type MockScreeningServiceMockRecorder struct {
	mock *MockScreeningService
}

// NewMockScreeningService creates a new mock instance.
func NewMockScreeningService(ctrl *gomock.Controller) *MockScreeningService {
	mock := &MockScreeningService{ctrl: ctrl}
	mock.recorder = &MockScreeningServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockScreeningService) EXPECT() *MockScreeningServiceMockRecorder {
	return m.recorder
}

// Check mocks base method.
func (m *MockScreeningService) Check(ctx context.Context, phoneNumber string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Check", ctx, phoneNumber)
	ret0, _ := ret[0].(error)
	return ret0
}

// Check indicates an expected call of Check.
func (mr *MockScreeningServiceMockRecorder) Check(ctx, phoneNumber any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Check", reflect.TypeOf((*MockScreeningService)(nil).Check), ctx, phoneNumber)
}

// MockTokenIssuer is a mock of TokenIssuer interface.
type MockTokenIssuer struct {
	ctrl     *gomock.Controller
	recorder *MockTokenIssuerMockRecorder
	isgomock struct{}
}

// MockTokenIssuerMockRecorder is the mock recorder for MockTokenIssuer.
type MockTokenIssuerMockRecorder struct {
	mock *MockTokenIssuer
}

// NewMockTokenIssuer creates a new mock instance.
func NewMockTokenIssuer(ctrl *gomock.Controller) *MockTokenIssuer {
	mock := &MockTokenIssuer{ctrl: ctrl}
	mock.recorder = &MockTokenIssuerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTokenIssuer) EXPECT() *MockTokenIssuerMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockTokenIssuer) Generate(accountNo string, phoneNumber string) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate", accountNo, phoneNumber)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Generate indicates an expected call of Generate.
func (mr *MockTokenIssuerMockRecorder) Generate(accountNo, phoneNumber any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockTokenIssuer)(nil).Generate), accountNo, phoneNumber)
}
