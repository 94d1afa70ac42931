package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsernameForUpdate(ctx context.Context, name string) (*models.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Usernames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) UpdateBalance(ctx context.Context, userID, newBalance int64) error {
	args := m.Called(ctx, userID, newBalance)
	return args.Error(0)
}

func (m *MockUserRepository) SetSessionToken(ctx context.Context, userID int64, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

// MockBetLogRepository is a mock implementation of BetLogRepository
type MockBetLogRepository struct {
	mock.Mock
}

func (m *MockBetLogRepository) GetByBetUID(ctx context.Context, betUID string) (*models.BetLog, error) {
	args := m.Called(ctx, betUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetLog), args.Error(1)
}

func (m *MockBetLogRepository) Create(ctx context.Context, log *models.BetLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

// MockUnitOfWork bundles the repository mocks behind the UnitOfWork
// interface.
type MockUnitOfWork struct {
	UsersMock        *MockUserRepository
	BetLogsMock      *MockBetLogRepository
	TransactionsMock *MockTransactionRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		UsersMock:        new(MockUserRepository),
		BetLogsMock:      new(MockBetLogRepository),
		TransactionsMock: new(MockTransactionRepository),
	}
}

func (u *MockUnitOfWork) Users() UserRepository               { return u.UsersMock }
func (u *MockUnitOfWork) BetLogs() BetLogRepository           { return u.BetLogsMock }
func (u *MockUnitOfWork) Transactions() TransactionRepository { return u.TransactionsMock }

func (u *MockUnitOfWork) AssertExpectations(t mock.TestingT) {
	u.UsersMock.AssertExpectations(t)
	u.BetLogsMock.AssertExpectations(t)
	u.TransactionsMock.AssertExpectations(t)
}

// MockUnitOfWorkFactory hands the same MockUnitOfWork to every caller.
// CommitErr, when set, is returned instead of the fn result to simulate
// a commit failure.
type MockUnitOfWorkFactory struct {
	UOW       *MockUnitOfWork
	CommitErr error
}

func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{UOW: NewMockUnitOfWork()}
}

func (f *MockUnitOfWorkFactory) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	if err := fn(ctx, f.UOW); err != nil {
		return err
	}
	return f.CommitErr
}

func (f *MockUnitOfWorkFactory) Unscoped() UnitOfWork {
	return f.UOW
}
