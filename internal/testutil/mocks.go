package testutil

import (
	"context"

	"github.com/save2win/save2win-front/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) SavePendingSignIn(ctx context.Context, p storage.PendingSignIn) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) ConsumePendingSignIn(ctx context.Context, id, state string) (*storage.PendingSignIn, error) {
	args := m.Called(ctx, id, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PendingSignIn), args.Error(1)
}

func (m *MockStorage) CleanupExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}
