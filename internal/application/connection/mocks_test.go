package connection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockConnectionRepository is a mock implementation of ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*connection.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connection.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]connection.Connection, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]connection.Connection), args.Error(1)
}

func (m *MockConnectionRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *connection.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) FailStaleConnecting(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockActivationLock is a mock implementation of ActivationLock
type MockActivationLock struct {
	mock.Mock
}

func (m *MockActivationLock) Acquire(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, id, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivationLock) Release(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// stubType is a connection type whose activation outcome is scripted per test
type stubType struct {
	activate func(ctx context.Context, conn *connection.Connection) (*connection.ActivationResult, error)
	calls    int
}

func (s *stubType) Descriptor() connection.TypeDescriptor {
	return connection.TypeDescriptor{
		Name:         "Stub Login",
		ProviderSlug: "stub",
		Slug:         "web_login",
		Description:  "Login to stub",
		BaseType:     connection.BaseTypeCredentials,
		Fields: []connection.ConfigField{
			{Name: "username", Title: "Username", Type: "string", Required: true},
			{Name: "password", Title: "Password", Type: "string", Required: true, Widget: "password"},
		},
	}
}

func (s *stubType) Activate(ctx context.Context, conn *connection.Connection) (*connection.ActivationResult, error) {
	s.calls++
	return s.activate(ctx, conn)
}
