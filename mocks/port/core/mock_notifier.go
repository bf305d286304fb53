package core

import (
	"context"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a testify mock of core.Notifier
type MockNotifier struct {
	mock.Mock
}

// Notify provides a mock function
func (_m *MockNotifier) Notify(ctx context.Context, notification coreport.Notification) error {
	ret := _m.Called(ctx, notification)
	return ret.Error(0)
}

// NewMockNotifier creates a mock and asserts its expectations on cleanup
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotifier {
	m := &MockNotifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
