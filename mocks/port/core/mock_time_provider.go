package core

import (
	"context"
	"time"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockTimeProvider is a testify mock of core.TimeProvider
type MockTimeProvider struct {
	mock.Mock
}

// MockTimeProvider_Expecter gives typed access to expectations
type MockTimeProvider_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter
func (_m *MockTimeProvider) EXPECT() *MockTimeProvider_Expecter {
	return &MockTimeProvider_Expecter{mock: &_m.Mock}
}

// Now provides a mock function
func (_m *MockTimeProvider) Now() time.Time {
	ret := _m.Called()
	return ret.Get(0).(time.Time)
}

// MockTimeProvider_Now_Call wraps the Now expectation
type MockTimeProvider_Now_Call struct {
	*mock.Call
}

// Now registers an expectation for Now
func (_e *MockTimeProvider_Expecter) Now() *MockTimeProvider_Now_Call {
	return &MockTimeProvider_Now_Call{Call: _e.mock.On("Now")}
}

// Return sets the value returned by Now
func (_c *MockTimeProvider_Now_Call) Return(t time.Time) *MockTimeProvider_Now_Call {
	_c.Call.Return(t)
	return _c
}

// Once limits the expectation to a single call
func (_c *MockTimeProvider_Now_Call) Once() *MockTimeProvider_Now_Call {
	_c.Call.Once()
	return _c
}

// Maybe marks the expectation as optional
func (_c *MockTimeProvider_Now_Call) Maybe() *MockTimeProvider_Now_Call {
	_c.Call.Maybe()
	return _c
}

// Since provides a mock function
func (_m *MockTimeProvider) Since(t time.Time) coreport.Duration {
	ret := _m.Called(t)
	return ret.Get(0).(coreport.Duration)
}

// Sleep provides a mock function
func (_m *MockTimeProvider) Sleep(ctx context.Context, d coreport.Duration) error {
	ret := _m.Called(ctx, d)
	return ret.Error(0)
}

// WithTimeout provides a mock function
func (_m *MockTimeProvider) WithTimeout(ctx context.Context, timeout coreport.Duration) (context.Context, context.CancelFunc) {
	ret := _m.Called(ctx, timeout)
	return ret.Get(0).(context.Context), ret.Get(1).(context.CancelFunc)
}

// NewMockTimeProvider creates a mock and asserts its expectations on cleanup
func NewMockTimeProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTimeProvider {
	m := &MockTimeProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
