package core

import (
	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of core.Logger
type MockLogger struct {
	mock.Mock
}

// SetLevel provides a mock function
func (_m *MockLogger) SetLevel(level coreport.LogLevel) {
	_m.Called(level)
}

// GetLevel provides a mock function
func (_m *MockLogger) GetLevel() coreport.LogLevel {
	ret := _m.Called()
	return ret.Get(0).(coreport.LogLevel)
}

// Debug provides a mock function
func (_m *MockLogger) Debug(message string, fields map[string]any) {
	_m.Called(message, fields)
}

// Info provides a mock function
func (_m *MockLogger) Info(message string, fields map[string]any) {
	_m.Called(message, fields)
}

// Warn provides a mock function
func (_m *MockLogger) Warn(message string, fields map[string]any) {
	_m.Called(message, fields)
}

// Error provides a mock function
func (_m *MockLogger) Error(message string, fields map[string]any) {
	_m.Called(message, fields)
}

// Flush provides a mock function
func (_m *MockLogger) Flush() error {
	ret := _m.Called()
	return ret.Error(0)
}

// AllowAll accepts every log call. Tests then assert on the ones they care about.
func (_m *MockLogger) AllowAll() *MockLogger {
	for _, method := range []string{"Debug", "Info", "Warn", "Error"} {
		_m.On(method, mock.Anything, mock.Anything).Maybe()
	}
	_m.On("Flush").Return(nil).Maybe()
	return _m
}

// NewMockLogger creates a mock and asserts its expectations on cleanup
func NewMockLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLogger {
	m := &MockLogger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
