package core

import "github.com/stretchr/testify/mock"

// MockMetricsRecorder is a testify mock of core.MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

// RecordVote provides a mock function
func (_m *MockMetricsRecorder) RecordVote(targetType, action string) {
	_m.Called(targetType, action)
}

// RecordVoteFailure provides a mock function
func (_m *MockMetricsRecorder) RecordVoteFailure(targetType, reason string) {
	_m.Called(targetType, reason)
}

// RecordWalletTransaction provides a mock function
func (_m *MockMetricsRecorder) RecordWalletTransaction(paymentType string, amount float64) {
	_m.Called(paymentType, amount)
}

// RecordWalletRejection provides a mock function
func (_m *MockMetricsRecorder) RecordWalletRejection(paymentType, reason string) {
	_m.Called(paymentType, reason)
}

// RecordCacheInvalidation provides a mock function
func (_m *MockMetricsRecorder) RecordCacheInvalidation(result string) {
	_m.Called(result)
}

// RecordNotification provides a mock function
func (_m *MockMetricsRecorder) RecordNotification(kind, result string) {
	_m.Called(kind, result)
}

// AllowAll accepts every call
func (_m *MockMetricsRecorder) AllowAll() *MockMetricsRecorder {
	_m.On("RecordVote", mock.Anything, mock.Anything).Maybe()
	_m.On("RecordVoteFailure", mock.Anything, mock.Anything).Maybe()
	_m.On("RecordWalletTransaction", mock.Anything, mock.Anything).Maybe()
	_m.On("RecordWalletRejection", mock.Anything, mock.Anything).Maybe()
	_m.On("RecordCacheInvalidation", mock.Anything).Maybe()
	_m.On("RecordNotification", mock.Anything, mock.Anything).Maybe()
	return _m
}

// NewMockMetricsRecorder creates a mock and asserts its expectations on cleanup
func NewMockMetricsRecorder(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetricsRecorder {
	m := &MockMetricsRecorder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
