package core

import (
	"context"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockCache is a testify mock of core.Cache
type MockCache struct {
	mock.Mock
}

// Get provides a mock function. A Run func may fill dest.
func (_m *MockCache) Get(ctx context.Context, key string, dest any) error {
	ret := _m.Called(ctx, key, dest)
	return ret.Error(0)
}

// Fence provides a mock function. An unset return value means generation
// zero for every tag.
func (_m *MockCache) Fence(ctx context.Context, tags ...string) (coreport.CacheFence, error) {
	ret := _m.Called(ctx, tags)
	fence, ok := ret.Get(0).(coreport.CacheFence)
	if !ok {
		fence = coreport.CacheFence{Tags: tags, Generations: make([]int64, len(tags))}
	}
	return fence, ret.Error(1)
}

// Set provides a mock function
func (_m *MockCache) Set(ctx context.Context, key string, value any, ttl coreport.Duration, fence coreport.CacheFence) error {
	ret := _m.Called(ctx, key, value, ttl, fence)
	return ret.Error(0)
}

// InvalidateTags provides a mock function
func (_m *MockCache) InvalidateTags(ctx context.Context, tags ...string) error {
	ret := _m.Called(ctx, tags)
	return ret.Error(0)
}

// NewMockCache creates a mock and asserts its expectations on cleanup
func NewMockCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCache {
	m := &MockCache{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
