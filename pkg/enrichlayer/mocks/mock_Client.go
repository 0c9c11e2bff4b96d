// Package mocks provides test doubles for the enrichlayer client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	enrichlayer "github.com/sells-group/enrich-cli/pkg/enrichlayer"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Company provides a mock function with given fields: ctx, profileURL
func (_m *MockClient) Company(ctx context.Context, profileURL string) (*enrichlayer.CompanyProfile, error) {
	ret := _m.Called(ctx, profileURL)

	if len(ret) == 0 {
		panic("no return value specified for Company")
	}

	var r0 *enrichlayer.CompanyProfile
	if rf, ok := ret.Get(0).(func(context.Context, string) (*enrichlayer.CompanyProfile, error)); ok {
		return rf(ctx, profileURL)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*enrichlayer.CompanyProfile)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
