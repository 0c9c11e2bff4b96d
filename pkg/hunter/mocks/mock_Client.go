// Package mocks provides test doubles for the hunter client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	hunter "github.com/sells-group/enrich-cli/pkg/hunter"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// DomainSearch provides a mock function with given fields: ctx, domain
func (_m *MockClient) DomainSearch(ctx context.Context, domain string) (*hunter.DomainSearchResult, error) {
	ret := _m.Called(ctx, domain)

	if len(ret) == 0 {
		panic("no return value specified for DomainSearch")
	}

	var r0 *hunter.DomainSearchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.DomainSearchResult)
	}
	return r0, ret.Error(1)
}

// FindEmail provides a mock function with given fields: ctx, domain, firstName, lastName
func (_m *MockClient) FindEmail(ctx context.Context, domain, firstName, lastName string) (*hunter.EmailFinderResult, error) {
	ret := _m.Called(ctx, domain, firstName, lastName)

	if len(ret) == 0 {
		panic("no return value specified for FindEmail")
	}

	var r0 *hunter.EmailFinderResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.EmailFinderResult)
	}
	return r0, ret.Error(1)
}

// VerifyEmail provides a mock function with given fields: ctx, email
func (_m *MockClient) VerifyEmail(ctx context.Context, email string) (*hunter.VerifyResult, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for VerifyEmail")
	}

	var r0 *hunter.VerifyResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*hunter.VerifyResult)
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
