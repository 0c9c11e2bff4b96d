// Package mocks provides test doubles for the apollo client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	apollo "github.com/sells-group/enrich-cli/pkg/apollo"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SearchCompanies provides a mock function with given fields: ctx, req
func (_m *MockClient) SearchCompanies(ctx context.Context, req apollo.CompanySearchRequest) (*apollo.CompanySearchResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for SearchCompanies")
	}

	var r0 *apollo.CompanySearchResponse
	if rf, ok := ret.Get(0).(func(context.Context, apollo.CompanySearchRequest) (*apollo.CompanySearchResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apollo.CompanySearchResponse)
	}
	return r0, ret.Error(1)
}

// SearchPeople provides a mock function with given fields: ctx, req
func (_m *MockClient) SearchPeople(ctx context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for SearchPeople")
	}

	var r0 *apollo.PeopleSearchResponse
	if rf, ok := ret.Get(0).(func(context.Context, apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error)); ok {
		return rf(ctx, req)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apollo.PeopleSearchResponse)
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
