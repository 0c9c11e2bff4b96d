// Package mocks provides test doubles for the serper client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	serper "github.com/sells-group/enrich-cli/pkg/serper"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query
func (_m *MockClient) Search(ctx context.Context, query string) (*serper.SearchResponse, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *serper.SearchResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*serper.SearchResponse)
	}
	return r0, ret.Error(1)
}

// News provides a mock function with given fields: ctx, query
func (_m *MockClient) News(ctx context.Context, query string) (*serper.NewsResponse, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for News")
	}

	var r0 *serper.NewsResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*serper.NewsResponse)
	}
	return r0, ret.Error(1)
}

// Location provides a mock function with given fields: ctx, query
func (_m *MockClient) Location(ctx context.Context, query string) (*serper.LocationResponse, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Location")
	}

	var r0 *serper.LocationResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*serper.LocationResponse)
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
