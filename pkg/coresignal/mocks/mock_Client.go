// Package mocks provides test doubles for the coresignal client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	coresignal "github.com/sells-group/enrich-cli/pkg/coresignal"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

func (_m *MockClient) company(method string, args ...any) (*coresignal.Company, error) {
	ret := _m.MethodCalled(method, args...)

	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}

	var r0 *coresignal.Company
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*coresignal.Company)
	}
	return r0, ret.Error(1)
}

// EnrichByDomain provides a mock function with given fields: ctx, domain
func (_m *MockClient) EnrichByDomain(ctx context.Context, domain string) (*coresignal.Company, error) {
	return _m.company("EnrichByDomain", ctx, domain)
}

// CollectBySlug provides a mock function with given fields: ctx, slug
func (_m *MockClient) CollectBySlug(ctx context.Context, slug string) (*coresignal.Company, error) {
	return _m.company("CollectBySlug", ctx, slug)
}

// SearchByProfileURL provides a mock function with given fields: ctx, profileURL
func (_m *MockClient) SearchByProfileURL(ctx context.Context, profileURL string) (*coresignal.Company, error) {
	return _m.company("SearchByProfileURL", ctx, profileURL)
}

// SearchByName provides a mock function with given fields: ctx, name, location
func (_m *MockClient) SearchByName(ctx context.Context, name, location string) (*coresignal.Company, error) {
	return _m.company("SearchByName", ctx, name, location)
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
