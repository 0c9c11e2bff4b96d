// Package mocks provides test doubles for the mistral client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	mistral "github.com/sells-group/enrich-cli/pkg/mistral"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ChatCompletion provides a mock function with given fields: ctx, req
func (_m *MockClient) ChatCompletion(ctx context.Context, req mistral.ChatCompletionRequest) (*mistral.ChatCompletionResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ChatCompletion")
	}

	var r0 *mistral.ChatCompletionResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mistral.ChatCompletionResponse)
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
