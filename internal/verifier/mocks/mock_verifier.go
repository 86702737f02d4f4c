package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockHashVerifier struct {
	mock.Mock
}

func (m *MockHashVerifier) ComputeDigest(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
