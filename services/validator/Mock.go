package validator

import (
	"github.com/stretchr/testify/mock"
)

// MockVerifier is a testify mock of Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(publicKey, message, signature []byte) bool {
	args := m.Called(publicKey, message, signature)

	return args.Bool(0)
}

// AcceptAllVerifier accepts every signature. Handy when a test is about values, not keys.
type AcceptAllVerifier struct{}

func (AcceptAllVerifier) Verify(_, _, _ []byte) bool {
	return true
}
