package viacep

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/cepcache/internal/models"
)

// MockClient is a test double for address lookups
// It allows tests to control responses and verify interactions
type MockClient struct {
	// Addresses holds the upstream data (code -> record without id)
	Addresses map[string]models.PostalRecord

	// Track method calls for verification in tests
	LookupCalls []string

	// Control behavior for error scenarios
	LookupError error

	// Now stamps QueriedAt, defaults to time.Now
	Now func() time.Time
}

// NewMockClient creates a mock client that knows Avenida Paulista (01310930)
func NewMockClient() *MockClient {
	return &MockClient{
		Addresses: map[string]models.PostalRecord{
			"01310930": {
				Code:         "01310930",
				Street:       "Avenida Paulista",
				Complement:   "2100",
				Neighborhood: "Bela Vista",
				City:         "São Paulo",
				State:        "SP",
			},
		},
		LookupCalls: []string{},
	}
}

// Lookup returns the configured address, ErrNotFound for unknown codes
func (m *MockClient) Lookup(ctx context.Context, code string) (*models.PostalRecord, error) {
	m.LookupCalls = append(m.LookupCalls, code)

	if m.LookupError != nil {
		return nil, m.LookupError
	}

	address, exists := m.Addresses[code]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, code)
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	queriedAt := now()
	address.QueriedAt = &queriedAt
	return &address, nil
}
