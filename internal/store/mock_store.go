package store

import (
	"context"

	"github.com/evyataryagoni/cepcache/internal/models"
)

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
type MockStore struct {
	// Data holds the mock data (code -> record)
	Data   map[string]*models.PostalRecord
	NextID int64

	// Track method calls for verification in tests
	FindByCodeCalls []string
	InsertCalls     []models.PostalRecord
	ListAllCalls    int
	CloseCalled     bool

	// Control behavior for error scenarios
	FindByCodeError error
	InsertError     error
	ListAllError    error
	CloseError      error
}

// NewMockStore creates a mock store with sample test data
func NewMockStore() *MockStore {
	return &MockStore{
		Data: map[string]*models.PostalRecord{
			"01310100": {
				ID:           1,
				Code:         "01310100",
				Street:       "Avenida Paulista",
				Neighborhood: "Bela Vista",
				City:         "São Paulo",
				State:        "SP",
			},
			"20040002": {
				ID:           2,
				Code:         "20040002",
				Street:       "Rua da Assembleia",
				Neighborhood: "Centro",
				City:         "Rio de Janeiro",
				State:        "RJ",
			},
		},
		NextID:          2,
		FindByCodeCalls: []string{},
	}
}

// NewEmptyMockStore creates a mock store with no data
// Useful for testing cache misses
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		Data:            map[string]*models.PostalRecord{},
		FindByCodeCalls: []string{},
	}
}

// Insert implements the Store interface
func (m *MockStore) Insert(ctx context.Context, record *models.PostalRecord) (int64, error) {
	m.InsertCalls = append(m.InsertCalls, *record)

	if m.InsertError != nil {
		return 0, m.InsertError
	}

	m.NextID++
	record.ID = m.NextID
	stored := *record
	stored.QueriedAt = nil
	m.Data[record.Code] = &stored
	return record.ID, nil
}

// FindByCode implements the Store interface
func (m *MockStore) FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error) {
	m.FindByCodeCalls = append(m.FindByCodeCalls, code)

	if m.FindByCodeError != nil {
		return nil, false, m.FindByCodeError
	}

	record, exists := m.Data[code]
	if !exists {
		return nil, false, nil
	}

	found := *record
	return &found, true, nil
}

// ListAll implements the Store interface, records are returned in id order
func (m *MockStore) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	m.ListAllCalls++

	if m.ListAllError != nil {
		return nil, m.ListAllError
	}

	records := make([]models.PostalRecord, 0, len(m.Data))
	for id := int64(1); id <= m.NextID; id++ {
		for _, record := range m.Data {
			if record.ID == id {
				records = append(records, *record)
			}
		}
	}
	return records, nil
}

// Close implements the Store interface
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
