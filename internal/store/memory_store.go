package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/evyataryagoni/cepcache/internal/models"
)

// MemoryStore implements Store with an in-process map
// Suitable for local development and single-instance deployments; data is lost on restart
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]models.PostalRecord // code -> record
	nextID int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]models.PostalRecord),
	}
}

// NewMemoryStoreFromCSV creates a memory store seeded from a CSV file
// See ReadCSV for the file format; repeated codes keep the first row
func NewMemoryStoreFromCSV(ctx context.Context, filePath string) (*MemoryStore, error) {
	store := NewMemoryStore()
	if _, err := SeedFromCSV(ctx, store, filePath); err != nil {
		return nil, err
	}
	return store, nil
}

// Insert stores a copy of the record and assigns the next id
func (s *MemoryStore) Insert(ctx context.Context, record *models.PostalRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[record.Code]; exists {
		return 0, fmt.Errorf("%w: cep %s already exists", models.ErrStorage, record.Code)
	}

	s.nextID++
	stored := *record
	stored.ID = s.nextID
	stored.QueriedAt = nil
	stored.Complement = ""
	s.data[record.Code] = stored

	record.ID = stored.ID
	return stored.ID, nil
}

// FindByCode looks up a record by its normalized code
func (s *MemoryStore) FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.data[code]
	if !exists {
		return nil, false, nil
	}
	return &record, true, nil
}

// ListAll returns every record in insertion (id) order
func (s *MemoryStore) ListAll(ctx context.Context) ([]models.PostalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrStorage, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// ids are dense 1..nextID, so place each record at its slot
	slots := make([]*models.PostalRecord, s.nextID)
	for code := range s.data {
		record := s.data[code]
		slots[record.ID-1] = &record
	}

	records := make([]models.PostalRecord, 0, len(s.data))
	for _, record := range slots {
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

// Close is a no-op, there are no resources to release
func (s *MemoryStore) Close() error {
	return nil
}
