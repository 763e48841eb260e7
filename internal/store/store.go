package store

import (
	"context"

	"github.com/evyataryagoni/cepcache/internal/models"
)

// Store defines the persistence operations for postal records
// Allows multiple implementations (MySQL, Redis, memory) and easy testing with mocks
//
// Records are immutable once stored: there is no update or delete.
// Every failure is wrapped in models.ErrStorage.
type Store interface {
	// Insert persists a record, sets record.ID and returns the generated id
	Insert(ctx context.Context, record *models.PostalRecord) (int64, error)

	// FindByCode looks up a record by its normalized code
	// A miss returns (nil, false, nil), never an error
	FindByCode(ctx context.Context, code string) (*models.PostalRecord, bool, error)

	// ListAll returns every stored record
	ListAll(ctx context.Context) ([]models.PostalRecord, error)

	// Close cleans up resources (database connections, etc.)
	Close() error
}
