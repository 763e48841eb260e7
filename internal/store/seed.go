package store

import (
	"context"
	"fmt"

	"github.com/evyataryagoni/cepcache/internal/models"
)

// SeedResult summarizes a Seed run
type SeedResult struct {
	Inserted int
	Skipped  int // codes already present in the store or repeated in the input
}

// Seed inserts the records whose codes are not stored yet
// It stops at the first storage error and reports what was done so far
func Seed(ctx context.Context, s Store, records []models.PostalRecord) (SeedResult, error) {
	var result SeedResult
	seen := make(map[string]struct{}, len(records))

	for i := range records {
		record := records[i]
		if _, dup := seen[record.Code]; dup {
			result.Skipped++
			continue
		}
		seen[record.Code] = struct{}{}

		_, exists, err := s.FindByCode(ctx, record.Code)
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped++
			continue
		}

		if _, err := s.Insert(ctx, &record); err != nil {
			return result, fmt.Errorf("seed cep %s: %w", record.Code, err)
		}
		result.Inserted++
	}

	return result, nil
}

// SeedFromCSV reads a CSV file (see ReadCSV) and seeds the store with it
func SeedFromCSV(ctx context.Context, s Store, filePath string) (SeedResult, error) {
	records, err := ReadCSV(filePath)
	if err != nil {
		return SeedResult{}, err
	}
	return Seed(ctx, s, records)
}
