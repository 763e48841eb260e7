package store

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/evyataryagoni/cepcache/internal/models"
	"github.com/evyataryagoni/cepcache/internal/postalcode"
)

const csvColumns = 5

// ReadCSV reads seed records from a CSV file
//
// CSV Format: code,street,neighborhood,city,state
// Example: 01310-100,Avenida Paulista,Bela Vista,São Paulo,SP
//
// The first row is a header and is skipped. Codes are normalized; rows with the
// wrong number of columns or a code that is not 8 digits are skipped.
func ReadCSV(filePath string) ([]models.PostalRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Column count is checked per row so one bad row doesn't fail the file
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	records := make([]models.PostalRecord, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) != csvColumns {
			continue
		}

		code := postalcode.Normalize(row[0])
		if len(code) != postalcode.Length {
			continue
		}

		records = append(records, models.PostalRecord{
			Code:         code,
			Street:       row[1],
			Neighborhood: row[2],
			City:         row[3],
			State:        row[4],
		})
	}

	return records, nil
}
