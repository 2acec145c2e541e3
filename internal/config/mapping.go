package config

import (
	"fmt"
	"os"

	"github.com/BartekS5/flightetl/pkg/models"
)

// LoadMapping returns the field mapping for a run. An empty path yields the
// built-in flight mapping; otherwise the file is read and validated. A
// non-empty table (DB_TABLE) overrides the mapping's own table.
func LoadMapping(filePath, table string) (*models.MappingSchema, error) {
	mapping := models.DefaultFlightMapping()
	if filePath != "" {
		bytes, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file '%s': %w", filePath, err)
		}
		mapping, err = models.LoadMapping(bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mapping file '%s': %w", filePath, err)
		}
	}
	if table != "" {
		mapping.Table = table
	}
	return mapping, nil
}
