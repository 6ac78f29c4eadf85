package regulatory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"contractguard-backend/models"
)

// DefaultRegulations is the seeded baseline catalog of required clauses.
func DefaultRegulations() models.Regulations {
	return models.Regulations{
		"GDPR": {
			RequiredClauses: []string{
				"Data Processing",
				"Data Retention",
				"Breach Notification",
				"Data Subject Rights",
			},
		},
		"HIPAA": {
			RequiredClauses: []string{
				"PHI Protection",
				"Access Controls",
				"Audit Controls",
			},
		},
	}
}

// LoadRegulations reads the regulation catalog from path, seeding it with
// the defaults on first use.
func LoadRegulations(path string) (models.Regulations, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		regulations := DefaultRegulations()
		if err := saveRegulations(path, regulations); err != nil {
			return nil, err
		}
		return regulations, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read regulations: %w", err)
	}

	var regulations models.Regulations
	if err := json.Unmarshal(data, &regulations); err != nil {
		return nil, fmt.Errorf("failed to parse regulations: %w", err)
	}
	return regulations, nil
}

func saveRegulations(path string, regulations models.Regulations) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create regulations directory: %w", err)
	}
	data, err := json.MarshalIndent(regulations, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal regulations: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write regulations: %w", err)
	}
	return nil
}
