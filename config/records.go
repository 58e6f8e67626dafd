package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Record is one entity to encode: an identifier plus role → filler fields.
type Record struct {
	ID     string            `yaml:"id"`
	Fields map[string]string `yaml:"fields"`
}

type recordsFile struct {
	Records []Record `yaml:"records"`
}

// LoadRecords reads a records file:
//
//	records:
//	  - id: farm_123
//	    fields: {crop: cannabis, status: approved, region: chiang_mai}
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return ParseRecords(data)
}

// ParseRecords decodes records YAML. Every record needs an id and at least
// one field, and ids must be unique.
func ParseRecords(data []byte) ([]Record, error) {
	var f recordsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	seen := make(map[string]bool, len(f.Records))
	for i, r := range f.Records {
		switch {
		case r.ID == "":
			return nil, fmt.Errorf("records: entry %d has no id", i)
		case len(r.Fields) == 0:
			return nil, fmt.Errorf("records: %s has no fields", r.ID)
		case seen[r.ID]:
			return nil, fmt.Errorf("records: duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
	return f.Records, nil
}
