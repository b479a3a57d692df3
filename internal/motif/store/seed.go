package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"contraventions/internal/motif/models"
)

// Catalog is the interface seeding writes through; both store flavors
// satisfy it.
type Catalog interface {
	Upsert(ctx context.Context, m *models.Motif) error
}

type seedFile struct {
	Motifs []models.Motif `yaml:"motifs"`
}

// SeedFromFile loads a YAML catalog file and upserts every entry. Invalid
// entries abort the seed: a partially loaded catalog would price reports
// inconsistently.
//
// File format:
//
//	motifs:
//	  - label: Noise
//	    description: Excessive noise after quiet hours
//	    tier1: 5000
//	    tier2: 10000
//	    tier3: 20000
//	    tier4: 30000
func SeedFromFile(ctx context.Context, catalog Catalog, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read motif seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse motif seed file: %w", err)
	}

	for i := range file.Motifs {
		m := &file.Motifs[i]
		if err := m.Validate(); err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if err := catalog.Upsert(ctx, m); err != nil {
			return 0, fmt.Errorf("seed motif %s: %w", m.Label, err)
		}
	}
	return len(file.Motifs), nil
}
