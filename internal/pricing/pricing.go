// Package pricing maps an occurrence number onto a motif's tiered fine.
package pricing

import (
	"contraventions/internal/motif/models"
	dErrors "contraventions/pkg/domain-errors"
)

// SelectTier returns the fine for the given occurrence of a motif.
// Occurrence 1..4 map to tier1..tier4; everything past 4 saturates at tier4.
// A missing tier amount is a data-integrity fault in the catalog, never
// substituted with zero.
func SelectTier(m *models.Motif, occurrence int) (int64, error) {
	if occurrence < 1 {
		return 0, dErrors.Newf(dErrors.CodeInternal, "occurrence %d out of range", occurrence)
	}
	if occurrence > 4 {
		occurrence = 4
	}

	tier := m.Tiers()[occurrence-1]
	if tier == nil {
		return 0, dErrors.Newf(dErrors.CodeDataIntegrity,
			"motif %s has no tier %d amount", m.Label, occurrence)
	}
	return *tier, nil
}
