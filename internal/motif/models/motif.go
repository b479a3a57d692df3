// Package models defines the motif catalog entry: a violation type with its
// four tiered fine amounts.
package models

import (
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
)

// Motif is a catalogued violation type. Amounts are in the smallest currency
// unit. Tiers are pointers because the catalog may hold incomplete rows;
// pricing treats a missing tier as a data-integrity fault, never as zero.
type Motif struct {
	Label       id.MotifLabel `json:"label" yaml:"label"`
	Description string        `json:"description" yaml:"description"`
	Tier1       *int64        `json:"tier1" yaml:"tier1"`
	Tier2       *int64        `json:"tier2" yaml:"tier2"`
	Tier3       *int64        `json:"tier3" yaml:"tier3"`
	Tier4       *int64        `json:"tier4" yaml:"tier4"`
}

// Tiers returns the tier amounts indexed 0..3 for occurrence 1..4.
func (m *Motif) Tiers() [4]*int64 {
	return [4]*int64{m.Tier1, m.Tier2, m.Tier3, m.Tier4}
}

// Validate enforces catalog invariants: label present, all four tiers set,
// non-negative and monotone non-decreasing. Used on catalog writes (seeding);
// reads tolerate bad rows and fail at pricing time instead, so one broken
// catalog entry cannot block unrelated motifs.
func (m *Motif) Validate() error {
	if m.Label.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "motif label is required")
	}
	tiers := m.Tiers()
	var prev int64
	for i, tier := range tiers {
		if tier == nil {
			return dErrors.Newf(dErrors.CodeBadRequest, "motif %s: tier %d amount is missing", m.Label, i+1)
		}
		if *tier < 0 {
			return dErrors.Newf(dErrors.CodeBadRequest, "motif %s: tier %d amount is negative", m.Label, i+1)
		}
		if i > 0 && *tier < prev {
			return dErrors.Newf(dErrors.CodeBadRequest, "motif %s: tier %d amount decreases", m.Label, i+1)
		}
		prev = *tier
	}
	return nil
}
