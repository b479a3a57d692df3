package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contraventions/internal/motif/models"
	"contraventions/internal/pricing"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
)

func amount(v int64) *int64 { return &v }

func motif() *models.Motif {
	return &models.Motif{
		Label: id.MotifLabel("TAPAGE_NOCTURNE"),
		Tier1: amount(5000),
		Tier2: amount(10000),
		Tier3: amount(20000),
		Tier4: amount(30000),
	}
}

func TestSelectTier(t *testing.T) {
	m := motif()
	for occurrence, want := range map[int]int64{
		1:  5000,
		2:  10000,
		3:  20000,
		4:  30000,
		5:  30000,
		12: 30000,
	} {
		got, err := pricing.SelectTier(m, occurrence)
		require.NoError(t, err)
		require.Equal(t, want, got, "occurrence %d", occurrence)
	}
}

func TestSelectTier_OccurrenceOutOfRange(t *testing.T) {
	for _, occurrence := range []int{0, -1} {
		_, err := pricing.SelectTier(motif(), occurrence)
		require.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	}
}

func TestSelectTier_MissingAmountIsDataIntegrity(t *testing.T) {
	m := motif()
	m.Tier3 = nil

	got, err := pricing.SelectTier(m, 2)
	require.NoError(t, err)
	require.Equal(t, int64(10000), got)

	_, err = pricing.SelectTier(m, 3)
	require.True(t, dErrors.HasCode(err, dErrors.CodeDataIntegrity))

	_, err = pricing.SelectTier(m, 7)
	require.NoError(t, err, "saturation reads tier 4, not the broken tier")
}
