package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"contraventions/internal/motif/models"
	"contraventions/internal/motif/store"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
)

func amount(v int64) *int64 { return &v }

func TestInMemory_UpsertAndFind(t *testing.T) {
	s := store.NewInMemory()
	ctx := context.Background()

	m := &models.Motif{
		Label:       id.MotifLabel("TAPAGE_NOCTURNE"),
		Description: "Noise after quiet hours",
		Tier1:       amount(5000), Tier2: amount(10000),
		Tier3: amount(20000), Tier4: amount(30000),
	}
	require.NoError(t, s.Upsert(ctx, m))

	got, err := s.FindByLabel(ctx, m.Label)
	require.NoError(t, err)
	require.Equal(t, int64(5000), *got.Tier1)

	// Returned motif is a copy; mutating it must not corrupt the catalog.
	*got.Tier1 = 999
	again, err := s.FindByLabel(ctx, m.Label)
	require.NoError(t, err)
	require.Equal(t, int64(5000), *again.Tier1)

	_, err = s.FindByLabel(ctx, id.MotifLabel("UNKNOWN"))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_ListLabelsSorted(t *testing.T) {
	s := store.NewInMemory()
	ctx := context.Background()
	for _, label := range []string{"TAPAGE_NOCTURNE", "DEGRADATION", "STATIONNEMENT"} {
		require.NoError(t, s.Upsert(ctx, &models.Motif{
			Label: id.MotifLabel(label),
			Tier1: amount(1), Tier2: amount(2), Tier3: amount(3), Tier4: amount(4),
		}))
	}

	labels, err := s.ListLabels(ctx)
	require.NoError(t, err)
	require.Equal(t, []id.MotifLabel{"DEGRADATION", "STATIONNEMENT", "TAPAGE_NOCTURNE"}, labels)
}

func TestSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motifs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
motifs:
  - label: TAPAGE_NOCTURNE
    description: Noise after quiet hours
    tier1: 5000
    tier2: 10000
    tier3: 20000
    tier4: 30000
  - label: DEGRADATION
    description: Damage to shared facilities
    tier1: 10000
    tier2: 20000
    tier3: 40000
    tier4: 80000
`), 0o600))

	s := store.NewInMemory()
	n, err := store.SeedFromFile(context.Background(), s, path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	m, err := s.FindByLabel(context.Background(), id.MotifLabel("DEGRADATION"))
	require.NoError(t, err)
	require.Equal(t, int64(80000), *m.Tier4)
}

func TestSeedFromFile_InvalidEntryAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motifs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
motifs:
  - label: TAPAGE_NOCTURNE
    tier1: 5000
    tier2: 10000
    tier3: 20000
    tier4: 30000
  - label: BROKEN
    tier1: 5000
`), 0o600))

	s := store.NewInMemory()
	_, err := store.SeedFromFile(context.Background(), s, path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tier 2")

	// Upserts are applied in order, so entries before the bad one landed;
	// callers treat a seed error as fatal at startup.
	labels, err := s.ListLabels(context.Background())
	require.NoError(t, err)
	require.Len(t, labels, 1)
}

func TestSeedFromFile_MissingFile(t *testing.T) {
	_, err := store.SeedFromFile(context.Background(), store.NewInMemory(), "/nonexistent/motifs.yaml")
	require.Error(t, err)
}
