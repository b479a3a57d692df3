package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	id "contraventions/pkg/domain"
)

func TestParseMotifLabel(t *testing.T) {
	label, err := id.ParseMotifLabel("  TAPAGE_NOCTURNE  ")
	require.NoError(t, err)
	require.Equal(t, id.MotifLabel("TAPAGE_NOCTURNE"), label)

	for _, in := range []string{"", "   ", "\t"} {
		_, err := id.ParseMotifLabel(in)
		require.Error(t, err, "input %q", in)
	}
}
