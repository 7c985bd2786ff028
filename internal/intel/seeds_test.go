package intel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceKeywordSeeds(t *testing.T) {
	t.Parallel()

	seeds := ServiceKeywordSeeds("Plumber", "Gilbert", 10)
	require.Len(t, seeds, 10)
	require.Equal(t, "plumber gilbert", seeds[0])
	require.Contains(t, seeds, "emergency plumber gilbert")
	require.Contains(t, seeds, "plumber near me")
}

func TestServiceKeywordSeedsCount(t *testing.T) {
	t.Parallel()

	require.Len(t, ServiceKeywordSeeds("plumber", "gilbert", 3), 3)
	require.Len(t, ServiceKeywordSeeds("plumber", "gilbert", 0), 10)
	require.Nil(t, ServiceKeywordSeeds("", "gilbert", 5))
}
