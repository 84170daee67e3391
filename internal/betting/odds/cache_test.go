package odds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheHitMissExpiry(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.Now = func() time.Time { return now }

	// miss inicial
	_, ok, err := c.Get(ctx, "basketball_nba", DefaultMarkets)
	require.NoError(t, err)
	assert.False(t, ok)

	games := []Game{{ID: "g1", HomeTeam: "Lakers", AwayTeam: "Celtics"}}
	require.NoError(t, c.Set(ctx, "basketball_nba", DefaultMarkets, games))

	// hit dentro do TTL
	got, ok, err := c.Get(ctx, "basketball_nba", DefaultMarkets)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, games, got)

	// chave é por esporte+mercados
	_, ok, err = c.Get(ctx, "basketball_nba", "h2h")
	require.NoError(t, err)
	assert.False(t, ok)

	// expira exatamente no TTL
	now = now.Add(time.Hour)
	_, ok, err = c.Get(ctx, "basketball_nba", DefaultMarkets)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour)

	require.NoError(t, c.Set(ctx, "soccer_epl", DefaultMarkets, []Game{{ID: "g1"}}))
	require.NoError(t, c.Delete(ctx, "soccer_epl", DefaultMarkets))

	_, ok, err := c.Get(ctx, "soccer_epl", DefaultMarkets)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("basketball_nba"))
	assert.False(t, IsSupported("curling_olympics"))
}
