package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/aigate/backend/internal/domain/account"
	"github.com/aigate/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTally(t *testing.T) {
	t.Run("orders by count then key", func(t *testing.T) {
		stats, err := parseTally(map[string]string{
			"GET /dashboard":                      "4",
			"POST /generate":                      "9",
			"GET /admin/users":                    "4",
			"PATCH /admin/user/3/reset-api-calls": "1",
		})
		require.NoError(t, err)

		assert.Equal(t, []account.EndpointStat{
			{Method: "POST", Endpoint: "/generate", Count: 9},
			{Method: "GET", Endpoint: "/admin/users", Count: 4},
			{Method: "GET", Endpoint: "/dashboard", Count: 4},
			{Method: "PATCH", Endpoint: "/admin/user/3/reset-api-calls", Count: 1},
		}, stats)
	})

	t.Run("rejects malformed field", func(t *testing.T) {
		_, err := parseTally(map[string]string{"nospace": "1"})
		assert.Error(t, err)
	})

	t.Run("rejects malformed count", func(t *testing.T) {
		_, err := parseTally(map[string]string{"GET /": "many"})
		assert.Error(t, err)
	})
}

func TestInMemoryEndpointTally(t *testing.T) {
	tally := NewInMemoryEndpointTally()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tally.Record(ctx, "POST", "/generate")
		}()
	}
	wg.Wait()
	require.NoError(t, tally.Record(ctx, "GET", "/health"))

	stats, err := tally.List(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, account.EndpointStat{Method: "POST", Endpoint: "/generate", Count: 50}, stats[0])
	assert.Equal(t, int64(1), stats[1].Count)
}

func TestEndpointTallyFactory(t *testing.T) {
	ctx := context.Background()
	fallback := NewInMemoryEndpointTally()

	t.Run("redis disabled uses fallback", func(t *testing.T) {
		f := NewEndpointTallyFactory(config.RedisConfig{Enabled: false}, fallback)

		tally, client, err := f.Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.Same(t, fallback, tally)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		f := NewEndpointTallyFactory(unreachable, fallback)

		tally, client, err := f.Create(ctx)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.Same(t, fallback, tally)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewEndpointTallyFactory(unreachable, fallback, WithFallback(false))

		_, _, err := f.Create(ctx)
		assert.Error(t, err)
	})

	t.Run("nil fallback becomes in-memory", func(t *testing.T) {
		f := NewEndpointTallyFactory(config.RedisConfig{}, nil)

		tally, _, err := f.Create(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryEndpointTally{}, tally)
	})
}
