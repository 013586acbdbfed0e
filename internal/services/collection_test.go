package services_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
	"github.com/prxgr4mmer/ally-watchlists/internal/services"
)

func newTestCollection(broker *fakeBroker, clock *fakeClock) *services.Collection {
	return services.NewCollection(broker, staticAuth{},
		services.WithClock(clock.Now),
		services.WithLogger(newTestLogger()),
	)
}

func TestCollection_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns proxy populated from one fetch", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("tech", "AAPL", "GOOGL")
		c := newTestCollection(broker, newFakeClock())

		proxy, err := c.Get(ctx, "tech")
		require.NoError(t, err)
		assert.Equal(t, "tech", proxy.Name())
		assert.Equal(t, []string{"AAPL", "GOOGL"}, proxy.Symbols())
		assert.Equal(t, []string{"FetchOne"}, broker.ops())
	})

	t.Run("empty list is not fetched twice", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("empty")
		c := newTestCollection(broker, newFakeClock())

		proxy, err := c.Get(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, 0, proxy.Len())
		assert.Equal(t, 1, broker.count("FetchOne"))
	})

	t.Run("missing watchlist is not found", func(t *testing.T) {
		for _, name := range []string{"nope", "DEFAULT", "tech-2"} {
			c := newTestCollection(newFakeBroker(), newFakeClock())
			_, err := c.Get(ctx, name)
			assert.ErrorIs(t, err, domain.ErrWatchlistNotFound, name)
		}
	})
}

func TestCollection_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("created list reads back as the same set", func(t *testing.T) {
		tests := []struct {
			name    string
			symbols []string
			want    []string
		}{
			{name: "two symbols", symbols: []string{"AAPL", "GOOGL"}, want: []string{"AAPL", "GOOGL"}},
			{name: "single symbol", symbols: []string{"MSFT"}, want: []string{"MSFT"}},
			{name: "duplicates collapse", symbols: []string{"AAPL", "AAPL", "TSLA"}, want: []string{"AAPL", "TSLA"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := newTestCollection(newFakeBroker(), newFakeClock())

				_, err := c.Set(ctx, "w1", tt.symbols...)
				require.NoError(t, err)

				proxy, err := c.Get(ctx, "w1")
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.want, slices.Collect(proxy.All()))
			})
		}
	})

	t.Run("new name is created without delete", func(t *testing.T) {
		broker := newFakeBroker()
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Set(ctx, "w1", "AAPL")
		require.NoError(t, err)
		assert.Equal(t, []string{"FetchAll", "Create"}, broker.ops())
	})

	t.Run("existing name is deleted before create", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("w1", "TSLA")
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Set(ctx, "w1", "AAPL", "GOOGL")
		require.NoError(t, err)
		assert.Equal(t, []string{"FetchAll", "DeleteList", "Create"}, broker.ops())

		proxy, err := c.Get(ctx, "w1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"AAPL", "GOOGL"}, proxy.Symbols())
	})

	t.Run("delete failure stops the create", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("w1", "TSLA")
		broker.failOn["DeleteList"] = domain.NewRemoteError("DeleteList", 500, "internal")
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Set(ctx, "w1", "AAPL")
		assert.ErrorIs(t, err, domain.ErrRemote)
		assert.Equal(t, 0, broker.count("Create"))
	})

	t.Run("returned proxy is optimistic", func(t *testing.T) {
		broker := newFakeBroker()
		c := newTestCollection(broker, newFakeClock())

		proxy, err := c.Set(ctx, "w1", "AAPL", "GOOGL")
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "GOOGL"}, proxy.Symbols())
		assert.Equal(t, 0, broker.count("FetchOne"))
	})

	t.Run("create error propagates", func(t *testing.T) {
		broker := newFakeBroker()
		broker.failOn["Create"] = domain.NewTransportError("Create", errors.New("connection reset"))
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Set(ctx, "w1", "AAPL")
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestCollection_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted list is not found afterwards", func(t *testing.T) {
		c := newTestCollection(newFakeBroker(), newFakeClock())

		_, err := c.Set(ctx, "w1", "AAPL", "GOOGL")
		require.NoError(t, err)
		require.NoError(t, c.Delete(ctx, "w1"))

		_, err = c.Get(ctx, "w1")
		assert.ErrorIs(t, err, domain.ErrWatchlistNotFound)
	})

	t.Run("remote failure is returned", func(t *testing.T) {
		c := newTestCollection(newFakeBroker(), newFakeClock())

		err := c.Delete(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrRemote)
	})

	t.Run("cached names survive the delete until expiry", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("w1", "AAPL")
		clock := newFakeClock()
		c := newTestCollection(broker, clock)

		ok, err := c.Contains(ctx, "w1")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, c.Delete(ctx, "w1"))

		ok, err = c.Contains(ctx, "w1")
		require.NoError(t, err)
		assert.True(t, ok, "name cache is not invalidated by writes")

		clock.Advance(800 * time.Millisecond)
		ok, err = c.Contains(ctx, "w1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 2, broker.count("FetchAll"))
	})
}

func TestCollection_Ping(t *testing.T) {
	ctx := context.Background()

	t.Run("bypasses the name cache", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("DEFAULT")
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Names(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Ping(ctx))
		require.NoError(t, c.Ping(ctx))
		assert.Equal(t, 3, broker.count("FetchAll"))

		_, err = c.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, broker.count("FetchAll"), "ping leaves the cache alone")
	})

	t.Run("closed collection fails", func(t *testing.T) {
		c := newTestCollection(newFakeBroker(), newFakeClock())
		c.Close()

		assert.ErrorIs(t, c.Ping(ctx), domain.ErrAuthUnavailable)
	})
}

func TestCollection_NameCache(t *testing.T) {
	ctx := context.Background()

	t.Run("reads within ttl share one fetch", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("DEFAULT")
		clock := newFakeClock()
		c := newTestCollection(broker, clock)

		_, err := c.Names(ctx)
		require.NoError(t, err)
		clock.Advance(400 * time.Millisecond)
		n, err := c.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		assert.Equal(t, 1, broker.count("FetchAll"))
	})

	t.Run("read after ttl fetches again", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("DEFAULT")
		clock := newFakeClock()
		c := newTestCollection(broker, clock)

		_, err := c.Names(ctx)
		require.NoError(t, err)
		clock.Advance(751 * time.Millisecond)
		_, err = c.Names(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, broker.count("FetchAll"))
	})

	t.Run("custom ttl", func(t *testing.T) {
		broker := newFakeBroker()
		clock := newFakeClock()
		c := services.NewCollection(broker, staticAuth{},
			services.WithClock(clock.Now),
			services.WithNameTTL(5*time.Second),
			services.WithLogger(newTestLogger()),
		)

		_, _ = c.Names(ctx)
		clock.Advance(4 * time.Second)
		_, _ = c.Names(ctx)
		assert.Equal(t, 1, broker.count("FetchAll"))
	})

	t.Run("iterate and names return copies", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("a")
		broker.seed("b")
		c := newTestCollection(broker, newFakeClock())

		seq, err := c.Iterate(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, slices.Collect(seq))

		names, err := c.Names(ctx)
		require.NoError(t, err)
		names[0] = "mutated"

		again, err := c.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, again)
	})

	t.Run("fetch error propagates", func(t *testing.T) {
		broker := newFakeBroker()
		broker.failOn["FetchAll"] = domain.NewTransportError("FetchAll", errors.New("timeout"))
		c := newTestCollection(broker, newFakeClock())

		_, err := c.Len(ctx)
		assert.ErrorIs(t, err, domain.ErrTransport)
	})
}

func TestCollection_Auth(t *testing.T) {
	ctx := context.Background()

	t.Run("credential failure is a transport error", func(t *testing.T) {
		broker := newFakeBroker()
		c := services.NewCollection(broker, staticAuth{err: domain.ErrAuthUnavailable},
			services.WithLogger(newTestLogger()),
		)

		_, err := c.Get(ctx, "w1")
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.ErrorIs(t, err, domain.ErrAuthUnavailable)
		assert.Empty(t, broker.ops())
	})

	t.Run("proxies fail after the collection is closed", func(t *testing.T) {
		broker := newFakeBroker()
		broker.seed("w1", "AAPL")
		c := newTestCollection(broker, newFakeClock())

		proxy, err := c.Get(ctx, "w1")
		require.NoError(t, err)
		broker.reset()

		c.Close()

		err = proxy.Refresh(ctx)
		assert.ErrorIs(t, err, domain.ErrAuthUnavailable)
		err = proxy.Add(ctx, "MSFT")
		assert.ErrorIs(t, err, domain.ErrAuthUnavailable)
		assert.Empty(t, broker.ops())

		assert.Equal(t, []string{"AAPL"}, proxy.Symbols())
	})
}

func TestScenario_SetThenList(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(newFakeBroker(), newFakeClock())

	_, err := c.Set(ctx, "w1", "AAPL", "GOOGL")
	require.NoError(t, err)

	proxy, err := c.Get(ctx, "w1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL", "GOOGL"}, slices.Collect(proxy.All()))
}
