package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (o *countingObserver) ObserveListingCache(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func newTestCache(t *testing.T) (*ListingCache, *countingObserver, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	obs := &countingObserver{}
	return NewListingCache(client, time.Minute, nil, obs), obs, mr
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	cache, obs, _ := newTestCache(t)
	ctx := context.Background()
	var loads int32
	loader := func(context.Context) ([]Category, error) {
		atomic.AddInt32(&loads, 1)
		return []Category{{ID: "c1", Name: "Buku"}}, nil
	}

	first, err := Fetch(ctx, cache, "categories", loader)
	require.NoError(t, err)
	second, err := Fetch(ctx, cache, "categories", loader)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = Fetch(ctx, cache, "categories", loader)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&loads))
}

func TestInvalidateIsVisibleToOtherInstances(t *testing.T) {
	first, _, mr := newTestCache(t)
	otherClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = otherClient.Close() })
	other := NewListingCache(otherClient, time.Minute, nil, nil)
	ctx := context.Background()

	var loads int32
	loader := func(context.Context) ([]Category, error) {
		n := atomic.AddInt32(&loads, 1)
		return []Category{{ID: fmt.Sprintf("c%d", n), Name: "SD"}}, nil
	}

	got, err := Fetch(ctx, other, "categories", loader)
	require.NoError(t, err)
	assert.Equal(t, "c1", got[0].ID)

	before, err := other.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Invalidate(ctx))
	after, err := other.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	got, err = Fetch(ctx, other, "categories", loader)
	require.NoError(t, err)
	assert.Equal(t, "c2", got[0].ID)
}

func TestFetchFallsBackWhenRedisDown(t *testing.T) {
	cache, _, mr := newTestCache(t)
	mr.Close()
	got, err := Fetch(context.Background(), cache, "products", func(context.Context) ([]ProductWithDetails, error) {
		return []ProductWithDetails{{Product: Product{ID: "p1"}}}, nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestNilCacheIsPassThrough(t *testing.T) {
	var cache *ListingCache
	require.NoError(t, cache.Invalidate(context.Background()))
	got, err := Fetch(context.Background(), cache, "x", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
