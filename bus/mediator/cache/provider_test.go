package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-research-team/dtx-mediator/bus/mediator/cache"
)

func TestMemoryProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := cache.NewMemoryProvider(time.Minute)
	assert.True(t, p.CheckConnection(ctx))

	value := []byte("payload")
	require.NoError(t, p.Add(ctx, "key", value, 0))
	value[0] = 'X'

	got, found, err := p.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), got, "провайдер хранит копию значения")

	exists, err := p.Exist(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, p.Delete(ctx, "key"))
	_, found, err = p.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryProvider_Expiration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := cache.NewMemoryProvider(time.Minute)

	require.NoError(t, p.Add(ctx, "short", []byte("v"), 10*time.Millisecond))

	assert.Eventually(t, func() bool {
		exists, err := p.Exist(ctx, "short")
		return err == nil && !exists
	}, time.Second, 5*time.Millisecond)
}

func TestCacheType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", cache.CacheTypeNone.String())
	assert.Equal(t, "distributed", cache.CacheTypeDistributed.String())
	assert.Equal(t, "unknown", cache.CacheType(42).String())
}
