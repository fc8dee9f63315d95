package redisclient

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewFromRedis(rdb), mr
}

func TestGetCategories_Miss(t *testing.T) {
	client, _ := setupTestRedis(t)

	categories, err := client.GetCategories(context.Background())

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, categories)
}

func TestSetAndGetCategories(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	want := []models.Category{
		{ID: "c1", Name: "T-Shirts", Slug: "t-shirts", IsActive: true},
		{ID: "c2", Name: "Mugs", Slug: "mugs", IsActive: true},
	}

	require.NoError(t, client.SetCategories(ctx, want, 5*time.Minute))
	assert.True(t, mr.Exists(categoriesKey))
	assert.Equal(t, 5*time.Minute, mr.TTL(categoriesKey))

	got, err := client.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T-Shirts", got[0].Name)
	assert.Equal(t, "mugs", got[1].Slug)
}

func TestSetCategories_EmptyListIsCached(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetCategories(ctx, nil, time.Minute))

	got, err := client.GetCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCategories_ExpireAfterTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetCategories(ctx, []models.Category{{ID: "c1"}}, time.Minute))

	mr.FastForward(61 * time.Second)

	_, err := client.GetCategories(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInvalidateCategories(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetCategories(ctx, []models.Category{{ID: "c1"}}, time.Minute))
	require.NoError(t, client.InvalidateCategories(ctx))

	assert.False(t, mr.Exists(categoriesKey))
	_, err := client.GetCategories(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(categoriesKey, "not-json"))

	_, err := client.GetCategories(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGetCategories_ServerDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := client.GetCategories(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
