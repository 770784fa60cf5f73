package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

func TestMemoryCacheRepositoryRoundTrip(t *testing.T) {
	repo := NewMemoryCacheRepository(time.Minute)
	ctx := context.Background()

	var miss []models.Course
	assert.ErrorIs(t, repo.Get(ctx, "catalog:courses", &miss), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "catalog:courses", []models.Course{{ID: "c1", Title: "Python"}}, time.Minute))

	var hit []models.Course
	require.NoError(t, repo.Get(ctx, "catalog:courses", &hit))
	require.Len(t, hit, 1)
	assert.Equal(t, "Python", hit[0].Title)
}

func TestMemoryCacheRepositoryDeleteByPattern(t *testing.T) {
	repo := NewMemoryCacheRepository(time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "catalog:courses", "a", 0))
	require.NoError(t, repo.Set(ctx, "catalog:course:c1", "b", 0))
	require.NoError(t, repo.Set(ctx, "site:content", "c", 0))

	require.NoError(t, repo.DeleteByPattern(ctx, "catalog:*"))

	var value string
	assert.ErrorIs(t, repo.Get(ctx, "catalog:courses", &value), appErrors.ErrCacheMiss)
	assert.ErrorIs(t, repo.Get(ctx, "catalog:course:c1", &value), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Get(ctx, "site:content", &value))
	assert.Equal(t, "c", value)
}
