package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/repository"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type mockSiteContentRepo struct {
	items     map[string]models.SiteContent
	listCalls int
	listErr   error
	upserts   [][]models.SiteContent
}

func (m *mockSiteContentRepo) List(ctx context.Context) ([]models.SiteContent, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.SiteContent, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	return out, nil
}

func (m *mockSiteContentRepo) BulkUpsert(ctx context.Context, items []models.SiteContent) error {
	m.upserts = append(m.upserts, items)
	for _, item := range items {
		m.items[item.Key] = item
	}
	return nil
}

func newSiteContentServiceForTest(repo *mockSiteContentRepo) *SiteContentService {
	cache := NewCacheService(repository.NewMemoryCacheRepository(time.Minute), nil, time.Minute, nil, true)
	return NewSiteContentService(repo, cache, nil, nil)
}

func TestSiteContentServiceMergesDefaults(t *testing.T) {
	repo := &mockSiteContentRepo{items: map[string]models.SiteContent{
		SiteKeyHeroTitle: {Key: SiteKeyHeroTitle, Value: "Learn to code"},
		"legacy_key":     {Key: "legacy_key", Value: "ignored"},
	}}
	svc := newSiteContentServiceForTest(repo)

	content, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Learn to code", content[SiteKeyHeroTitle])
	assert.Equal(t, siteContentDefaults[SiteKeyChatWelcome], content[SiteKeyChatWelcome])
	assert.NotContains(t, content, "legacy_key")
	assert.Len(t, content, len(SiteContentKeys()))

	_, err = svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestSiteContentServiceUpdateRejectsUnknownKeys(t *testing.T) {
	repo := &mockSiteContentRepo{items: map[string]models.SiteContent{}}
	svc := newSiteContentServiceForTest(repo)

	_, err := svc.Update(context.Background(), models.UserInfo{ID: "admin-1"}, dto.BulkSiteContentRequest{Items: []dto.SiteContentItem{
		{Key: SiteKeyHeroTitle, Value: "New"},
		{Key: "banner", Value: "nope"},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Fields, "banner")
	assert.Empty(t, repo.upserts)
}

func TestSiteContentServiceUpdateInvalidatesCache(t *testing.T) {
	repo := &mockSiteContentRepo{items: map[string]models.SiteContent{}}
	svc := newSiteContentServiceForTest(repo)
	ctx := context.Background()

	_, err := svc.All(ctx)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, models.UserInfo{ID: "admin-1"}, dto.BulkSiteContentRequest{Items: []dto.SiteContentItem{
		{Key: " footer_text ", Value: " (c) KodKids "},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(c) KodKids", updated[SiteKeyFooterText])
	require.Len(t, repo.upserts, 1)
	require.NotNil(t, repo.upserts[0][0].UpdatedBy)
	assert.Equal(t, "admin-1", *repo.upserts[0][0].UpdatedBy)

	content, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "(c) KodKids", content[SiteKeyFooterText])
}

func TestSiteContentServiceValueFallsBackToDefault(t *testing.T) {
	svc := NewSiteContentService(&mockSiteContentRepo{listErr: errors.New("db down")}, nil, nil, nil)

	assert.Equal(t, siteContentDefaults[SiteKeyChatWelcome], svc.Value(context.Background(), SiteKeyChatWelcome))
}
