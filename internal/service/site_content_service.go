package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/validation"
)

// Editable site copy keys.
const (
	SiteKeyHeroTitle    = "hero_title"
	SiteKeyHeroSubtitle = "hero_subtitle"
	SiteKeyAboutText    = "about_text"
	SiteKeyContactPhone = "contact_phone"
	SiteKeyContactEmail = "contact_email"
	SiteKeyFooterText   = "footer_text"
	SiteKeyChatWelcome  = "chat_welcome"
)

const siteContentCacheKey = "site:content"

var siteContentDefaults = map[string]string{
	SiteKeyHeroTitle:    "Coding classes for curious kids",
	SiteKeyHeroSubtitle: "Scratch, Python and robotics for grades 1 to 12",
	SiteKeyAboutText:    "",
	SiteKeyContactPhone: "",
	SiteKeyContactEmail: "",
	SiteKeyFooterText:   "",
	SiteKeyChatWelcome:  "Hi! Leave us a message and our team will reply shortly.",
}

type siteContentRepository interface {
	List(ctx context.Context) ([]models.SiteContent, error)
	BulkUpsert(ctx context.Context, items []models.SiteContent) error
}

// SiteContentService serves the editable texts shown on the public site.
type SiteContentService struct {
	repo      siteContentRepository
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewSiteContentService constructs the service. cache may be nil.
func NewSiteContentService(repo siteContentRepository, cache *CacheService, validator *validation.Validator, logger *zap.Logger) *SiteContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &SiteContentService{repo: repo, cache: cache, validator: validator, logger: logger}
}

// All returns every known key, with stored values overriding the defaults.
func (s *SiteContentService) All(ctx context.Context) (map[string]string, error) {
	content, _, err := cached(ctx, s.cache, siteContentCacheKey, s.load)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load site content")
	}
	return content, nil
}

// Value returns a single text, falling back to its default when storage is unavailable.
func (s *SiteContentService) Value(ctx context.Context, key string) string {
	content, err := s.All(ctx)
	if err != nil {
		s.logger.Warn("site content unavailable", zap.String("key", key), zap.Error(err))
		return siteContentDefaults[key]
	}
	return content[key]
}

// Update stores the given texts. Unknown keys reject the whole request.
func (s *SiteContentService) Update(ctx context.Context, actor models.UserInfo, req dto.BulkSiteContentRequest) (map[string]string, error) {
	if err := validateStruct(s.validator, req, "invalid site content payload"); err != nil {
		return nil, err
	}

	unknown := map[string]string{}
	items := make([]models.SiteContent, 0, len(req.Items))
	for _, item := range req.Items {
		key := strings.TrimSpace(item.Key)
		if _, ok := siteContentDefaults[key]; !ok {
			unknown[key] = "unknown key, allowed: " + strings.Join(SiteContentKeys(), " ")
			continue
		}
		items = append(items, models.SiteContent{Key: key, Value: strings.TrimSpace(item.Value), UpdatedBy: optional(actor.ID)})
	}
	if len(unknown) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, unknown)
	}

	if err := s.repo.BulkUpsert(ctx, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save site content")
	}
	_ = s.cache.Invalidate(ctx, siteContentCacheKey)
	return s.load(ctx)
}

// SiteContentKeys lists the editable keys in sorted order.
func SiteContentKeys() []string {
	keys := make([]string, 0, len(siteContentDefaults))
	for key := range siteContentDefaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *SiteContentService) load(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	content := make(map[string]string, len(siteContentDefaults))
	for key, value := range siteContentDefaults {
		content[key] = value
	}
	for _, item := range stored {
		if _, ok := content[item.Key]; ok {
			content[item.Key] = item.Value
		}
	}
	return content, nil
}
