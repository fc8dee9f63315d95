package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStore is the category persistence CatalogService needs.
type CatalogStore interface {
	ListActiveCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

// CategoryCache memoizes the category listing. GetCategories returns
// redisclient.ErrCacheMiss when nothing is cached.
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	SetCategories(ctx context.Context, categories []models.Category, ttl time.Duration) error
	InvalidateCategories(ctx context.Context) error
}

// CreateCategoryRequest is the operator payload for a new category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Slug string `json:"slug" binding:"omitempty,max=100"`
}

// CatalogService serves the category listing through a TTL cache
type CatalogService struct {
	store  CatalogStore
	cache  CategoryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache CategoryCache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// ListCategories returns active categories, from cache when fresh.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCategories")
	defer span.End()

	if s.cache != nil {
		categories, err := s.cache.GetCategories(ctx)
		switch {
		case err == nil:
			util.CategoryCacheLookups.WithLabelValues("hit").Inc()
			return categories, nil
		case errors.Is(err, redisclient.ErrCacheMiss):
			util.CategoryCacheLookups.WithLabelValues("miss").Inc()
		default:
			util.CategoryCacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("Category cache read failed, falling back to store", zap.Error(err))
		}
	}

	categories, err := s.store.ListActiveCategories(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCategories(ctx, categories, s.ttl); err != nil {
			s.logger.Warn("Failed to cache categories", zap.Error(err))
		}
	}

	return categories, nil
}

// CreateCategory stores a category and drops the cached listing
func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}

	category := &models.Category{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Slug:      slug,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	s.InvalidateCategories(ctx)
	return category, nil
}

// InvalidateCategories drops the cached listing; call after any category write.
func (s *CatalogService) InvalidateCategories(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCategories(ctx); err != nil {
		s.logger.Error("Failed to invalidate category cache", zap.Error(err))
	}
}

func slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
