package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
)

const postListCachePrefix = "posts:list:"

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, int, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

type postCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

type cachedPostList struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
}

// PostService provides the blog/news use cases. Public listings are cached;
// admin writes invalidate the cache.
type PostService struct {
	repo      postRepository
	cache     postCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewPostService constructs a PostService instance.
func NewPostService(repo postRepository, cache postCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &PostService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// PublicList returns published posts for the site, served from cache when
// possible. The boolean reports a cache hit.
func (s *PostService) PublicList(ctx context.Context, filter models.PostFilter) ([]models.Post, *models.Pagination, bool, error) {
	published := true
	filter.Published = &published

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 10
	}
	filter.Page = page
	filter.PageSize = pageSize

	key := fmt.Sprintf("%sp%d:s%d:tag:%s:q:%s", postListCachePrefix, page, pageSize, filter.Tag, filter.Search)

	if s.cache != nil {
		start := time.Now()
		var cached cachedPostList
		err := s.cache.Get(ctx, key, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return cached.Posts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: cached.Total}, true, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("post list cache read failed", zap.Error(err))
		}
	}

	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}

	if s.cache != nil {
		start := time.Now()
		if err := s.cache.Set(ctx, key, cachedPostList{Posts: posts, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("post list cache write failed", zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}

	return posts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, false, nil
}

// PublicGet returns a single published post by slug.
func (s *PostService) PublicGet(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if !post.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	return post, nil
}

// AdminList returns all posts regardless of publication state.
func (s *PostService) AdminList(ctx context.Context, filter models.PostFilter) ([]models.Post, *models.Pagination, error) {
	posts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 10
	}
	return posts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create publishes a new post authored by the given admin.
func (s *PostService) Create(ctx context.Context, authorID string, req models.CreatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	post := &models.Post{
		Title:     req.Title,
		Slug:      req.Slug,
		Summary:   req.Summary,
		Body:      req.Body,
		Tags:      normalizeTags(req.Tags),
		Published: req.Published,
		AuthorID:  authorID,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}

	s.invalidateListCache(ctx)
	return post, nil
}

// Update edits an existing post.
func (s *PostService) Update(ctx context.Context, id string, req models.UpdatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	post.Title = req.Title
	post.Summary = req.Summary
	post.Body = req.Body
	post.Tags = normalizeTags(req.Tags)
	post.Published = req.Published

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}

	s.invalidateListCache(ctx)
	return post, nil
}

// Delete removes a post permanently.
func (s *PostService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}

	s.invalidateListCache(ctx)
	return nil
}

// normalizeTags lowercases a comma-joined tag string and strips whitespace
// around each tag so the repository's delimiter match stays exact.
func normalizeTags(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, ",")
	tags := parts[:0]
	for _, part := range parts {
		if tag := strings.ToLower(strings.TrimSpace(part)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return strings.Join(tags, ",")
}

func (s *PostService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, postListCachePrefix); err != nil {
		s.logger.Warn("post list cache invalidation failed", zap.Error(err))
	}
}
