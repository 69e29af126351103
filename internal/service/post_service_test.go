package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
)

type mockPostRepo struct {
	posts      map[string]*models.Post
	listCalls  int
	listResult []models.Post
	listTotal  int
	listErr    error
}

func newMockPostRepo(posts ...*models.Post) *mockPostRepo {
	m := &mockPostRepo{posts: make(map[string]*models.Post)}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.Post) error {
	for _, p := range m.posts {
		if p.Slug == post.Slug {
			return appErrors.Clone(appErrors.ErrConflict, "slug already in use")
		}
	}
	post.ID = "generated"
	m.posts[post.ID] = post
	return nil
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockPostRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPostRepo) List(ctx context.Context, filter models.PostFilter) ([]models.Post, int, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockPostRepo) Update(ctx context.Context, post *models.Post) error {
	m.posts[post.ID] = post
	return nil
}

func (m *mockPostRepo) Delete(ctx context.Context, id string) error {
	delete(m.posts, id)
	return nil
}

// memoryCache is an in-process stand-in for the Redis-backed repository.
type memoryCache struct {
	entries     map[string][]byte
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	c.invalidated++
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

func TestPublicListCachesResults(t *testing.T) {
	repo := newMockPostRepo()
	repo.listResult = []models.Post{{ID: "p1", Title: "Visa hours", Slug: "visa-hours", Published: true}}
	repo.listTotal = 1
	cache := newMemoryCache()
	svc := NewPostService(repo, cache, nil, nil, zap.NewNop(), time.Minute)

	posts, pagination, hit, err := svc.PublicList(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, repo.listCalls)

	// second call is served from cache, no repo round trip
	posts, _, hit, err = svc.PublicList(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, posts, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestPublicListDistinctFiltersDistinctKeys(t *testing.T) {
	repo := newMockPostRepo()
	repo.listResult = []models.Post{}
	cache := newMemoryCache()
	svc := NewPostService(repo, cache, nil, nil, zap.NewNop(), time.Minute)

	_, _, _, err := svc.PublicList(context.Background(), models.PostFilter{Tag: "consular"})
	require.NoError(t, err)
	_, _, _, err = svc.PublicList(context.Background(), models.PostFilter{Tag: "events"})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestPublicListWorksWithoutCache(t *testing.T) {
	repo := newMockPostRepo()
	repo.listResult = []models.Post{{ID: "p1", Published: true}}
	repo.listTotal = 1
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	posts, _, hit, err := svc.PublicList(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, posts, 1)
}

func TestPublicGetHidesUnpublished(t *testing.T) {
	repo := newMockPostRepo(&models.Post{ID: "p1", Slug: "draft-post", Published: false})
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.PublicGet(context.Background(), "draft-post")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.PublicGet(context.Background(), "no-such-slug")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateInvalidatesCache(t *testing.T) {
	repo := newMockPostRepo()
	repo.listResult = []models.Post{}
	cache := newMemoryCache()
	svc := NewPostService(repo, cache, nil, nil, zap.NewNop(), time.Minute)

	// warm the cache
	_, _, _, err := svc.PublicList(context.Background(), models.PostFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	_, err = svc.Create(context.Background(), "admin-1", models.CreatePostRequest{
		Title: "New opening hours",
		Slug:  "new-opening-hours",
		Body:  "The consular section moves to morning-only service.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)
	assert.Empty(t, cache.entries)
}

func TestCreateNormalizesTags(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	post, err := svc.Create(context.Background(), "admin-1", models.CreatePostRequest{
		Title: "Consular notice",
		Slug:  "consular-notice",
		Body:  "Passport collection resumes on Monday.",
		Tags:  "Consular, Visa ,  passports",
	})
	require.NoError(t, err)
	assert.Equal(t, "consular,visa,passports", post.Tags)
}

func TestCreateDuplicateSlug(t *testing.T) {
	repo := newMockPostRepo(&models.Post{ID: "p1", Slug: "taken"})
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.Create(context.Background(), "admin-1", models.CreatePostRequest{
		Title: "Another post",
		Slug:  "taken",
		Body:  "body",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateKeepsSlug(t *testing.T) {
	repo := newMockPostRepo(&models.Post{ID: "p1", Slug: "stable-slug", Title: "Old"})
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	post, err := svc.Update(context.Background(), "p1", models.UpdatePostRequest{
		Title: "New title",
		Body:  "updated body",
	})
	require.NoError(t, err)
	assert.Equal(t, "stable-slug", post.Slug)
	assert.Equal(t, "New title", post.Title)
}

func TestUpdateNotFound(t *testing.T) {
	repo := newMockPostRepo()
	svc := NewPostService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	_, err := svc.Update(context.Background(), "ghost", models.UpdatePostRequest{Title: "New title", Body: "body"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	repo := newMockPostRepo(&models.Post{ID: "p1", Slug: "bye"})
	cache := newMemoryCache()
	svc := NewPostService(repo, cache, nil, nil, zap.NewNop(), time.Minute)

	require.NoError(t, svc.Delete(context.Background(), "p1"))
	assert.Equal(t, 1, cache.invalidated)
	assert.Empty(t, repo.posts)
}
