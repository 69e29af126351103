package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/internal/service"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/response"
)

// PostHandler serves the public news feed and the admin post editor.
type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{service: svc}
}

// PublicList godoc
// @Summary List published posts
// @Description Published posts only, newest first; results are served from cache when warm
// @Tags Posts
// @Produce json
// @Param tag query string false "Filter by tag"
// @Param search query string false "Match title or summary"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) PublicList(c *gin.Context) {
	filter := h.parseFilter(c)

	posts, pagination, cacheHit, err := h.service.PublicList(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Cache", cacheStatus(cacheHit))
	response.JSON(c, http.StatusOK, posts, pagination)
}

// PublicGet godoc
// @Summary Get published post by slug
// @Tags Posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{slug} [get]
func (h *PostHandler) PublicGet(c *gin.Context) {
	post, err := h.service.PublicGet(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// AdminList godoc
// @Summary List all posts
// @Description Includes drafts; admin only
// @Tags Posts
// @Produce json
// @Param published query bool false "Filter by published state"
// @Param tag query string false "Filter by tag"
// @Param search query string false "Match title or summary"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/posts [get]
func (h *PostHandler) AdminList(c *gin.Context) {
	filter := h.parseFilter(c)
	if raw := c.Query("published"); raw != "" {
		if published, err := strconv.ParseBool(raw); err == nil {
			filter.Published = &published
		}
	}

	posts, pagination, err := h.service.AdminList(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, posts, pagination)
}

// Create godoc
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Param payload body models.CreatePostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}

	post, err := h.service.Create(c.Request.Context(), principal.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, post)
}

// Update godoc
// @Summary Update post
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param payload body models.UpdatePostRequest true "Post payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/posts/{id} [put]
func (h *PostHandler) Update(c *gin.Context) {
	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid post payload"))
		return
	}

	post, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, post, nil)
}

// Delete godoc
// @Summary Delete post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func (h *PostHandler) parseFilter(c *gin.Context) models.PostFilter {
	filter := models.PostFilter{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return filter
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
