package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/internal/service"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/response"
)

// MessageHandler covers the public contact form and the admin inbox.
type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Submit godoc
// @Summary Submit contact message
// @Description Public contact form; rate limited per client IP
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body models.ContactRequest true "Contact payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /contact [post]
func (h *MessageHandler) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact payload"))
		return
	}

	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, msg)
}

// List godoc
// @Summary List contact messages
// @Tags Messages
// @Produce json
// @Param unread query bool false "Only unread (true) or only read (false)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	var filter models.MessageFilter
	if raw := c.Query("unread"); raw != "" {
		if unread, err := strconv.ParseBool(raw); err == nil {
			filter.Unread = &unread
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	messages, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, pagination)
}

// MarkRead godoc
// @Summary Mark message as read
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "marked as read"}, nil)
}

// Delete godoc
// @Summary Delete message
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Export godoc
// @Summary Export contact messages
// @Description Download the inbox as CSV or PDF
// @Tags Messages
// @Produce octet-stream
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /admin/messages/export [get]
func (h *MessageHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	data, contentType, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("messages_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
