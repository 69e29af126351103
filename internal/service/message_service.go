package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/export"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	FindByID(ctx context.Context, id string) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.MessageFilter) ([]models.ContactMessage, int, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// MessageService provides the contact inbox use cases.
type MessageService struct {
	repo      messageRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService instance.
func NewMessageService(repo messageRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &MessageService{
		repo:      repo,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Submit stores a message from the public contact form.
func (s *MessageService) Submit(ctx context.Context, req models.ContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// List returns inbox messages for the admin view.
func (s *MessageService) List(ctx context.Context, filter models.MessageFilter) ([]models.ContactMessage, *models.Pagination, error) {
	messages, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return messages, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MarkRead flags a message as handled.
func (s *MessageService) MarkRead(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	return nil
}

// Delete removes a message permanently.
func (s *MessageService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete message")
	}
	return nil
}

// exportPageSize matches the repository's maximum page size.
const exportPageSize = 100

// Export renders the full inbox as CSV or PDF bytes, paging through the
// repository until every message is collected.
func (s *MessageService) Export(ctx context.Context, format string) ([]byte, string, error) {
	var messages []models.ContactMessage
	for page := 1; ; page++ {
		batch, total, err := s.repo.List(ctx, models.MessageFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
		}
		messages = append(messages, batch...)
		if len(batch) < exportPageSize || len(messages) >= total {
			break
		}
	}

	dataset := export.Dataset{
		Headers: []string{"Received", "Name", "Email", "Subject", "Read"},
	}
	for _, msg := range messages {
		read := "no"
		if msg.Read {
			read = "yes"
		}
		dataset.Rows = append(dataset.Rows, []string{
			msg.CreatedAt.Format("2006-01-02 15:04"),
			msg.Name,
			msg.Email,
			msg.Subject,
			read,
		})
	}

	switch format {
	case "csv":
		raw, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return raw, "text/csv", nil
	case "pdf":
		raw, err := s.pdf.Render(dataset, "Contact messages")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return raw, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *MessageService) find(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	return msg, nil
}
