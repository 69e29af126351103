package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/embassy-gov/portal-api/internal/models"
)

const messageColumns = `id, name, email, subject, body, read, created_at`

// MessageRepository provides database access for the contact inbox.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new contact message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO contact_messages (id, name, email, subject, body, read, created_at) VALUES (:id, :name, :email, :subject, :body, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// FindByID returns a message by identifier.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM contact_messages WHERE id = $1 LIMIT 1`
	var msg models.ContactMessage
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find contact message: %w", err)
	}
	return &msg, nil
}

// List returns inbox messages matching the filter, newest first.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.ContactMessage, int, error) {
	baseQuery := `FROM contact_messages WHERE 1=1`
	var args []interface{}

	if filter.Unread != nil {
		baseQuery += fmt.Sprintf(" AND read = $%d", len(args)+1)
		args = append(args, !*filter.Unread)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", messageColumns, baseQuery, pageSize, offset)

	var messages []models.ContactMessage
	if err := r.db.SelectContext(ctx, &messages, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	return messages, total, nil
}

// MarkRead flags a message as handled.
func (r *MessageRepository) MarkRead(ctx context.Context, id string) error {
	const query = `UPDATE contact_messages SET read = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark contact message read: %w", err)
	}
	return nil
}

// Delete removes a message permanently.
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM contact_messages WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return nil
}
