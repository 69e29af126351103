package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
)

type mockMessageRepo struct {
	messages map[string]*models.ContactMessage
	listErr  error
}

func newMockMessageRepo(messages ...*models.ContactMessage) *mockMessageRepo {
	m := &mockMessageRepo{messages: make(map[string]*models.ContactMessage)}
	for _, msg := range messages {
		m.messages[msg.ID] = msg
	}
	return m
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.ContactMessage) error {
	msg.ID = "generated"
	msg.CreatedAt = time.Now()
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return msg, nil
}

func (m *mockMessageRepo) List(ctx context.Context, filter models.MessageFilter) ([]models.ContactMessage, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.ContactMessage
	for _, msg := range m.messages {
		out = append(out, *msg)
	}
	return out, len(out), nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string) error {
	if msg, ok := m.messages[id]; ok {
		msg.Read = true
	}
	return nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id string) error {
	delete(m.messages, id)
	return nil
}

func TestSubmitStoresMessage(t *testing.T) {
	repo := newMockMessageRepo()
	svc := NewMessageService(repo, nil, zap.NewNop())

	msg, err := svc.Submit(context.Background(), models.ContactRequest{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		Subject: "Visa appointment",
		Body:    "I would like to reschedule my appointment.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Read)
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	repo := newMockMessageRepo()
	svc := NewMessageService(repo, nil, zap.NewNop())

	_, err := svc.Submit(context.Background(), models.ContactRequest{Name: "Ada"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.messages)
}

func TestMarkReadUnknownMessage(t *testing.T) {
	svc := NewMessageService(newMockMessageRepo(), nil, zap.NewNop())

	err := svc.MarkRead(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkReadFlagsMessage(t *testing.T) {
	repo := newMockMessageRepo(&models.ContactMessage{ID: "m1"})
	svc := NewMessageService(repo, nil, zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), "m1"))
	assert.True(t, repo.messages["m1"].Read)
}

func TestExportCSV(t *testing.T) {
	repo := newMockMessageRepo(&models.ContactMessage{
		ID:        "m1",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Subject:   "Visa, appointment",
		Read:      true,
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	})
	svc := NewMessageService(repo, nil, zap.NewNop())

	raw, contentType, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	body := string(raw)
	assert.True(t, strings.HasPrefix(body, "Received,Name,Email,Subject,Read"))
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, `"Visa, appointment"`)
	assert.Contains(t, body, "yes")
}

func TestExportPDF(t *testing.T) {
	repo := newMockMessageRepo(&models.ContactMessage{
		ID:        "m1",
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Subject:   "Visa appointment",
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	})
	svc := NewMessageService(repo, nil, zap.NewNop())

	raw, contentType, err := svc.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

type pagingMessageRepo struct {
	mockMessageRepo
	all       []models.ContactMessage
	listCalls int
}

func (m *pagingMessageRepo) List(ctx context.Context, filter models.MessageFilter) ([]models.ContactMessage, int, error) {
	m.listCalls++
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start > len(m.all) {
		start = len(m.all)
	}
	end := start + pageSize
	if end > len(m.all) {
		end = len(m.all)
	}
	return m.all[start:end], len(m.all), nil
}

func TestExportPagesThroughLargeInbox(t *testing.T) {
	repo := &pagingMessageRepo{}
	for i := 0; i < 150; i++ {
		repo.all = append(repo.all, models.ContactMessage{
			ID:        fmt.Sprintf("msg-%03d", i),
			Name:      "Visitor",
			Email:     "visitor@example.com",
			Subject:   fmt.Sprintf("Enquiry %d", i),
			Body:      "General enquiry about opening hours.",
			CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		})
	}
	svc := NewMessageService(repo, nil, zap.NewNop())

	raw, contentType, err := svc.Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 151, "header plus every message")
	assert.Equal(t, 2, repo.listCalls)
}

func TestExportUnknownFormat(t *testing.T) {
	svc := NewMessageService(newMockMessageRepo(), nil, zap.NewNop())

	_, _, err := svc.Export(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
