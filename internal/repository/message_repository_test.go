package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassy-gov/portal-api/internal/models"
)

func newMessageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func messageRows(id string, read bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "subject", "body", "read", "created_at"}).
		AddRow(id, "Ada Lovelace", "ada@example.com", "Visa appointment", "Body text", read, time.Now())
}

func TestMessageRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec("INSERT INTO contact_messages").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.ContactMessage{Name: "Ada Lovelace", Email: "ada@example.com", Subject: "Visa", Body: "Body text"}
	require.NoError(t, repo.Create(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryListUnreadFilter(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+messageColumns+" FROM contact_messages WHERE 1=1 AND read = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(false).
		WillReturnRows(messageRows("m1", false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contact_messages WHERE 1=1 AND read = $1")).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	unread := true
	messages, total, err := repo.List(context.Background(), models.MessageFilter{Unread: &unread})
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_messages SET read = TRUE WHERE id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRead(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM contact_messages WHERE id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
