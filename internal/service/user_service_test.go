package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
)

type mockDirectoryRepo struct {
	users       map[string]*models.User
	listErr     error
	deactivated []string
}

func (m *mockDirectoryRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockDirectoryRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockDirectoryRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if u, ok := m.users[id]; ok {
		u.Active = false
		u.RefreshToken = nil
	}
	return nil
}

func TestUserServiceListDefaultsPagination(t *testing.T) {
	repo := &mockDirectoryRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "a@example.com"},
	}}
	svc := NewUserService(repo, zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceListError(t *testing.T) {
	repo := &mockDirectoryRepo{listErr: errors.New("db down")}
	svc := NewUserService(repo, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(&mockDirectoryRepo{users: map[string]*models.User{}}, zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeactivate(t *testing.T) {
	repo := &mockDirectoryRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Active: true},
	}}
	svc := NewUserService(repo, zap.NewNop())

	require.NoError(t, svc.Deactivate(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, repo.deactivated)
	assert.False(t, repo.users["u1"].Active)
}

func TestUserServiceDeactivateUnknown(t *testing.T) {
	svc := NewUserService(&mockDirectoryRepo{users: map[string]*models.User{}}, zap.NewNop())

	err := svc.Deactivate(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
