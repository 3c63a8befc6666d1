package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type mockUserRepo struct {
	byID        map[string]models.UserDetail
	takenEmails map[string]bool
	requestRefs map[string]int

	created *models.User
	updated *models.User
	deleted []string
}

func (m *mockUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.UserDetail, error) {
	out := make([]models.UserDetail, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.UserDetail, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string, _ string) (bool, error) {
	return m.takenEmails[email], nil
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "user-new"
	m.created = user
	if m.byID == nil {
		m.byID = map[string]models.UserDetail{}
	}
	m.byID[user.ID] = models.UserDetail{User: *user}
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	m.updated = user
	m.byID[user.ID] = models.UserDetail{User: *user}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.byID, id)
	return nil
}

func (m *mockUserRepo) CountRequestReferences(_ context.Context, id string) (int, error) {
	return m.requestRefs[id], nil
}

var adminActor = authz.Actor{ID: "admin-1", Role: models.RoleAdmin}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{takenEmails: map[string]bool{}}
	svc := NewUserService(repo, zap.NewNop())

	created, err := svc.Create(context.Background(), adminActor, models.CreateUserRequest{
		Email:    "new@gearguard.io",
		Password: "s3cret-pass",
		Name:     "New Tech",
		Role:     models.RoleTechnician,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, created.ID, repo.created.ID)

	err = bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("s3cret-pass"))
	assert.NoError(t, err, "password stored as a bcrypt hash")
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{takenEmails: map[string]bool{"taken@gearguard.io": true}}
	svc := NewUserService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), adminActor, models.CreateUserRequest{
		Email:    "taken@gearguard.io",
		Password: "s3cret-pass",
		Name:     "Dup",
		Role:     models.RoleGeneral,
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.Nil(t, repo.created)
}

func TestUserServiceCreateDenied(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, zap.NewNop())
	manager := authz.Actor{ID: "m", Role: models.RoleManager}

	_, err := svc.Create(context.Background(), manager, models.CreateUserRequest{
		Email:    "x@gearguard.io",
		Password: "s3cret-pass",
		Name:     "X",
		Role:     models.RoleGeneral,
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestUserServiceUpdateDetachesTeam(t *testing.T) {
	teamID := "team-1"
	repo := &mockUserRepo{
		byID: map[string]models.UserDetail{
			"user-1": {User: models.User{ID: "user-1", Email: "u@gearguard.io", Role: models.RoleTechnician, TeamID: &teamID}},
		},
		takenEmails: map[string]bool{},
	}
	svc := NewUserService(repo, zap.NewNop())

	_, err := svc.Update(context.Background(), adminActor, "user-1", models.UpdateUserRequest{
		TeamID: models.Null[string](),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Nil(t, repo.updated.TeamID)
}

func TestUserServiceDeleteBlockedByReferences(t *testing.T) {
	repo := &mockUserRepo{
		byID:        map[string]models.UserDetail{"user-1": {User: models.User{ID: "user-1"}}},
		requestRefs: map[string]int{"user-1": 3},
	}
	svc := NewUserService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), adminActor, "user-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrConflict))
	assert.Empty(t, repo.deleted)
}

func TestUserServiceDeleteMissing(t *testing.T) {
	repo := &mockUserRepo{byID: map[string]models.UserDetail{}}
	svc := NewUserService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), adminActor, "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
