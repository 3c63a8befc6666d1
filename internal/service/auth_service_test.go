package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/config"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type mockAuthUserRepo struct {
	byEmail map[string]models.UserDetail
	byID    map[string]models.UserDetail
	tokens  map[string]models.RefreshToken

	createdTokens []models.RefreshToken
	revokedIDs    []string
}

func (m *mockAuthUserRepo) FindByEmail(_ context.Context, email string) (*models.UserDetail, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *mockAuthUserRepo) FindByID(_ context.Context, id string) (*models.UserDetail, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *mockAuthUserRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.createdTokens = append(m.createdTokens, *token)
	if m.tokens == nil {
		m.tokens = map[string]models.RefreshToken{}
	}
	m.tokens[token.Token] = *token
	return nil
}

func (m *mockAuthUserRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (m *mockAuthUserRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	for key, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			m.tokens[key] = t
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	teamID := "team-1"
	user := models.UserDetail{User: models.User{
		ID:           "user-1",
		Email:        "tech@gearguard.io",
		PasswordHash: string(hash),
		Name:         "Test Technician",
		Role:         models.RoleTechnician,
		TeamID:       &teamID,
	}}
	repo := &mockAuthUserRepo{
		byEmail: map[string]models.UserDetail{user.Email: user},
		byID:    map[string]models.UserDetail{user.ID: user},
	}
	cfg := config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        15 * time.Minute,
		RefreshExpiration: 168 * time.Hour,
		Issuer:            "gearguard-api",
	}
	return NewAuthService(repo, cfg, zap.NewNop()), repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@gearguard.io",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	require.Len(t, repo.createdTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTechnician, claims.Role)
	require.NotNil(t, claims.TeamID)
	assert.Equal(t, "team-1", *claims.TeamID)
}

func TestAuthServiceLoginRejects(t *testing.T) {
	svc, _ := newAuthFixture(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "tech@gearguard.io",
			Password: "wrong",
		})
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
	})

	t.Run("unknown email is 401, not 404", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email:    "nobody@gearguard.io",
			Password: "correct horse",
		})
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{Email: "tech@gearguard.io"})
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	})
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@gearguard.io",
		Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@gearguard.io",
		Password: "correct horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.Len(t, repo.revokedIDs, 1)

	// The old token is single-use.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tech@gearguard.io",
		Password: "correct horse",
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(200 * time.Hour) }
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
	assert.Empty(t, repo.revokedIDs)
}
