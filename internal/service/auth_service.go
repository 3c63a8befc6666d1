package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/config"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// AuthUserRepository is the persistence surface AuthService depends on.
type AuthUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.UserDetail, error)
	FindByID(ctx context.Context, id string) (*models.UserDetail, error)
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
}

// AuthService handles login, token issuing and verification.
type AuthService struct {
	users    AuthUserRepository
	cfg      config.JWTConfig
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(users AuthUserRepository, cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authenticate")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	access, expiresIn, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		User:         *user,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair, rotating the old one.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "refresh_token is required")
	}

	stored, err := s.users.FindRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh token")
	}
	if stored.Revoked || s.now().After(stored.ExpiresAt) {
		return nil, appErrors.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh token")
	}

	if err := s.users.RevokeRefreshToken(ctx, stored.ID, s.now().UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate token")
	}

	access, expiresIn, err := s.issueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.RefreshTokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	}, nil
}

// Me returns the full profile for the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserDetail, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return user, nil
}

// ValidateToken parses and verifies a signed access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.ErrUnauthorized
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	if !claims.Role.Valid() {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

func (s *AuthService) issueAccessToken(user *models.UserDetail) (string, int64, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.Expiration)

	claims := models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		TeamID: user.TeamID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error("token signing failed", zap.Error(err))
		return "", 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	return signed, int64(s.cfg.Expiration.Seconds()), nil
}

func (s *AuthService) issueRefreshToken(ctx context.Context, userID string) (string, error) {
	now := s.now().UTC()
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.cfg.RefreshExpiration),
		CreatedAt: now,
	}
	if err := s.users.CreateRefreshToken(ctx, token); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue refresh token")
	}
	return token.Token, nil
}
