package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// UserRepository is the persistence surface UserService depends on.
type UserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, error)
	FindByID(ctx context.Context, id string) (*models.UserDetail, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountRequestReferences(ctx context.Context, id string) (int, error)
}

// UserService manages user accounts.
type UserService struct {
	users    UserRepository
	logger   *zap.Logger
	validate *validator.Validate
}

func NewUserService(users UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger, validate: validator.New()}
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, actor authz.Actor, filter models.UserFilter) ([]models.UserDetail, error) {
	if !authz.Can(actor.Role, authz.ActionUserList) {
		return nil, appErrors.ErrForbidden
	}
	list, err := s.users.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return list, nil
}

// Get fetches one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserDetail, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create provisions a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, req models.CreateUserRequest) (*models.UserDetail, error) {
	if !authz.Can(actor.Role, authz.ActionUserCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email, password, name and role are required")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		TeamID:       req.TeamID,
		DepartmentID: req.DepartmentID,
		Avatar:       req.Avatar,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.Get(ctx, user.ID)
}

// Update applies a partial update to a user. Only admins reach this path,
// so role changes need no extra gate beyond the action check.
func (s *UserService) Update(ctx context.Context, actor authz.Actor, id string, req models.UpdateUserRequest) (*models.UserDetail, error) {
	if !authz.Can(actor.Role, authz.ActionUserUpdate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user := current.User

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.users.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			s.logger.Error("failed to check email", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already in use")
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("failed to hash password", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
		}
		user.PasswordHash = string(hash)
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		user.Role = *req.Role
	}
	if req.TeamID.Set {
		user.TeamID = req.TeamID.Value
	}
	if req.DepartmentID.Set {
		user.DepartmentID = req.DepartmentID.Value
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}

	if err := s.users.Update(ctx, &user); err != nil {
		s.logger.Error("failed to update user", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	return s.Get(ctx, id)
}

// Delete removes a user. Deletion is blocked while maintenance requests
// reference the user as creator or assignee.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.Can(actor.Role, authz.ActionUserDelete) {
		return appErrors.ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	refs, err := s.users.CountRequestReferences(ctx, id)
	if err != nil {
		s.logger.Error("failed to count user references", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "user is referenced by maintenance requests")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
