package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// DepartmentRepository is the persistence surface DepartmentService uses.
type DepartmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
	CountMembers(ctx context.Context, id string) (int, error)
}

// DepartmentService manages the trade departments whose names double as
// equipment categories for assignment eligibility.
type DepartmentService struct {
	departments DepartmentRepository
	logger      *zap.Logger
	validate    *validator.Validate
}

func NewDepartmentService(departments DepartmentRepository, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{departments: departments, logger: logger, validate: validator.New()}
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	list, err := s.departments.List(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return list, nil
}

// Get fetches one department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.departments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		s.logger.Error("failed to load department", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create adds a department with a unique name.
func (s *DepartmentService) Create(ctx context.Context, actor authz.Actor, req models.CreateDepartmentRequest) (*models.Department, error) {
	if !authz.Can(actor.Role, authz.ActionDepartmentCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required")
	}

	taken, err := s.departments.ExistsByName(ctx, req.Name, "")
	if err != nil {
		s.logger.Error("failed to check department name", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department name already in use")
	}

	department := &models.Department{Name: req.Name, Description: req.Description}
	if err := s.departments.Create(ctx, department); err != nil {
		s.logger.Error("failed to create department", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	s.logger.Info("department created", zap.String("department_id", department.ID), zap.String("name", department.Name))
	return department, nil
}

// Update applies a partial update to a department.
func (s *DepartmentService) Update(ctx context.Context, actor authz.Actor, id string, req models.UpdateDepartmentRequest) (*models.Department, error) {
	if !authz.Can(actor.Role, authz.ActionDepartmentUpdate) {
		return nil, appErrors.ErrForbidden
	}

	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != department.Name {
		taken, err := s.departments.ExistsByName(ctx, *req.Name, id)
		if err != nil {
			s.logger.Error("failed to check department name", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department name already in use")
		}
		department.Name = *req.Name
	}
	if req.Description != nil {
		department.Description = *req.Description
	}

	if err := s.departments.Update(ctx, department); err != nil {
		s.logger.Error("failed to update department", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}
	return department, nil
}

// Delete removes a department. Deletion is blocked while users belong to it.
func (s *DepartmentService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.Can(actor.Role, authz.ActionDepartmentDelete) {
		return appErrors.ErrForbidden
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	members, err := s.departments.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("failed to count department members", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	if members > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "department still has members")
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete department", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	s.logger.Info("department deleted", zap.String("department_id", id))
	return nil
}
