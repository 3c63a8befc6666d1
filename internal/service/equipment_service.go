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

// EquipmentRepository is the persistence surface EquipmentService uses.
type EquipmentRepository interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.EquipmentDetail, error)
	ExistsBySerial(ctx context.Context, serialNo string, excludeID string) (bool, error)
	Create(ctx context.Context, equipment *models.Equipment) error
	Update(ctx context.Context, equipment *models.Equipment) error
	Delete(ctx context.Context, id string) error
}

// EquipmentTeamReader validates team references on equipment writes.
type EquipmentTeamReader interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
}

// EquipmentService manages maintainable assets.
type EquipmentService struct {
	equipment EquipmentRepository
	teams     EquipmentTeamReader
	logger    *zap.Logger
	validate  *validator.Validate
}

func NewEquipmentService(equipment EquipmentRepository, teams EquipmentTeamReader, logger *zap.Logger) *EquipmentService {
	return &EquipmentService{equipment: equipment, teams: teams, logger: logger, validate: validator.New()}
}

// List returns equipment matching the filter. Technicians are always scoped
// to their own team regardless of the requested filter.
func (s *EquipmentService) List(ctx context.Context, actor authz.Actor, filter models.EquipmentFilter) ([]models.EquipmentDetail, error) {
	if actor.Role == models.RoleTechnician {
		if actor.TeamID == nil || *actor.TeamID == "" {
			return []models.EquipmentDetail{}, nil
		}
		filter.TeamID = *actor.TeamID
	}
	list, err := s.equipment.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list equipment", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return list, nil
}

// Get fetches one piece of equipment, with existence checked before scope.
func (s *EquipmentService) Get(ctx context.Context, actor authz.Actor, id string) (*models.EquipmentDetail, error) {
	equipment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadEquipment(actor, equipment.TeamID) {
		return nil, appErrors.ErrForbidden
	}
	return equipment, nil
}

// Create registers new equipment with a unique serial number and an
// existing owning team.
func (s *EquipmentService) Create(ctx context.Context, actor authz.Actor, req models.CreateEquipmentRequest) (*models.EquipmentDetail, error) {
	if !authz.Can(actor.Role, authz.ActionEquipmentCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, serial_no, category and team_id are required")
	}

	if _, err := s.teams.FindByID(ctx, req.TeamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "team does not exist")
		}
		s.logger.Error("failed to check team", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}

	taken, err := s.equipment.ExistsBySerial(ctx, req.SerialNo, "")
	if err != nil {
		s.logger.Error("failed to check serial number", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "serial number already registered")
	}

	equipment := &models.Equipment{
		Name:       req.Name,
		SerialNo:   req.SerialNo,
		Location:   req.Location,
		Department: req.Department,
		Category:   req.Category,
		TeamID:     req.TeamID,
		IsActive:   true,
	}
	if err := s.equipment.Create(ctx, equipment); err != nil {
		s.logger.Error("failed to create equipment", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}

	s.logger.Info("equipment created", zap.String("equipment_id", equipment.ID), zap.String("serial_no", equipment.SerialNo))
	return s.find(ctx, equipment.ID)
}

// Update applies a partial update. The serial number stays immutable.
func (s *EquipmentService) Update(ctx context.Context, actor authz.Actor, id string, req models.UpdateEquipmentRequest) (*models.EquipmentDetail, error) {
	if !authz.Can(actor.Role, authz.ActionEquipmentUpdate) {
		return nil, appErrors.ErrForbidden
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	equipment := current.Equipment

	if req.TeamID != nil && *req.TeamID != equipment.TeamID {
		if _, err := s.teams.FindByID(ctx, *req.TeamID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "team does not exist")
			}
			s.logger.Error("failed to check team", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
		}
		equipment.TeamID = *req.TeamID
	}
	if req.Name != nil {
		equipment.Name = *req.Name
	}
	if req.Location != nil {
		equipment.Location = *req.Location
	}
	if req.Department != nil {
		equipment.Department = *req.Department
	}
	if req.Category != nil {
		equipment.Category = *req.Category
	}
	if req.IsActive != nil {
		equipment.IsActive = *req.IsActive
	}

	if err := s.equipment.Update(ctx, &equipment); err != nil {
		s.logger.Error("failed to update equipment", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	return s.find(ctx, id)
}

// Delete removes a piece of equipment.
func (s *EquipmentService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.Can(actor.Role, authz.ActionEquipmentDelete) {
		return appErrors.ErrForbidden
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.equipment.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete equipment", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	s.logger.Info("equipment deleted", zap.String("equipment_id", id))
	return nil
}

func (s *EquipmentService) find(ctx context.Context, id string) (*models.EquipmentDetail, error) {
	equipment, err := s.equipment.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		s.logger.Error("failed to load equipment", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	return equipment, nil
}
