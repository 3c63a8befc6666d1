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

// TeamRepository is the persistence surface TeamService depends on.
type TeamRepository interface {
	List(ctx context.Context) ([]models.Team, error)
	FindByID(ctx context.Context, id string) (*models.Team, error)
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (int, error)
}

// TeamService manages maintenance teams.
type TeamService struct {
	teams    TeamRepository
	logger   *zap.Logger
	validate *validator.Validate
}

func NewTeamService(teams TeamRepository, logger *zap.Logger) *TeamService {
	return &TeamService{teams: teams, logger: logger, validate: validator.New()}
}

// List returns all teams.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	list, err := s.teams.List(ctx)
	if err != nil {
		s.logger.Error("failed to list teams", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	return list, nil
}

// Get fetches a team with its members.
func (s *TeamService) Get(ctx context.Context, id string) (*models.TeamDetail, error) {
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		s.logger.Error("failed to load team", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}

	members, err := s.teams.ListMembers(ctx, id)
	if err != nil {
		s.logger.Error("failed to list team members", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}
	if members == nil {
		members = []models.TeamMember{}
	}

	return &models.TeamDetail{Team: *team, Members: members}, nil
}

// Create adds a new team with a unique name.
func (s *TeamService) Create(ctx context.Context, actor authz.Actor, req models.CreateTeamRequest) (*models.Team, error) {
	if !authz.Can(actor.Role, authz.ActionTeamCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required")
	}

	taken, err := s.teams.ExistsByName(ctx, req.Name, "")
	if err != nil {
		s.logger.Error("failed to check team name", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "team name already in use")
	}

	team := &models.Team{Name: req.Name}
	if err := s.teams.Create(ctx, team); err != nil {
		s.logger.Error("failed to create team", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}

	s.logger.Info("team created", zap.String("team_id", team.ID), zap.String("name", team.Name))
	return team, nil
}

// Update renames a team.
func (s *TeamService) Update(ctx context.Context, actor authz.Actor, id string, req models.UpdateTeamRequest) (*models.Team, error) {
	if !authz.Can(actor.Role, authz.ActionTeamUpdate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required")
	}

	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		s.logger.Error("failed to load team", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
	}

	if req.Name != team.Name {
		taken, err := s.teams.ExistsByName(ctx, req.Name, id)
		if err != nil {
			s.logger.Error("failed to check team name", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "team name already in use")
		}
	}

	team.Name = req.Name
	if err := s.teams.Update(ctx, team); err != nil {
		s.logger.Error("failed to update team", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
	}
	return team, nil
}

// Delete removes a team. Deletion is blocked while equipment or requests
// reference the team.
func (s *TeamService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	if !authz.Can(actor.Role, authz.ActionTeamDelete) {
		return appErrors.ErrForbidden
	}

	if _, err := s.teams.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		s.logger.Error("failed to load team", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete team")
	}

	refs, err := s.teams.CountReferences(ctx, id)
	if err != nil {
		s.logger.Error("failed to count team references", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete team")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "team is referenced by equipment or requests")
	}

	if err := s.teams.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete team", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete team")
	}
	s.logger.Info("team deleted", zap.String("team_id", id))
	return nil
}
