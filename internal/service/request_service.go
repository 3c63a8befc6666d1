package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/board"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/config"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// RequestRepository is the persistence surface the lifecycle engine needs.
type RequestRepository interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error)
	FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	FindDetailByID(ctx context.Context, id string) (*models.RequestDetail, error)
	Create(ctx context.Context, request *models.MaintenanceRequest) error
	Update(ctx context.Context, request *models.MaintenanceRequest, deactivateEquipment bool) error
	StatBuckets(ctx context.Context, teamID *string) (byTeam, byCategory, byStage []models.NameCount, err error)
}

// RequestEquipmentReader resolves equipment referenced by requests.
type RequestEquipmentReader interface {
	FindByID(ctx context.Context, id string) (*models.EquipmentDetail, error)
}

// RequestUserReader resolves assignment candidates.
type RequestUserReader interface {
	FindByID(ctx context.Context, id string) (*models.UserDetail, error)
}

const statsCachePattern = "requests:stats:*"

// RequestService is the request lifecycle engine: creation, scoped reads,
// the partial-update protocol with its stage side effects, and the kanban
// board projection.
type RequestService struct {
	requests  RequestRepository
	equipment RequestEquipmentReader
	users     RequestUserReader
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time

	// overdueGrace shifts the board's overdue cutoff back from now, giving
	// just-due requests breathing room. Zero means strict scheduled < now.
	overdueGrace time.Duration
}

func NewRequestService(
	requests RequestRepository,
	equipment RequestEquipmentReader,
	users RequestUserReader,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	boardCfg config.BoardConfig,
) *RequestService {
	return &RequestService{
		requests:     requests,
		equipment:    equipment,
		users:        users,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		validate:     validator.New(),
		now:          time.Now,
		overdueGrace: boardCfg.OverdueGrace,
	}
}

// Create opens a new request. The owning team is inherited from the
// equipment; the request starts in OPEN regardless of the payload.
func (s *RequestService) Create(ctx context.Context, actor authz.Actor, in models.CreateRequestInput) (*models.RequestDetail, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, type and equipment_id are required")
	}
	if !in.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown request type %q", in.Type))
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority %q", in.Priority))
	}

	equipment, err := s.equipment.FindByID(ctx, in.EquipmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, s.internal(err, "failed to create request")
	}

	request := &models.MaintenanceRequest{
		Title:         in.Title,
		Description:   in.Description,
		Type:          in.Type,
		Stage:         models.StageOpen,
		Priority:      priority,
		EquipmentID:   equipment.ID,
		TeamID:        equipment.TeamID,
		CreatedByID:   actor.ID,
		ScheduledDate: in.ScheduledDate,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, s.internal(err, "failed to create request")
	}

	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("team_id", request.TeamID),
		zap.String("created_by", actor.ID))

	return s.detail(ctx, request.ID)
}

// ListMine returns the requests created by the actor.
func (s *RequestService) ListMine(ctx context.Context, actor authz.Actor) ([]models.RequestDetail, error) {
	list, err := s.requests.List(ctx, models.RequestFilter{CreatedByID: actor.ID})
	if err != nil {
		return nil, s.internal(err, "failed to list requests")
	}
	return list, nil
}

// ListTeam returns the actor's team-scoped request list. Admins see all
// teams; a team-less MANAGER or TECHNICIAN gets an empty list, not an error.
func (s *RequestService) ListTeam(ctx context.Context, actor authz.Actor) ([]models.RequestDetail, error) {
	scope := authz.RequestListScope(actor)
	switch scope.Kind {
	case authz.ScopeAll:
		return s.list(ctx, models.RequestFilter{})
	case authz.ScopeTeam:
		return s.list(ctx, models.RequestFilter{TeamID: &scope.TeamID})
	case authz.ScopeEmpty:
		return []models.RequestDetail{}, nil
	default:
		return nil, appErrors.ErrForbidden
	}
}

// ListAll returns every request, unscoped.
func (s *RequestService) ListAll(ctx context.Context, actor authz.Actor) ([]models.RequestDetail, error) {
	if !authz.Can(actor.Role, authz.ActionRequestListAll) {
		return nil, appErrors.ErrForbidden
	}
	return s.list(ctx, models.RequestFilter{})
}

// Get fetches one request with relations. Existence is checked before
// policy, so a missing ID is 404 for everyone; an existing request outside
// the actor's scope is 403.
func (s *RequestService) Get(ctx context.Context, actor authz.Actor, id string) (*models.RequestDetail, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanReadRequest(actor, request) {
		return nil, appErrors.ErrForbidden
	}
	return s.detail(ctx, id)
}

// Update applies a partial update. Absent fields are untouched; an empty
// payload is a validation error. Stage accepts the kanban terminal aliases.
// Assignment runs the eligibility gate and aborts the whole update on
// failure. A terminal stage stamps completed_date; CANCELLED additionally
// deactivates the equipment in the same transaction.
func (s *RequestService) Update(ctx context.Context, actor authz.Actor, id string, in models.UpdateRequestInput) (*models.RequestDetail, error) {
	request, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutateRequest(actor, request) {
		return nil, appErrors.ErrForbidden
	}
	if in.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields provided")
	}

	updated := *request

	if in.Priority != nil {
		priority := models.RequestPriority(*in.Priority)
		if !priority.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority %q", *in.Priority))
		}
		updated.Priority = priority
	}
	if in.Description != nil {
		updated.Description = *in.Description
	}
	if in.Duration.Set {
		updated.Duration = in.Duration.Value
	}
	if in.ScheduledDate.Set {
		updated.ScheduledDate = in.ScheduledDate.Value
	}

	if in.AssignedToID.Set {
		if in.AssignedToID.Value == nil {
			updated.AssignedToID = nil
		} else {
			if err := s.checkAssignee(ctx, &updated, *in.AssignedToID.Value); err != nil {
				return nil, err
			}
			updated.AssignedToID = in.AssignedToID.Value
		}
	}

	deactivateEquipment := false
	if in.Stage != nil {
		stage, ok := models.ParseStage(*in.Stage)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown stage %q", *in.Stage))
		}
		updated.Stage = stage
		if stage.Terminal() {
			// Stamped on every terminal write, so re-closing refreshes it.
			// Reopening leaves the timestamp in place: it records that the
			// request has been closed at some point, not the current stage.
			now := s.now().UTC()
			updated.CompletedDate = &now
		}
		deactivateEquipment = stage == models.StageCancelled
	}

	if err := s.requests.Update(ctx, &updated, deactivateEquipment); err != nil {
		return nil, s.internal(err, "failed to update request")
	}

	if in.Stage != nil {
		s.metrics.RecordStageTransition(string(updated.Stage))
	}
	s.cache.Invalidate(ctx, statsCachePattern)
	s.logger.Info("request updated",
		zap.String("request_id", id),
		zap.String("stage", string(updated.Stage)),
		zap.String("actor_id", actor.ID))

	return s.detail(ctx, id)
}

// Stats aggregates request counts for the actor's scope. A team-less
// MANAGER or TECHNICIAN gets zeroed stats, mirroring the empty list rule.
func (s *RequestService) Stats(ctx context.Context, actor authz.Actor) (*models.RequestStats, error) {
	if !authz.Can(actor.Role, authz.ActionRequestStats) {
		return nil, appErrors.ErrForbidden
	}

	scope := authz.RequestListScope(actor)
	var teamID *string
	switch scope.Kind {
	case authz.ScopeAll:
	case authz.ScopeTeam:
		teamID = &scope.TeamID
	case authz.ScopeEmpty:
		return &models.RequestStats{
			ByTeam:     []models.NameCount{},
			ByCategory: []models.NameCount{},
			ByStage:    []models.NameCount{},
		}, nil
	default:
		return nil, appErrors.ErrForbidden
	}

	cacheKey := "requests:stats:all"
	if teamID != nil {
		cacheKey = "requests:stats:team:" + *teamID
	}
	var cached models.RequestStats
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	byTeam, byCategory, byStage, err := s.requests.StatBuckets(ctx, teamID)
	if err != nil {
		return nil, s.internal(err, "failed to aggregate request stats")
	}
	stats := &models.RequestStats{ByTeam: byTeam, ByCategory: byCategory, ByStage: byStage}
	for _, bucket := range byStage {
		stats.Total += bucket.Count
	}

	s.cache.Set(ctx, cacheKey, stats)
	return stats, nil
}

// Board projects the actor's team-scoped requests into kanban columns with
// terminal labels in the board vocabulary, alongside the overdue and
// unassigned views derived from the same scoped list.
func (s *RequestService) Board(ctx context.Context, actor authz.Actor) (*board.Snapshot, error) {
	list, err := s.ListTeam(ctx, actor)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleTechnician {
		departmentName, err := s.actorDepartment(ctx, actor)
		if err != nil {
			return nil, err
		}
		list = board.FilterForTechnician(list, actor, departmentName)
	}

	snapshot := board.BuildSnapshot(list, s.now().Add(-s.overdueGrace))
	return &snapshot, nil
}

// StageUpdater binds an actor to the lifecycle engine so a drag controller
// can commit transitions through the normal update path.
func (s *RequestService) StageUpdater(actor authz.Actor) board.StageUpdater {
	return stageUpdater{svc: s, actor: actor}
}

type stageUpdater struct {
	svc   *RequestService
	actor authz.Actor
}

func (u stageUpdater) UpdateStage(ctx context.Context, requestID string, stage models.Stage) error {
	raw := string(stage)
	_, err := u.svc.Update(ctx, u.actor, requestID, models.UpdateRequestInput{Stage: &raw})
	return err
}

func (s *RequestService) checkAssignee(ctx context.Context, request *models.MaintenanceRequest, candidateID string) error {
	candidate, err := s.users.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assigned user not found")
		}
		return s.internal(err, "failed to update request")
	}

	equipment, err := s.equipment.FindByID(ctx, request.EquipmentID)
	if err != nil {
		return s.internal(err, "failed to update request")
	}

	switch authz.AssigneeEligible(candidate.TeamID, candidate.DepartmentName, request.TeamID, equipment.Category) {
	case authz.IneligibleTeam:
		return appErrors.Clone(appErrors.ErrValidation, "assigned user is not on the request's team")
	case authz.IneligibleDepartment:
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("assigned user's department does not match equipment category %q", equipment.Category))
	}
	return nil
}

func (s *RequestService) actorDepartment(ctx context.Context, actor authz.Actor) (*string, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, s.internal(err, "failed to load board")
	}
	return user.DepartmentName, nil
}

func (s *RequestService) list(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	list, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, s.internal(err, "failed to list requests")
	}
	return list, nil
}

func (s *RequestService) find(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, s.internal(err, "failed to load request")
	}
	return request, nil
}

func (s *RequestService) detail(ctx context.Context, id string) (*models.RequestDetail, error) {
	detail, err := s.requests.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, s.internal(err, "failed to load request")
	}
	return detail, nil
}

func (s *RequestService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
