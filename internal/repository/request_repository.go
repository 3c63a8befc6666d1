package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gearguard/gearguard-api/internal/models"
)

// RequestRepository manages persistence for maintenance requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs a RequestRepository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestDetailColumns = `r.id, r.title, r.description, r.type, r.stage, r.priority, r.equipment_id, r.team_id,
        r.created_by_id, r.assigned_to_id, r.scheduled_date, r.completed_date, r.duration, r.created_at, r.updated_at,
        e.name AS eq_name, e.serial_no AS eq_serial_no, e.location AS eq_location, e.department AS eq_department,
        e.category AS eq_category, e.is_active AS eq_is_active, e.created_at AS eq_created_at, e.updated_at AS eq_updated_at,
        t.name AS team_name, t.created_at AS team_created_at, t.updated_at AS team_updated_at,
        cb.name AS created_by_name, cb.avatar AS created_by_avatar,
        at.id AS assigned_to_uid, at.name AS assigned_to_name, at.avatar AS assigned_to_avatar`

const requestDetailJoins = `FROM maintenance_requests r
        JOIN equipment e ON e.id = r.equipment_id
        JOIN teams t ON t.id = r.team_id
        JOIN users cb ON cb.id = r.created_by_id
        LEFT JOIN users at ON at.id = r.assigned_to_id`

// requestRow is the flat scan target for detail queries.
type requestRow struct {
	models.MaintenanceRequest
	EqName           string     `db:"eq_name"`
	EqSerialNo       string     `db:"eq_serial_no"`
	EqLocation       string     `db:"eq_location"`
	EqDepartment     string     `db:"eq_department"`
	EqCategory       string     `db:"eq_category"`
	EqIsActive       bool       `db:"eq_is_active"`
	EqCreatedAt      time.Time  `db:"eq_created_at"`
	EqUpdatedAt      time.Time  `db:"eq_updated_at"`
	TeamName         string     `db:"team_name"`
	TeamCreatedAt    time.Time  `db:"team_created_at"`
	TeamUpdatedAt    time.Time  `db:"team_updated_at"`
	CreatedByName    string     `db:"created_by_name"`
	CreatedByAvatar  *string    `db:"created_by_avatar"`
	AssignedToUID    *string    `db:"assigned_to_uid"`
	AssignedToName   *string    `db:"assigned_to_name"`
	AssignedToAvatar *string    `db:"assigned_to_avatar"`
}

func (row requestRow) toDetail() models.RequestDetail {
	detail := models.RequestDetail{
		MaintenanceRequest: row.MaintenanceRequest,
		Equipment: models.Equipment{
			ID:         row.EquipmentID,
			Name:       row.EqName,
			SerialNo:   row.EqSerialNo,
			Location:   row.EqLocation,
			Department: row.EqDepartment,
			Category:   row.EqCategory,
			TeamID:     row.TeamID,
			IsActive:   row.EqIsActive,
			CreatedAt:  row.EqCreatedAt,
			UpdatedAt:  row.EqUpdatedAt,
		},
		Team: models.Team{
			ID:        row.TeamID,
			Name:      row.TeamName,
			CreatedAt: row.TeamCreatedAt,
			UpdatedAt: row.TeamUpdatedAt,
		},
		CreatedBy: models.UserSummary{
			ID:     row.CreatedByID,
			Name:   row.CreatedByName,
			Avatar: row.CreatedByAvatar,
		},
	}
	if row.AssignedToUID != nil {
		detail.AssignedTo = &models.UserSummary{
			ID:     *row.AssignedToUID,
			Name:   derefOr(row.AssignedToName, ""),
			Avatar: row.AssignedToAvatar,
		}
	}
	return detail
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// List returns request details matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.TeamID != nil {
		conditions = append(conditions, fmt.Sprintf("r.team_id = $%d", len(args)+1))
		args = append(args, *filter.TeamID)
	}
	if filter.CreatedByID != "" {
		conditions = append(conditions, fmt.Sprintf("r.created_by_id = $%d", len(args)+1))
		args = append(args, filter.CreatedByID)
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY r.created_at DESC",
		requestDetailColumns, requestDetailJoins, strings.Join(conditions, " AND "))

	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	details := make([]models.RequestDetail, len(rows))
	for i, row := range rows {
		details[i] = row.toDetail()
	}
	return details, nil
}

// FindByID fetches the bare request row.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	const query = `SELECT id, title, description, type, stage, priority, equipment_id, team_id, created_by_id,
        assigned_to_id, scheduled_date, completed_date, duration, created_at, updated_at
        FROM maintenance_requests WHERE id = $1`
	var request models.MaintenanceRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindDetailByID fetches a request with all resolved relations.
func (r *RequestRepository) FindDetailByID(ctx context.Context, id string) (*models.RequestDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE r.id = $1", requestDetailColumns, requestDetailJoins)
	var row requestRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	detail := row.toDetail()
	return &detail, nil
}

// Create inserts a new maintenance request.
func (r *RequestRepository) Create(ctx context.Context, request *models.MaintenanceRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO maintenance_requests (id, title, description, type, stage, priority, equipment_id, team_id,
        created_by_id, assigned_to_id, scheduled_date, completed_date, duration, created_at, updated_at)
        VALUES (:id, :title, :description, :type, :stage, :priority, :equipment_id, :team_id,
        :created_by_id, :assigned_to_id, :scheduled_date, :completed_date, :duration, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// Update writes the mutable request fields and, when deactivateEquipment is
// set, flips the linked equipment inactive in the same transaction. A reader
// can never observe the scrap stage with the equipment still active.
func (r *RequestRepository) Update(ctx context.Context, request *models.MaintenanceRequest, deactivateEquipment bool) error {
	request.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin request update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE maintenance_requests SET stage = :stage, priority = :priority, description = :description,
        assigned_to_id = :assigned_to_id, scheduled_date = :scheduled_date, completed_date = :completed_date,
        duration = :duration, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	if deactivateEquipment {
		const deactivate = `UPDATE equipment SET is_active = FALSE, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, deactivate, request.EquipmentID, request.UpdatedAt); err != nil {
			return fmt.Errorf("deactivate equipment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit request update: %w", err)
	}
	committed = true
	return nil
}

// Count returns the total number of requests.
func (r *RequestRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM maintenance_requests"); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return count, nil
}

// CountByStage groups request counts by stage.
func (r *RequestRepository) CountByStage(ctx context.Context) ([]models.StageCount, error) {
	var counts []models.StageCount
	const query = `SELECT stage, COUNT(*) AS count FROM maintenance_requests GROUP BY stage ORDER BY stage`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count requests by stage: %w", err)
	}
	return counts, nil
}

// CountPending counts requests still waiting on work (open or in progress).
func (r *RequestRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM maintenance_requests WHERE stage IN ($1, $2)`
	if err := r.db.GetContext(ctx, &count, query, models.StageOpen, models.StageInProgress); err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// StatBuckets aggregates request counts by team, category, and stage. A nil
// teamID aggregates across all teams.
func (r *RequestRepository) StatBuckets(ctx context.Context, teamID *string) (byTeam, byCategory, byStage []models.NameCount, err error) {
	scope := ""
	args := []interface{}{}
	if teamID != nil {
		scope = " WHERE r.team_id = $1"
		args = append(args, *teamID)
	}

	teamQuery := fmt.Sprintf(`SELECT t.name AS name, COUNT(*) AS count FROM maintenance_requests r
        JOIN teams t ON t.id = r.team_id%s GROUP BY t.name ORDER BY t.name`, scope)
	if err = r.db.SelectContext(ctx, &byTeam, teamQuery, args...); err != nil {
		return nil, nil, nil, fmt.Errorf("stats by team: %w", err)
	}

	categoryQuery := fmt.Sprintf(`SELECT e.category AS name, COUNT(*) AS count FROM maintenance_requests r
        JOIN equipment e ON e.id = r.equipment_id%s GROUP BY e.category ORDER BY e.category`, scope)
	if err = r.db.SelectContext(ctx, &byCategory, categoryQuery, args...); err != nil {
		return nil, nil, nil, fmt.Errorf("stats by category: %w", err)
	}

	stageQuery := fmt.Sprintf(`SELECT r.stage AS name, COUNT(*) AS count FROM maintenance_requests r%s GROUP BY r.stage ORDER BY r.stage`, scope)
	if err = r.db.SelectContext(ctx, &byStage, stageQuery, args...); err != nil {
		return nil, nil, nil, fmt.Errorf("stats by stage: %w", err)
	}

	return byTeam, byCategory, byStage, nil
}
