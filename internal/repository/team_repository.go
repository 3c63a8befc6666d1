package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gearguard/gearguard-api/internal/models"
)

// TeamRepository manages persistence for maintenance teams.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository constructs a TeamRepository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns all teams ordered by name.
func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	const query = `SELECT id, name, created_at, updated_at FROM teams ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &teams, query); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// FindByID fetches a team by ID.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.Team, error) {
	const query = `SELECT id, name, created_at, updated_at FROM teams WHERE id = $1`
	var team models.Team
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// ListMembers returns the member summaries for a team.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	const query = `SELECT u.id, u.name, u.email, d.name AS department_name
        FROM users u LEFT JOIN departments d ON d.id = u.department_id
        WHERE u.team_id = $1 ORDER BY u.name ASC`
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// ExistsByName checks name uniqueness, optionally excluding an ID.
func (r *TeamRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teams WHERE name = $1"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check team name: %w", err)
	}
	return true, nil
}

// Create inserts a new team.
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if team.CreatedAt.IsZero() {
		team.CreatedAt = now
	}
	team.UpdatedAt = now
	const query = `INSERT INTO teams (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// Update renames an existing team.
func (r *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teams SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	return nil
}

// Delete removes a team row.
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teams WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// CountReferences counts equipment and requests owned by the team. Deletion
// is blocked while this is non-zero.
func (r *TeamRepository) CountReferences(ctx context.Context, id string) (int, error) {
	var count int
	const query = `SELECT (SELECT COUNT(*) FROM equipment WHERE team_id = $1) + (SELECT COUNT(*) FROM maintenance_requests WHERE team_id = $1)`
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count team references: %w", err)
	}
	return count, nil
}

// Count returns the total number of teams.
func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM teams"); err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return count, nil
}
