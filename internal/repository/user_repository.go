package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gearguard/gearguard-api/internal/models"
)

// UserRepository manages persistence for users and their refresh tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userDetailColumns = `u.id, u.email, u.password_hash, u.name, u.role, u.team_id, u.department_id, u.avatar, u.created_at, u.updated_at,
        t.name AS team_name, d.name AS department_name`

const userDetailJoins = `FROM users u
        LEFT JOIN teams t ON t.id = u.team_id
        LEFT JOIN departments d ON d.id = u.department_id`

// List returns users matching the provided filters.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.UserDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.TeamID != "" {
		conditions = append(conditions, fmt.Sprintf("u.team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.name) LIKE $%d OR LOWER(u.email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY u.name ASC", userDetailColumns, userDetailJoins, strings.Join(conditions, " AND "))

	var users []models.UserDetail
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FindByID fetches a user with team and department names.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.UserDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE u.id = $1", userDetailColumns, userDetailJoins)
	var detail models.UserDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByEmail fetches a user by unique email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.UserDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE u.email = $1", userDetailColumns, userDetailJoins)
	var detail models.UserDetail
	if err := r.db.GetContext(ctx, &detail, query, email); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByEmail checks whether an email is taken, optionally excluding an ID.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM users WHERE email = $1"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, name, role, team_id, department_id, avatar, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :name, :role, :team_id, :department_id, :avatar, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update modifies an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = :email, password_hash = :password_hash, name = :name, role = :role,
        team_id = :team_id, department_id = :department_id, avatar = :avatar, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CountRequestReferences counts maintenance requests created by or assigned
// to the user. Deletion is blocked while this is non-zero.
func (r *UserRepository) CountRequestReferences(ctx context.Context, id string) (int, error) {
	var count int
	const query = "SELECT COUNT(*) FROM maintenance_requests WHERE created_by_id = $1 OR assigned_to_id = $1"
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count user references: %w", err)
	}
	return count, nil
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CreateRefreshToken persists a refresh token.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, revoked_at, created_at)
        VALUES (:id, :user_id, :token, :expires_at, :revoked, :revoked_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken fetches a refresh token by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, revoked, revoked_at, created_at FROM refresh_tokens WHERE token = $1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RevokeRefreshToken marks a refresh token revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
