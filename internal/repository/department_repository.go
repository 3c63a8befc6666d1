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

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	const query = `SELECT id, name, description, created_at, updated_at FROM departments ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// ExistsByName checks name uniqueness, optionally excluding an ID.
func (r *DepartmentRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM departments WHERE name = $1"
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
		return false, fmt.Errorf("check department name: %w", err)
	}
	return true, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if department.CreatedAt.IsZero() {
		department.CreatedAt = now
	}
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, name, description, created_at, updated_at)
        VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update modifies an existing department.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// Delete removes a department row.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// CountMembers counts users attached to the department.
func (r *DepartmentRepository) CountMembers(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE department_id = $1", id); err != nil {
		return 0, fmt.Errorf("count department members: %w", err)
	}
	return count, nil
}
