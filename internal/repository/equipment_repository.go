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

// EquipmentRepository manages persistence for equipment records.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs an EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentDetailColumns = `e.id, e.name, e.serial_no, e.location, e.department, e.category, e.team_id, e.is_active, e.created_at, e.updated_at,
        t.name AS team_name`

// List returns equipment matching the provided filters.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.EquipmentDetail, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.name) LIKE $%d OR LOWER(e.serial_no) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("e.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("e.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.TeamID != "" {
		conditions = append(conditions, fmt.Sprintf("e.team_id = $%d", len(args)+1))
		args = append(args, filter.TeamID)
	}

	query := fmt.Sprintf(`SELECT %s FROM equipment e JOIN teams t ON t.id = e.team_id WHERE %s ORDER BY e.name ASC`,
		equipmentDetailColumns, strings.Join(conditions, " AND "))

	var equipment []models.EquipmentDetail
	if err := r.db.SelectContext(ctx, &equipment, query, args...); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return equipment, nil
}

// FindByID fetches an equipment record with its team name.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.EquipmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment e JOIN teams t ON t.id = e.team_id WHERE e.id = $1`, equipmentDetailColumns)
	var detail models.EquipmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsBySerial checks serial uniqueness, optionally excluding an ID.
func (r *EquipmentRepository) ExistsBySerial(ctx context.Context, serialNo string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM equipment WHERE serial_no = $1"
	args := []interface{}{serialNo}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check serial: %w", err)
	}
	return true, nil
}

// Create inserts a new equipment record, active by default.
func (r *EquipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	if equipment.ID == "" {
		equipment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if equipment.CreatedAt.IsZero() {
		equipment.CreatedAt = now
	}
	equipment.UpdatedAt = now
	const query = `INSERT INTO equipment (id, name, serial_no, location, department, category, team_id, is_active, created_at, updated_at)
        VALUES (:id, :name, :serial_no, :location, :department, :category, :team_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, equipment); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// Update modifies an existing equipment record. SerialNo is immutable.
func (r *EquipmentRepository) Update(ctx context.Context, equipment *models.Equipment) error {
	equipment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment SET name = :name, location = :location, department = :department,
        category = :category, team_id = :team_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, equipment); err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

// Delete removes an equipment row.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}

// Count returns total equipment, and CountActive only the active subset.
func (r *EquipmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM equipment"); err != nil {
		return 0, fmt.Errorf("count equipment: %w", err)
	}
	return count, nil
}

// CountActive returns the number of equipment rows still in service.
func (r *EquipmentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM equipment WHERE is_active = TRUE"); err != nil {
		return 0, fmt.Errorf("count active equipment: %w", err)
	}
	return count, nil
}
