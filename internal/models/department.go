package models

import "time"

// Department groups users by trade. Department names double as the
// controlled vocabulary matched against Equipment.Category when validating
// assignments; the match is a literal string comparison, not a foreign key.
type Department struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateDepartmentRequest is the payload for creating a department.
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest is the partial-update payload for a department.
type UpdateDepartmentRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
