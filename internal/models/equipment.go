package models

import "time"

// Equipment is a maintainable asset owned by a team.
type Equipment struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SerialNo  string    `db:"serial_no" json:"serial_no"`
	Location  string    `db:"location" json:"location"`
	Department string   `db:"department" json:"department"`
	Category  string    `db:"category" json:"category"`
	TeamID    string    `db:"team_id" json:"team_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EquipmentDetail joins equipment with its owning team name.
type EquipmentDetail struct {
	Equipment
	TeamName string `db:"team_name" json:"team_name"`
}

// CreateEquipmentRequest is the payload for registering equipment.
type CreateEquipmentRequest struct {
	Name       string `json:"name" validate:"required"`
	SerialNo   string `json:"serial_no" validate:"required"`
	Location   string `json:"location"`
	Department string `json:"department"`
	Category   string `json:"category" validate:"required"`
	TeamID     string `json:"team_id" validate:"required"`
}

// UpdateEquipmentRequest is the partial-update payload for equipment. The
// serial number is immutable after creation.
type UpdateEquipmentRequest struct {
	Name       *string `json:"name,omitempty"`
	Location   *string `json:"location,omitempty"`
	Department *string `json:"department,omitempty"`
	Category   *string `json:"category,omitempty"`
	TeamID     *string `json:"team_id,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// EquipmentFilter captures list filters for equipment queries.
type EquipmentFilter struct {
	Search     string
	Department string
	Category   string
	TeamID     string
}
