package models

import "time"

// Team is a maintenance team owning technicians and equipment.
type Team struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeamMember is the member summary embedded in team payloads.
type TeamMember struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Email          string  `db:"email" json:"email"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// TeamDetail joins a team with its members.
type TeamDetail struct {
	Team
	Members []TeamMember `json:"members"`
}

// CreateTeamRequest is the payload for creating a team.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateTeamRequest is the payload for renaming a team.
type UpdateTeamRequest struct {
	Name string `json:"name" validate:"required"`
}
