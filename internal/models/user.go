package models

import "time"

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleGeneral    UserRole = "GENERAL"
	RoleTechnician UserRole = "TECHNICIAN"
	RoleManager    UserRole = "MANAGER"
	RoleAdmin      UserRole = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleGeneral, RoleTechnician, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         UserRole  `db:"role" json:"role"`
	TeamID       *string   `db:"team_id" json:"team_id,omitempty"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Avatar       *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserDetail joins a user with its team and department names.
type UserDetail struct {
	User
	TeamName       *string `db:"team_name" json:"team_name,omitempty"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// UserSummary is the compact representation embedded in request payloads.
type UserSummary struct {
	ID     string  `db:"id" json:"id"`
	Name   string  `db:"name" json:"name"`
	Avatar *string `db:"avatar" json:"avatar,omitempty"`
}

// CreateUserRequest is the admin payload for provisioning a user.
type CreateUserRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8"`
	Name         string   `json:"name" validate:"required"`
	Role         UserRole `json:"role" validate:"required"`
	TeamID       *string  `json:"team_id,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	Avatar       *string  `json:"avatar,omitempty"`
}

// UpdateUserRequest is the partial-update payload for a user. Nil fields are
// left unchanged; team and department accept explicit null to detach.
type UpdateUserRequest struct {
	Email        *string          `json:"email,omitempty" validate:"omitempty,email"`
	Password     *string          `json:"password,omitempty" validate:"omitempty,min=8"`
	Name         *string          `json:"name,omitempty"`
	Role         *UserRole        `json:"role,omitempty"`
	TeamID       Optional[string] `json:"team_id"`
	DepartmentID Optional[string] `json:"department_id"`
	Avatar       *string          `json:"avatar,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   *UserRole
	TeamID string
	Search string
}
