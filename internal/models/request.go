package models

import "time"

// RequestType distinguishes breakdown fixes from planned maintenance.
type RequestType string

const (
	TypeCorrective RequestType = "CORRECTIVE"
	TypePreventive RequestType = "PREVENTIVE"
)

// Valid reports whether the request type is a known value.
func (t RequestType) Valid() bool {
	return t == TypeCorrective || t == TypePreventive
}

// RequestPriority orders requests by urgency.
type RequestPriority string

const (
	PriorityLow      RequestPriority = "LOW"
	PriorityMedium   RequestPriority = "MEDIUM"
	PriorityHigh     RequestPriority = "HIGH"
	PriorityCritical RequestPriority = "CRITICAL"
)

// Valid reports whether the priority is a known value.
func (p RequestPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Stage is the canonical lifecycle state of a maintenance request. The
// kanban surface historically used REPAIRED/SCRAP for the terminal pair;
// those labels are accepted on input and translated on board output, but
// only the canonical values below are ever persisted.
type Stage string

const (
	StageOpen       Stage = "OPEN"
	StageAssigned   Stage = "ASSIGNED"
	StageInProgress Stage = "IN_PROGRESS"
	StageCompleted  Stage = "COMPLETED"
	StageCancelled  Stage = "CANCELLED"
)

// Board-surface aliases for the terminal pair.
const (
	BoardStageRepaired = "REPAIRED"
	BoardStageScrap    = "SCRAP"
)

// Stages lists all canonical stages in workflow order.
func Stages() []Stage {
	return []Stage{StageOpen, StageAssigned, StageInProgress, StageCompleted, StageCancelled}
}

// ParseStage normalises an inbound stage label, accepting the board-surface
// terminal aliases. The second return is false for unknown labels.
func ParseStage(raw string) (Stage, bool) {
	switch raw {
	case string(StageOpen), string(StageAssigned), string(StageInProgress),
		string(StageCompleted), string(StageCancelled):
		return Stage(raw), true
	case BoardStageRepaired:
		return StageCompleted, true
	case BoardStageScrap:
		return StageCancelled, true
	}
	return "", false
}

// Terminal reports whether the stage ends the workflow.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

// BoardLabel translates the canonical stage into the kanban vocabulary.
func (s Stage) BoardLabel() string {
	switch s {
	case StageCompleted:
		return BoardStageRepaired
	case StageCancelled:
		return BoardStageScrap
	}
	return string(s)
}

// MaintenanceRequest is the central workflow entity. TeamID is copied from
// the equipment at creation and never changes afterwards.
type MaintenanceRequest struct {
	ID            string          `db:"id" json:"id"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	Type          RequestType     `db:"type" json:"type"`
	Stage         Stage           `db:"stage" json:"stage"`
	Priority      RequestPriority `db:"priority" json:"priority"`
	EquipmentID   string          `db:"equipment_id" json:"equipment_id"`
	TeamID        string          `db:"team_id" json:"team_id"`
	CreatedByID   string          `db:"created_by_id" json:"created_by_id"`
	AssignedToID  *string         `db:"assigned_to_id" json:"assigned_to_id,omitempty"`
	ScheduledDate *time.Time      `db:"scheduled_date" json:"scheduled_date,omitempty"`
	CompletedDate *time.Time      `db:"completed_date" json:"completed_date,omitempty"`
	Duration      *float64        `db:"duration" json:"duration,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// RequestDetail is a request with its resolved relations, as returned by
// every read and mutation path.
type RequestDetail struct {
	MaintenanceRequest
	Equipment  Equipment    `json:"equipment"`
	Team       Team         `json:"team"`
	CreatedBy  UserSummary  `json:"created_by"`
	AssignedTo *UserSummary `json:"assigned_to,omitempty"`
}

// CreateRequestInput is the payload for opening a maintenance request. The
// owning team is inherited from the equipment, never supplied by the caller.
type CreateRequestInput struct {
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description"`
	Type          RequestType     `json:"type" validate:"required"`
	Priority      RequestPriority `json:"priority"`
	EquipmentID   string          `json:"equipment_id" validate:"required"`
	ScheduledDate *time.Time      `json:"scheduled_date,omitempty"`
}

// UpdateRequestInput is the partial-update payload for a request. Absent
// fields are untouched; assigned_to_id, scheduled_date and duration accept
// an explicit null to clear the value.
type UpdateRequestInput struct {
	Stage         *string             `json:"stage,omitempty"`
	AssignedToID  Optional[string]    `json:"assigned_to_id"`
	Description   *string             `json:"description,omitempty"`
	Duration      Optional[float64]   `json:"duration"`
	ScheduledDate Optional[time.Time] `json:"scheduled_date"`
	Priority      *string             `json:"priority,omitempty"`
}

// Empty reports whether the payload carries no fields at all.
func (in UpdateRequestInput) Empty() bool {
	return in.Stage == nil && !in.AssignedToID.Set && in.Description == nil &&
		!in.Duration.Set && !in.ScheduledDate.Set && in.Priority == nil
}

// RequestFilter captures list filters for request queries. A nil TeamID
// means no team scoping (admin reads).
type RequestFilter struct {
	TeamID      *string
	CreatedByID string
}
