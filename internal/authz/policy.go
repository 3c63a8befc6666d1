// Package authz is the access policy engine: pure decision functions over a
// verified caller identity and a target resource. It never touches storage
// or transport; callers resolve the inputs and map decisions to errors.
package authz

import "github.com/gearguard/gearguard-api/internal/models"

// Actor is the verified caller identity threaded through every operation.
type Actor struct {
	ID     string
	Email  string
	Role   models.UserRole
	TeamID *string
}

// ActorFromClaims converts token claims into an actor.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	return Actor{
		ID:     claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		TeamID: claims.TeamID,
	}
}

// ScopeKind classifies how a list operation must be filtered for an actor.
type ScopeKind int

const (
	// ScopeAll imposes no team filter (admin reads).
	ScopeAll ScopeKind = iota
	// ScopeTeam restricts results to the actor's team.
	ScopeTeam
	// ScopeEmpty yields an empty result set: the actor is legitimate but
	// has no team to scope by. Distinct from ScopeDenied on purpose.
	ScopeEmpty
	// ScopeDenied refuses the operation outright.
	ScopeDenied
)

// ListScope holds the scoping decision for a team-scoped list operation.
type ListScope struct {
	Kind   ScopeKind
	TeamID string
}

// RequestListScope decides how a request list or stats read is scoped.
// Admins see everything; anyone with a team sees that team; a team-less
// MANAGER or TECHNICIAN gets an empty result rather than a denial.
func RequestListScope(actor Actor) ListScope {
	if actor.Role == models.RoleAdmin {
		return ListScope{Kind: ScopeAll}
	}
	if actor.TeamID != nil && *actor.TeamID != "" {
		return ListScope{Kind: ScopeTeam, TeamID: *actor.TeamID}
	}
	if actor.Role == models.RoleManager || actor.Role == models.RoleTechnician {
		return ListScope{Kind: ScopeEmpty}
	}
	return ListScope{Kind: ScopeDenied}
}

// CanReadRequest applies the team-scope and self-scope gates for a single
// request read. The request is assumed to exist; existence checks happen
// before policy so probing callers learn nothing extra.
func CanReadRequest(actor Actor, req *models.MaintenanceRequest) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleGeneral:
		return req.CreatedByID == actor.ID
	default:
		return actor.TeamID != nil && *actor.TeamID == req.TeamID
	}
}

// CanMutateRequest applies the team-scope gate for request mutations.
func CanMutateRequest(actor Actor, req *models.MaintenanceRequest) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.TeamID != nil && *actor.TeamID == req.TeamID
}

// EligibilityResult reports why an assignment candidate was rejected.
type EligibilityResult int

const (
	Eligible EligibilityResult = iota
	// IneligibleTeam means the candidate is not on the request's team.
	IneligibleTeam
	// IneligibleDepartment means the candidate's department name does not
	// equal the equipment category. Department names and equipment
	// categories share a vocabulary by convention; the comparison is
	// deliberately a case-sensitive string match, and a missing department
	// fails rather than passing as a wildcard.
	IneligibleDepartment
)

// AssigneeEligible checks the assignment-eligibility gate: the candidate
// must share the request's team and their department name must equal the
// equipment category. Used symmetrically for write-side assignment
// validation and read-side technician filtering.
func AssigneeEligible(candidateTeamID *string, candidateDepartment *string, requestTeamID, equipmentCategory string) EligibilityResult {
	if candidateTeamID == nil || *candidateTeamID != requestTeamID {
		return IneligibleTeam
	}
	if candidateDepartment == nil || *candidateDepartment != equipmentCategory {
		return IneligibleDepartment
	}
	return Eligible
}

// CanReadEquipment scopes single-equipment reads: technicians may only see
// their own team's assets, everyone else authenticated may read freely.
func CanReadEquipment(actor Actor, equipmentTeamID string) bool {
	if actor.Role != models.RoleTechnician {
		return true
	}
	return actor.TeamID != nil && *actor.TeamID == equipmentTeamID
}
