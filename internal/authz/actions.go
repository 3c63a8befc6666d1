package authz

import "github.com/gearguard/gearguard-api/internal/models"

// Action enumerates every role-gated operation in the system.
type Action string

const (
	ActionTeamCreate Action = "team:create"
	ActionTeamUpdate Action = "team:update"
	ActionTeamDelete Action = "team:delete"

	ActionDepartmentCreate Action = "department:create"
	ActionDepartmentUpdate Action = "department:update"
	ActionDepartmentDelete Action = "department:delete"

	ActionUserCreate Action = "user:create"
	ActionUserList   Action = "user:list"
	ActionUserUpdate Action = "user:update"
	ActionUserDelete Action = "user:delete"

	ActionEquipmentCreate Action = "equipment:create"
	ActionEquipmentUpdate Action = "equipment:update"
	ActionEquipmentDelete Action = "equipment:delete"

	ActionRequestListAll Action = "request:list_all"
	ActionRequestTeam    Action = "request:team_list"
	ActionRequestStats   Action = "request:stats"
	ActionRequestExport  Action = "request:export"

	ActionAdminStats Action = "admin:stats"
)

// capabilities is the single source of truth mapping each action to the
// roles allowed to perform it.
var capabilities = map[Action][]models.UserRole{
	ActionTeamCreate: {models.RoleAdmin},
	ActionTeamUpdate: {models.RoleAdmin},
	ActionTeamDelete: {models.RoleAdmin},

	ActionDepartmentCreate: {models.RoleAdmin},
	ActionDepartmentUpdate: {models.RoleAdmin},
	ActionDepartmentDelete: {models.RoleAdmin},

	ActionUserCreate: {models.RoleAdmin},
	ActionUserList:   {models.RoleAdmin, models.RoleManager},
	ActionUserUpdate: {models.RoleAdmin},
	ActionUserDelete: {models.RoleAdmin},

	ActionEquipmentCreate: {models.RoleAdmin, models.RoleManager},
	ActionEquipmentUpdate: {models.RoleAdmin, models.RoleManager},
	ActionEquipmentDelete: {models.RoleAdmin, models.RoleManager},

	ActionRequestListAll: {models.RoleAdmin, models.RoleManager},
	ActionRequestTeam:    {models.RoleAdmin, models.RoleManager, models.RoleTechnician},
	ActionRequestStats:   {models.RoleAdmin, models.RoleManager, models.RoleTechnician},
	ActionRequestExport:  {models.RoleAdmin, models.RoleManager},

	ActionAdminStats: {models.RoleAdmin},
}

// Can applies the role gate for the given action. Unknown actions deny.
func Can(role models.UserRole, action Action) bool {
	allowed, ok := capabilities[action]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor returns the allowed-role set for an action, primarily for route
// wiring so handlers and policy share one table.
func RolesFor(action Action) []models.UserRole {
	allowed := capabilities[action]
	out := make([]models.UserRole, len(allowed))
	copy(out, allowed)
	return out
}
