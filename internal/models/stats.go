package models

// NameCount is a generic aggregation bucket.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RequestStats aggregates team-scoped request counts for dashboards.
type RequestStats struct {
	ByTeam     []NameCount `json:"by_team"`
	ByCategory []NameCount `json:"by_category"`
	ByStage    []NameCount `json:"by_stage"`
	Total      int         `json:"total"`
}

// StageCount pairs a stage with its request count.
type StageCount struct {
	Stage Stage `json:"stage"`
	Count int   `json:"count"`
}

// AdminDashboard is the global stats payload, admin only.
type AdminDashboard struct {
	TotalUsers      int          `json:"total_users"`
	TotalTeams      int          `json:"total_teams"`
	TotalEquipment  int          `json:"total_equipment"`
	TotalRequests   int          `json:"total_requests"`
	ActiveEquipment int          `json:"active_equipment"`
	PendingRequests int          `json:"pending_requests"`
	RequestsByStage []StageCount `json:"requests_by_stage"`
}
