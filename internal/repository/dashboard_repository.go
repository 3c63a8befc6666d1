package repository

import (
	"context"

	"github.com/gearguard/gearguard-api/internal/models"
)

// DashboardRepository aggregates the per-entity counters behind a single
// read surface for the admin dashboard.
type DashboardRepository struct {
	users     *UserRepository
	teams     *TeamRepository
	equipment *EquipmentRepository
	requests  *RequestRepository
}

func NewDashboardRepository(users *UserRepository, teams *TeamRepository, equipment *EquipmentRepository, requests *RequestRepository) *DashboardRepository {
	return &DashboardRepository{users: users, teams: teams, equipment: equipment, requests: requests}
}

func (r *DashboardRepository) CountUsers(ctx context.Context) (int, error) {
	return r.users.Count(ctx)
}

func (r *DashboardRepository) CountTeams(ctx context.Context) (int, error) {
	return r.teams.Count(ctx)
}

func (r *DashboardRepository) CountEquipment(ctx context.Context) (int, error) {
	return r.equipment.Count(ctx)
}

func (r *DashboardRepository) CountActiveEquipment(ctx context.Context) (int, error) {
	return r.equipment.CountActive(ctx)
}

func (r *DashboardRepository) CountRequests(ctx context.Context) (int, error) {
	return r.requests.Count(ctx)
}

func (r *DashboardRepository) CountPendingRequests(ctx context.Context) (int, error) {
	return r.requests.CountPending(ctx)
}

func (r *DashboardRepository) CountRequestsByStage(ctx context.Context) ([]models.StageCount, error) {
	return r.requests.CountByStage(ctx)
}
