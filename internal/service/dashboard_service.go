package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// DashboardCounters is the aggregate read surface for the admin dashboard.
type DashboardCounters interface {
	CountUsers(ctx context.Context) (int, error)
	CountTeams(ctx context.Context) (int, error)
	CountEquipment(ctx context.Context) (int, error)
	CountActiveEquipment(ctx context.Context) (int, error)
	CountRequests(ctx context.Context) (int, error)
	CountPendingRequests(ctx context.Context) (int, error)
	CountRequestsByStage(ctx context.Context) ([]models.StageCount, error)
}

const dashboardCacheKey = "requests:stats:dashboard"

// DashboardService assembles the admin-only global stats payload.
type DashboardService struct {
	counters DashboardCounters
	cache    *CacheService
	logger   *zap.Logger
}

func NewDashboardService(counters DashboardCounters, cache *CacheService, logger *zap.Logger) *DashboardService {
	return &DashboardService{counters: counters, cache: cache, logger: logger}
}

// Stats returns the global dashboard counts.
func (s *DashboardService) Stats(ctx context.Context, actor authz.Actor) (*models.AdminDashboard, error) {
	if !authz.Can(actor.Role, authz.ActionAdminStats) {
		return nil, appErrors.ErrForbidden
	}

	var cached models.AdminDashboard
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	dashboard := &models.AdminDashboard{}
	var err error
	if dashboard.TotalUsers, err = s.counters.CountUsers(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.TotalTeams, err = s.counters.CountTeams(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.TotalEquipment, err = s.counters.CountEquipment(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.ActiveEquipment, err = s.counters.CountActiveEquipment(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.TotalRequests, err = s.counters.CountRequests(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.PendingRequests, err = s.counters.CountPendingRequests(ctx); err != nil {
		return nil, s.internal(err)
	}
	if dashboard.RequestsByStage, err = s.counters.CountRequestsByStage(ctx); err != nil {
		return nil, s.internal(err)
	}

	s.cache.Set(ctx, dashboardCacheKey, dashboard)
	return dashboard, nil
}

func (s *DashboardService) internal(err error) error {
	s.logger.Error("failed to assemble dashboard", zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assemble dashboard")
}
