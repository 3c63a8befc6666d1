package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/config"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type mockRequestRepo struct {
	byID    map[string]models.MaintenanceRequest
	details map[string]models.RequestDetail

	listFilters []models.RequestFilter
	listResult  []models.RequestDetail

	created     *models.MaintenanceRequest
	updated     *models.MaintenanceRequest
	deactivated bool
	updateErr   error

	byTeam, byCategory, byStage []models.NameCount
}

func (m *mockRequestRepo) List(_ context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	m.listFilters = append(m.listFilters, filter)
	return m.listResult, nil
}

func (m *mockRequestRepo) FindByID(_ context.Context, id string) (*models.MaintenanceRequest, error) {
	req, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &req, nil
}

func (m *mockRequestRepo) FindDetailByID(_ context.Context, id string) (*models.RequestDetail, error) {
	if detail, ok := m.details[id]; ok {
		return &detail, nil
	}
	req, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.RequestDetail{MaintenanceRequest: req}, nil
}

func (m *mockRequestRepo) Create(_ context.Context, request *models.MaintenanceRequest) error {
	request.ID = "req-new"
	m.created = request
	if m.byID == nil {
		m.byID = map[string]models.MaintenanceRequest{}
	}
	m.byID[request.ID] = *request
	return nil
}

func (m *mockRequestRepo) Update(_ context.Context, request *models.MaintenanceRequest, deactivateEquipment bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = request
	m.deactivated = deactivateEquipment
	m.byID[request.ID] = *request
	return nil
}

func (m *mockRequestRepo) StatBuckets(_ context.Context, _ *string) (byTeam, byCategory, byStage []models.NameCount, err error) {
	return m.byTeam, m.byCategory, m.byStage, nil
}

type mockEquipmentReader struct {
	byID map[string]models.EquipmentDetail
}

func (m *mockEquipmentReader) FindByID(_ context.Context, id string) (*models.EquipmentDetail, error) {
	eq, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &eq, nil
}

type mockUserReader struct {
	byID map[string]models.UserDetail
}

func (m *mockUserReader) FindByID(_ context.Context, id string) (*models.UserDetail, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func strPtr(s string) *string { return &s }

func newRequestFixture() (*RequestService, *mockRequestRepo, *mockEquipmentReader, *mockUserReader) {
	repo := &mockRequestRepo{
		byID: map[string]models.MaintenanceRequest{
			"req-1": {
				ID:          "req-1",
				Title:       "Hydraulic press leaking",
				Type:        models.TypeCorrective,
				Stage:       models.StageOpen,
				Priority:    models.PriorityHigh,
				EquipmentID: "eq-1",
				TeamID:      "team-1",
				CreatedByID: "user-general",
			},
		},
	}
	equipment := &mockEquipmentReader{
		byID: map[string]models.EquipmentDetail{
			"eq-1": {Equipment: models.Equipment{
				ID:       "eq-1",
				Name:     "Hydraulic Press",
				Category: "Mechanics",
				TeamID:   "team-1",
				IsActive: true,
			}},
		},
	}
	users := &mockUserReader{
		byID: map[string]models.UserDetail{
			"tech-ok": {
				User:           models.User{ID: "tech-ok", Role: models.RoleTechnician, TeamID: strPtr("team-1")},
				DepartmentName: strPtr("Mechanics"),
			},
			"tech-other-team": {
				User:           models.User{ID: "tech-other-team", Role: models.RoleTechnician, TeamID: strPtr("team-2")},
				DepartmentName: strPtr("Mechanics"),
			},
			"tech-electrician": {
				User:           models.User{ID: "tech-electrician", Role: models.RoleTechnician, TeamID: strPtr("team-1")},
				DepartmentName: strPtr("Electrics"),
			},
			"tech-no-department": {
				User: models.User{ID: "tech-no-department", Role: models.RoleTechnician, TeamID: strPtr("team-1")},
			},
		},
	}
	svc := NewRequestService(repo, equipment, users, nil, nil, zap.NewNop(), config.BoardConfig{})
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return svc, repo, equipment, users
}

func managerActor(teamID string) authz.Actor {
	actor := authz.Actor{ID: "manager-1", Role: models.RoleManager}
	if teamID != "" {
		actor.TeamID = &teamID
	}
	return actor
}

func TestRequestServiceCreate(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	actor := authz.Actor{ID: "user-general", Role: models.RoleGeneral}

	detail, err := svc.Create(context.Background(), actor, models.CreateRequestInput{
		Title:       "Broken conveyor belt",
		Type:        models.TypeCorrective,
		EquipmentID: "eq-1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)

	assert.Equal(t, models.StageOpen, repo.created.Stage)
	assert.Equal(t, models.PriorityMedium, repo.created.Priority, "priority defaults to MEDIUM")
	assert.Equal(t, "team-1", repo.created.TeamID, "team inherited from equipment")
	assert.Equal(t, "user-general", repo.created.CreatedByID)
	assert.Equal(t, repo.created.ID, detail.ID)
}

func TestRequestServiceCreateUnknownEquipment(t *testing.T) {
	svc, _, _, _ := newRequestFixture()
	actor := authz.Actor{ID: "user-general", Role: models.RoleGeneral}

	_, err := svc.Create(context.Background(), actor, models.CreateRequestInput{
		Title:       "Ghost machine",
		Type:        models.TypeCorrective,
		EquipmentID: "eq-missing",
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestRequestServiceGetOrdering(t *testing.T) {
	svc, _, _, _ := newRequestFixture()
	outsider := managerActor("team-2")

	// Missing rows are 404 for everyone, checked before policy.
	_, err := svc.Get(context.Background(), outsider, "req-missing")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	// Existing rows outside the actor's team are 403, never 404.
	_, err = svc.Get(context.Background(), outsider, "req-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestRequestServiceGetSelfScope(t *testing.T) {
	svc, _, _, _ := newRequestFixture()

	owner := authz.Actor{ID: "user-general", Role: models.RoleGeneral}
	_, err := svc.Get(context.Background(), owner, "req-1")
	require.NoError(t, err)

	stranger := authz.Actor{ID: "user-other", Role: models.RoleGeneral}
	_, err = svc.Get(context.Background(), stranger, "req-1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
}

func TestRequestServiceUpdateEmptyPayload(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Nil(t, repo.updated, "no write on an empty payload")
}

func TestRequestServiceUpdateScope(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	stage := "IN_PROGRESS"

	_, err := svc.Update(context.Background(), managerActor("team-2"), "req-1", models.UpdateRequestInput{Stage: &stage})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	assert.Nil(t, repo.updated)

	// Admins bypass the team gate entirely.
	admin := authz.Actor{ID: "admin-1", Role: models.RoleAdmin}
	_, err = svc.Update(context.Background(), admin, "req-1", models.UpdateRequestInput{Stage: &stage})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.StageInProgress, repo.updated.Stage)
}

func TestRequestServiceAssignEligible(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	stage := "ASSIGNED"

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{
		Stage:        &stage,
		AssignedToID: models.Some("tech-ok"),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	require.NotNil(t, repo.updated.AssignedToID)
	assert.Equal(t, "tech-ok", *repo.updated.AssignedToID)
	assert.Equal(t, models.StageAssigned, repo.updated.Stage)
}

func TestRequestServiceAssignIneligible(t *testing.T) {
	cases := []struct {
		name      string
		candidate string
	}{
		{"wrong team", "tech-other-team"},
		{"department does not match category", "tech-electrician"},
		{"no department at all", "tech-no-department"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _, _ := newRequestFixture()
			desc := "also updating the description"

			_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{
				AssignedToID: models.Some(tc.candidate),
				Description:  &desc,
			})
			require.Error(t, err)
			assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
			assert.Nil(t, repo.updated, "ineligible assignment aborts the whole update")
		})
	}
}

func TestRequestServiceAssignUnknownUser(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{
		AssignedToID: models.Some("tech-missing"),
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound), "missing candidate is a 404, not a validation failure")
	assert.Nil(t, repo.updated)
}

func TestRequestServiceAssignEligibilityCaseSensitive(t *testing.T) {
	svc, repo, _, users := newRequestFixture()
	users.byID["tech-lowercase"] = models.UserDetail{
		User:           models.User{ID: "tech-lowercase", Role: models.RoleTechnician, TeamID: strPtr("team-1")},
		DepartmentName: strPtr("mechanics"),
	}

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{
		AssignedToID: models.Some("tech-lowercase"),
	})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
	assert.Nil(t, repo.updated)
}

func TestRequestServiceUnassignExplicitNull(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	req := repo.byID["req-1"]
	req.AssignedToID = strPtr("tech-ok")
	repo.byID["req-1"] = req

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{
		AssignedToID: models.Null[string](),
	})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Nil(t, repo.updated.AssignedToID)
}

func TestRequestServiceTerminalStages(t *testing.T) {
	t.Run("REPAIRED persists as COMPLETED and stamps completed_date", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		stage := models.BoardStageRepaired

		_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Stage: &stage})
		require.NoError(t, err)
		require.NotNil(t, repo.updated)
		assert.Equal(t, models.StageCompleted, repo.updated.Stage)
		require.NotNil(t, repo.updated.CompletedDate)
		assert.Equal(t, svc.now(), *repo.updated.CompletedDate)
		assert.False(t, repo.deactivated)
	})

	t.Run("SCRAP persists as CANCELLED and deactivates the equipment", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		stage := models.BoardStageScrap

		_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Stage: &stage})
		require.NoError(t, err)
		require.NotNil(t, repo.updated)
		assert.Equal(t, models.StageCancelled, repo.updated.Stage)
		assert.NotNil(t, repo.updated.CompletedDate)
		assert.True(t, repo.deactivated)
	})

	t.Run("reopening keeps completed_date", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		req := repo.byID["req-1"]
		done := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		req.Stage = models.StageCompleted
		req.CompletedDate = &done
		repo.byID["req-1"] = req

		stage := "IN_PROGRESS"
		_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Stage: &stage})
		require.NoError(t, err)
		require.NotNil(t, repo.updated)
		assert.Equal(t, models.StageInProgress, repo.updated.Stage)
		require.NotNil(t, repo.updated.CompletedDate, "completed_date records that the request was once closed")
		assert.Equal(t, done, *repo.updated.CompletedDate)
		assert.False(t, repo.deactivated)
	})

	t.Run("re-closing refreshes completed_date", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		req := repo.byID["req-1"]
		done := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		req.Stage = models.StageInProgress
		req.CompletedDate = &done
		repo.byID["req-1"] = req

		stage := string(models.StageCompleted)
		_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Stage: &stage})
		require.NoError(t, err)
		require.NotNil(t, repo.updated)
		require.NotNil(t, repo.updated.CompletedDate)
		assert.Equal(t, svc.now(), *repo.updated.CompletedDate)
	})

	t.Run("unknown stage label rejected", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		stage := "DONE"

		_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Stage: &stage})
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
		assert.Nil(t, repo.updated)
	})
}

func TestRequestServiceNoopUpdateSucceeds(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	priority := "HIGH" // already HIGH on the fixture

	_, err := svc.Update(context.Background(), managerActor("team-1"), "req-1", models.UpdateRequestInput{Priority: &priority})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.PriorityHigh, repo.updated.Priority)
}

func TestRequestServiceBoardSnapshot(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	overdueAt := svc.now().Add(-time.Hour)
	futureAt := svc.now().Add(time.Hour)
	repo.listResult = []models.RequestDetail{
		{MaintenanceRequest: models.MaintenanceRequest{
			ID: "req-late", Stage: models.StageInProgress, TeamID: "team-1",
			AssignedToID: strPtr("tech-ok"), ScheduledDate: &overdueAt,
		}},
		{MaintenanceRequest: models.MaintenanceRequest{
			ID: "req-open", Stage: models.StageOpen, TeamID: "team-1",
			ScheduledDate: &futureAt,
		}},
	}

	snapshot, err := svc.Board(context.Background(), managerActor("team-1"))
	require.NoError(t, err)
	require.Len(t, snapshot.Columns, 5)
	assert.Len(t, snapshot.Columns[0].Requests, 1)
	require.Len(t, snapshot.Overdue, 1)
	assert.Equal(t, "req-late", snapshot.Overdue[0].ID)
	require.Len(t, snapshot.Unassigned, 1)
	assert.Equal(t, "req-open", snapshot.Unassigned[0].ID)
}

func TestRequestServiceBoardOverdueGrace(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	svc.overdueGrace = time.Hour
	justDue := svc.now().Add(-30 * time.Minute)
	repo.listResult = []models.RequestDetail{
		{MaintenanceRequest: models.MaintenanceRequest{
			ID: "req-just-due", Stage: models.StageOpen, TeamID: "team-1",
			ScheduledDate: &justDue,
		}},
	}

	snapshot, err := svc.Board(context.Background(), managerActor("team-1"))
	require.NoError(t, err)
	assert.Empty(t, snapshot.Overdue, "requests inside the grace window are not overdue yet")
}

func TestRequestServiceListTeamScopes(t *testing.T) {
	t.Run("admin sees every team", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		admin := authz.Actor{ID: "admin-1", Role: models.RoleAdmin}

		_, err := svc.ListTeam(context.Background(), admin)
		require.NoError(t, err)
		require.Len(t, repo.listFilters, 1)
		assert.Nil(t, repo.listFilters[0].TeamID)
	})

	t.Run("technician is scoped to own team", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		tech := authz.Actor{ID: "tech-ok", Role: models.RoleTechnician, TeamID: strPtr("team-1")}

		_, err := svc.ListTeam(context.Background(), tech)
		require.NoError(t, err)
		require.Len(t, repo.listFilters, 1)
		require.NotNil(t, repo.listFilters[0].TeamID)
		assert.Equal(t, "team-1", *repo.listFilters[0].TeamID)
	})

	t.Run("team-less manager gets an empty list, not an error", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()

		list, err := svc.ListTeam(context.Background(), managerActor(""))
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Empty(t, repo.listFilters, "no query issued for an empty scope")
	})
}

func TestRequestServiceStats(t *testing.T) {
	t.Run("totals sum the stage buckets", func(t *testing.T) {
		svc, repo, _, _ := newRequestFixture()
		repo.byStage = []models.NameCount{{Name: "OPEN", Count: 3}, {Name: "IN_PROGRESS", Count: 2}}

		stats, err := svc.Stats(context.Background(), managerActor("team-1"))
		require.NoError(t, err)
		assert.Equal(t, 5, stats.Total)
	})

	t.Run("team-less technician gets zeroed stats", func(t *testing.T) {
		svc, _, _, _ := newRequestFixture()
		tech := authz.Actor{ID: "tech-1", Role: models.RoleTechnician}

		stats, err := svc.Stats(context.Background(), tech)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Empty(t, stats.ByStage)
	})

	t.Run("general users are denied", func(t *testing.T) {
		svc, _, _, _ := newRequestFixture()
		general := authz.Actor{ID: "user-general", Role: models.RoleGeneral}

		_, err := svc.Stats(context.Background(), general)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))
	})
}

func TestRequestServiceStageUpdaterAdapter(t *testing.T) {
	svc, repo, _, _ := newRequestFixture()
	updater := svc.StageUpdater(managerActor("team-1"))

	err := updater.UpdateStage(context.Background(), "req-1", models.StageInProgress)
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.StageInProgress, repo.updated.Stage)
}
