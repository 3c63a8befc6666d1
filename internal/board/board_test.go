package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
)

func strPtr(s string) *string { return &s }

func detail(id string, stage models.Stage, opts ...func(*models.RequestDetail)) models.RequestDetail {
	d := models.RequestDetail{
		MaintenanceRequest: models.MaintenanceRequest{
			ID:     id,
			Stage:  stage,
			TeamID: "team-1",
		},
		Equipment: models.Equipment{ID: "eq-" + id, Category: "Mechanical", TeamID: "team-1"},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func assignedTo(userID string) func(*models.RequestDetail) {
	return func(d *models.RequestDetail) { d.AssignedToID = &userID }
}

func scheduledAt(t time.Time) func(*models.RequestDetail) {
	return func(d *models.RequestDetail) { d.ScheduledDate = &t }
}

func category(name string) func(*models.RequestDetail) {
	return func(d *models.RequestDetail) { d.Equipment.Category = name }
}

func TestGroupByStageIncludesEmptyBuckets(t *testing.T) {
	requests := []models.RequestDetail{
		detail("r1", models.StageOpen),
		detail("r2", models.StageOpen),
		detail("r3", models.StageCompleted),
	}

	grouped := GroupByStage(requests)

	require.Len(t, grouped, len(models.Stages()))
	assert.Len(t, grouped[models.StageOpen], 2)
	assert.Len(t, grouped[models.StageCompleted], 1)
	// Stages without requests are present with empty lists, never absent.
	assert.NotNil(t, grouped[models.StageAssigned])
	assert.Empty(t, grouped[models.StageAssigned])
	assert.NotNil(t, grouped[models.StageCancelled])
}

func TestColumnsUseBoardLabels(t *testing.T) {
	columns := Columns([]models.RequestDetail{detail("r1", models.StageCancelled)})

	require.Len(t, columns, 5)
	assert.Equal(t, "OPEN", columns[0].Label)
	assert.Equal(t, "REPAIRED", columns[3].Label)
	assert.Equal(t, "SCRAP", columns[4].Label)
	assert.Len(t, columns[4].Requests, 1)
}

func TestComputeOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	requests := []models.RequestDetail{
		detail("late", models.StageInProgress, scheduledAt(past)),
		detail("future", models.StageOpen, scheduledAt(future)),
		detail("unscheduled", models.StageOpen),
		// Terminal stages are never overdue, however old the schedule.
		detail("done", models.StageCompleted, scheduledAt(past)),
		detail("scrapped", models.StageCancelled, scheduledAt(past)),
	}

	overdue := ComputeOverdue(requests, now)

	require.Len(t, overdue, 1)
	assert.Equal(t, "late", overdue[0].ID)
}

func TestBuildSnapshot(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	requests := []models.RequestDetail{
		detail("late", models.StageInProgress, scheduledAt(cutoff.Add(-time.Hour)), assignedTo("tech-1")),
		detail("open", models.StageOpen),
	}

	snapshot := BuildSnapshot(requests, cutoff)

	require.Len(t, snapshot.Columns, 5)
	assert.Len(t, snapshot.Columns[0].Requests, 1)
	require.Len(t, snapshot.Overdue, 1)
	assert.Equal(t, "late", snapshot.Overdue[0].ID)
	require.Len(t, snapshot.Unassigned, 1)
	assert.Equal(t, "open", snapshot.Unassigned[0].ID)
}

func TestComputeUnassigned(t *testing.T) {
	requests := []models.RequestDetail{
		detail("open", models.StageOpen),
		detail("taken", models.StageInProgress, assignedTo("tech-1")),
		detail("done-unassigned", models.StageCompleted),
	}

	unassigned := ComputeUnassigned(requests)

	require.Len(t, unassigned, 2)
	assert.Equal(t, "open", unassigned[0].ID)
	assert.Equal(t, "done-unassigned", unassigned[1].ID)
}

func TestFilterForTechnician(t *testing.T) {
	actor := authz.Actor{ID: "tech-1", Role: models.RoleTechnician, TeamID: strPtr("team-1")}
	dept := strPtr("Mechanical")

	requests := []models.RequestDetail{
		detail("mine", models.StageInProgress, assignedTo("tech-1")),
		detail("someone-elses", models.StageInProgress, assignedTo("tech-2")),
		detail("open-matching", models.StageOpen),
		detail("open-electrical", models.StageOpen, category("Electrical")),
	}

	visible := FilterForTechnician(requests, actor, dept)

	require.Len(t, visible, 2)
	assert.Equal(t, "mine", visible[0].ID)
	assert.Equal(t, "open-matching", visible[1].ID)
}

func TestFilterForTechnicianWithoutDepartment(t *testing.T) {
	actor := authz.Actor{ID: "tech-1", Role: models.RoleTechnician, TeamID: strPtr("team-1")}

	requests := []models.RequestDetail{
		detail("mine", models.StageInProgress, assignedTo("tech-1")),
		detail("open", models.StageOpen),
	}

	// No department means no eligibility for unassigned work, but assigned
	// requests remain visible.
	visible := FilterForTechnician(requests, actor, nil)

	require.Len(t, visible, 1)
	assert.Equal(t, "mine", visible[0].ID)
}
