package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRequestRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "type", "stage", "priority", "equipment_id", "team_id",
		"created_by_id", "assigned_to_id", "scheduled_date", "completed_date", "duration", "created_at", "updated_at",
	}).AddRow("req-1", "Broken press", "jammed", models.TypeCorrective, models.StageOpen, models.PriorityHigh,
		"eq-1", "team-1", "user-1", nil, nil, nil, nil, now, now)

	mock.ExpectQuery("SELECT id, title, description, type, stage, priority, equipment_id, team_id").
		WithArgs("req-1").
		WillReturnRows(rows)

	request, err := repo.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "req-1", request.ID)
	require.Equal(t, models.StageOpen, request.Stage)
	require.Nil(t, request.AssignedToID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateWithoutSideEffect(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE maintenance_requests SET stage").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := &models.MaintenanceRequest{ID: "req-1", EquipmentID: "eq-1", Stage: models.StageInProgress, Priority: models.PriorityMedium}
	require.NoError(t, repo.Update(context.Background(), request, false))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateDeactivatesEquipmentInSameTx(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE maintenance_requests SET stage").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE equipment SET is_active = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	request := &models.MaintenanceRequest{ID: "req-1", EquipmentID: "eq-1", Stage: models.StageCancelled, Priority: models.PriorityMedium}
	require.NoError(t, repo.Update(context.Background(), request, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateRollsBackOnEquipmentFailure(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE maintenance_requests SET stage").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE equipment SET is_active = FALSE").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	request := &models.MaintenanceRequest{ID: "req-1", EquipmentID: "eq-1", Stage: models.StageCancelled, Priority: models.PriorityMedium}
	require.Error(t, repo.Update(context.Background(), request, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM maintenance_requests WHERE stage IN`).
		WithArgs(models.StageOpen, models.StageInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
