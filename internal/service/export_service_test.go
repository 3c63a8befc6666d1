package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/jobs"
	"github.com/gearguard/gearguard-api/pkg/storage"
)

type mockRequestLister struct {
	lastFilter *models.RequestFilter
	list       []models.RequestDetail
	calls      int
}

func (m *mockRequestLister) List(_ context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	m.calls++
	m.lastFilter = &filter
	return m.list, nil
}

func exportFixture() []models.RequestDetail {
	duration := 2.5
	return []models.RequestDetail{
		{
			MaintenanceRequest: models.MaintenanceRequest{
				ID:       "req-1",
				Title:    "Replace coolant pump",
				Type:     models.TypeCorrective,
				Stage:    models.StageCompleted,
				Priority: models.PriorityHigh,
				Duration: &duration,
			},
			Equipment: models.Equipment{Name: "CNC Mill"},
			Team:      models.Team{Name: "Mechanics"},
			CreatedBy: models.UserSummary{Name: "Dana Operator"},
		},
	}
}

func TestTeamReportCSV(t *testing.T) {
	lister := &mockRequestLister{list: exportFixture()}
	svc := NewExportService(lister, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

	report, err := svc.TeamReport(context.Background(), adminActor, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", report.ContentType)
	assert.Equal(t, "maintenance-report-2026-03-14.csv", report.Filename)
	assert.Nil(t, lister.lastFilter.TeamID, "admin report must not be team scoped")

	body := string(report.Content)
	assert.Contains(t, body, "Title,Type,Stage")
	assert.Contains(t, body, "Replace coolant pump")
	assert.Contains(t, body, "REPAIRED", "terminal stages use the board vocabulary")
	assert.Contains(t, body, "2.5")
}

func TestTeamReportPDF(t *testing.T) {
	lister := &mockRequestLister{list: exportFixture()}
	svc := NewExportService(lister, zap.NewNop())

	report, err := svc.TeamReport(context.Background(), adminActor, FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Content), "%PDF"))
}

func TestTeamReportManagerScope(t *testing.T) {
	lister := &mockRequestLister{}
	svc := NewExportService(lister, zap.NewNop())

	_, err := svc.TeamReport(context.Background(), managerActor("team-1"), FormatCSV)
	require.NoError(t, err)
	require.NotNil(t, lister.lastFilter.TeamID)
	assert.Equal(t, "team-1", *lister.lastFilter.TeamID)
}

func TestTeamReportTeamlessManagerEmpty(t *testing.T) {
	lister := &mockRequestLister{list: exportFixture()}
	svc := NewExportService(lister, zap.NewNop())

	report, err := svc.TeamReport(context.Background(), managerActor(""), FormatCSV)
	require.NoError(t, err)
	assert.Zero(t, lister.calls, "team-less manager must not hit the repository")
	assert.NotContains(t, string(report.Content), "Replace coolant pump")
}

func TestTeamReportDeniedForGeneral(t *testing.T) {
	svc := NewExportService(&mockRequestLister{}, zap.NewNop())

	_, err := svc.TeamReport(context.Background(), authz.Actor{ID: "user-1", Role: models.RoleGeneral}, FormatCSV)
	assert.ErrorContains(t, err, "forbidden")
}

func TestTeamReportUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockRequestLister{}, zap.NewNop())

	_, err := svc.TeamReport(context.Background(), adminActor, ExportFormat("xlsx"))
	assert.Error(t, err)
}

func TestAsyncReportRoundTrip(t *testing.T) {
	lister := &mockRequestLister{list: exportFixture()}
	svc := NewExportService(lister, zap.NewNop())

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	queue := jobs.NewQueue("reports", svc.ProcessReportJob, jobs.QueueConfig{Workers: 1, Logger: zap.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	svc.EnableAsync(store, signer, queue)

	job, err := svc.EnqueueTeamReport(context.Background(), adminActor, FormatCSV)
	require.NoError(t, err)
	require.NotEmpty(t, job.JobID)
	require.NotEmpty(t, job.DownloadToken)

	require.Eventually(t, func() bool {
		file, _, err := svc.OpenReport(job.DownloadToken)
		if err != nil {
			return false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		return err == nil && strings.Contains(string(data), "Replace coolant pump")
	}, 2*time.Second, 10*time.Millisecond, "report never became downloadable")

	_, _, err = svc.OpenReport(job.DownloadToken + "x")
	assert.Error(t, err, "tampered download token must be rejected")
}

func TestAsyncReportRequiresEnable(t *testing.T) {
	svc := NewExportService(&mockRequestLister{}, zap.NewNop())

	_, err := svc.EnqueueTeamReport(context.Background(), adminActor, FormatCSV)
	assert.Error(t, err)
}
