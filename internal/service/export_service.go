package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/export"
	"github.com/gearguard/gearguard-api/pkg/jobs"
	"github.com/gearguard/gearguard-api/pkg/storage"
)

// ExportFormat selects the report rendering.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// Report is a rendered export ready for download.
type Report struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportRequestLister is the read surface the export service needs.
type ExportRequestLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error)
}

// AsyncReport acknowledges a queued report job. The download token is valid
// as soon as the job finishes writing the file.
type AsyncReport struct {
	JobID         string    `json:"job_id"`
	DownloadToken string    `json:"download_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ReportJob is the payload queued for background rendering.
type ReportJob struct {
	Actor  authz.Actor
	Format ExportFormat
	Path   string
}

// ExportService renders team request reports as CSV or PDF, either inline
// or through the background queue with signed download links.
type ExportService struct {
	requests ExportRequestLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
	now      func() time.Time

	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	queue  *jobs.Queue
}

func NewExportService(requests ExportRequestLister, logger *zap.Logger) *ExportService {
	return &ExportService{
		requests: requests,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
		now:      time.Now,
	}
}

// EnableAsync attaches storage, a link signer and a worker queue. Without it
// only the inline TeamReport path is available.
func (s *ExportService) EnableAsync(store *storage.LocalStorage, signer *storage.SignedURLSigner, queue *jobs.Queue) {
	s.store = store
	s.signer = signer
	s.queue = queue
}

// TeamReport renders the actor-scoped request list in the given format.
func (s *ExportService) TeamReport(ctx context.Context, actor authz.Actor, format ExportFormat) (*Report, error) {
	if !authz.Can(actor.Role, authz.ActionRequestExport) {
		return nil, appErrors.ErrForbidden
	}

	scope := authz.RequestListScope(actor)
	filter := models.RequestFilter{}
	switch scope.Kind {
	case authz.ScopeAll:
	case authz.ScopeTeam:
		filter.TeamID = &scope.TeamID
	case authz.ScopeEmpty:
		// Team-less manager: an empty report, not an error.
	default:
		return nil, appErrors.ErrForbidden
	}

	var list []models.RequestDetail
	if scope.Kind != authz.ScopeEmpty {
		var err error
		list, err = s.requests.List(ctx, filter)
		if err != nil {
			s.logger.Error("failed to list requests for export", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export report")
		}
	}

	table := buildRequestTable(list)
	stamp := s.now().UTC().Format("2006-01-02")

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &Report{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("maintenance-report-%s.csv", stamp),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(table, "Maintenance Request Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Report{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("maintenance-report-%s.pdf", stamp),
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
}

// EnqueueTeamReport queues a report for background rendering and returns a
// signed download link for it.
func (s *ExportService) EnqueueTeamReport(_ context.Context, actor authz.Actor, format ExportFormat) (*AsyncReport, error) {
	if s.queue == nil || s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "async export is not enabled")
	}
	if !authz.Can(actor.Role, authz.ActionRequestExport) {
		return nil, appErrors.ErrForbidden
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}

	jobID := uuid.NewString()
	path := fmt.Sprintf("%s/report.%s", jobID, format)

	token, expiresAt, err := s.signer.Generate(jobID, path)
	if err != nil {
		s.logger.Error("failed to sign download link", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}

	err = s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    "team_report",
		Payload: ReportJob{Actor: actor, Format: format, Path: path},
	})
	if err != nil {
		s.logger.Error("failed to enqueue report job", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}

	return &AsyncReport{JobID: jobID, DownloadToken: token, ExpiresAt: expiresAt}, nil
}

// ProcessReportJob is the queue handler rendering and persisting a report.
func (s *ExportService) ProcessReportJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReportJob)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}

	report, err := s.TeamReport(ctx, payload.Actor, payload.Format)
	if err != nil {
		return fmt.Errorf("render report %s: %w", job.ID, err)
	}
	if _, err := s.store.Save(payload.Path, report.Content); err != nil {
		return fmt.Errorf("store report %s: %w", job.ID, err)
	}

	s.logger.Info("report rendered", zap.String("job_id", job.ID), zap.String("path", payload.Path))
	return nil
}

// OpenReport validates a download token and returns the stored file. A valid
// token for a job still in flight yields a not-found so clients can retry.
func (s *ExportService) OpenReport(token string) (*os.File, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "async export is not enabled")
	}

	_, path, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}

	file, err := s.store.Open(path)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report not ready")
	}

	contentType := "text/csv"
	if filepath.Ext(path) == ".pdf" {
		contentType = "application/pdf"
	}
	return file, contentType, nil
}

func buildRequestTable(list []models.RequestDetail) export.Table {
	table := export.Table{
		Headers: []string{"Title", "Type", "Stage", "Priority", "Equipment", "Team", "Created By", "Assigned To", "Scheduled", "Completed", "Duration (h)"},
	}
	for _, item := range list {
		assignedTo := ""
		if item.AssignedTo != nil {
			assignedTo = item.AssignedTo.Name
		}
		duration := ""
		if item.Duration != nil {
			duration = strconv.FormatFloat(*item.Duration, 'f', -1, 64)
		}
		table.Rows = append(table.Rows, []string{
			item.Title,
			string(item.Type),
			item.Stage.BoardLabel(),
			string(item.Priority),
			item.Equipment.Name,
			item.Team.Name,
			item.CreatedBy.Name,
			assignedTo,
			formatDate(item.ScheduledDate),
			formatDate(item.CompletedDate),
			duration,
		})
	}
	return table
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
