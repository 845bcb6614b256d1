package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/repository"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/jobs"
	"github.com/noah-isme/ccrm-api/pkg/storage"
)

type recordingDispatcher struct {
	err  error
	jobs []jobs.Job
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	return nil, errors.New("render failed")
}

type exportFixture struct {
	*engineFixture
	repo     *repository.ExportJobRepository
	files    *storage.LocalStorage
	exporter *ExportService
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	f := &exportFixture{engineFixture: newEngineFixture(t, 24), repo: repository.NewExportJobRepository()}
	var err error
	f.files, err = storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exchange := NewExchangeService(f.students, f.courses, f.files, f.files, nil, f.metrics, nil)
	reports := NewReportService(f.students, f.courses, f.enrollments, nil, nil)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	f.exporter = NewExportService(exchange, f.engine, reports, f.files, signer, ExportConfig{APIPrefix: "/api/v1/"}, nil)

	ctx := context.Background()
	f.addStudent(t, "S001")
	f.addCourse(t, "CS101-A", 3)
	_, err = f.engine.Enroll(ctx, "S001", "CS101-A")
	require.NoError(t, err)
	_, err = f.engine.AssignGrade(ctx, "S001", "CS101-A", "A")
	require.NoError(t, err)
	return f
}

func (f *exportFixture) service(queue jobDispatcher) *ExportJobService {
	return NewExportJobService(f.repo, f.students, queue, f.exporter, f.metrics, nil, ExportJobServiceConfig{ResultTTL: time.Hour})
}

func TestExportJobLifecycleThroughQueue(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	worker := NewExportWorker(f.repo, f.exporter, f.metrics, 2, nil)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	queue.Start(ctx)
	defer queue.Stop()
	svc := f.service(queue)

	job, err := svc.CreateJob(ctx, ExportRequest{Kind: models.ExportKindTranscript, Format: models.ExportFormatCSV, StudentID: "S001"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobQueued, job.Status)
	require.NotEmpty(t, job.ID)

	var status *models.ExportJob
	require.Eventually(t, func() bool {
		status, err = svc.GetStatus(ctx, job.ID)
		return err == nil && status.Status == models.ExportJobFinished
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 100, status.Progress)
	require.True(t, strings.HasPrefix(status.DownloadURL, "/api/v1/export/"))

	download, err := svc.ResolveDownload(ctx, strings.TrimPrefix(status.DownloadURL, "/api/v1/export/"))
	require.NoError(t, err)
	defer download.File.Close()
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Course,Title,Credits,Semester,Grade,Points,Status\n"))
	assert.Contains(t, string(body), `CS101-A,"Course CS101-A",3,FALL,A,9.0,COMPLETED`)
	assert.True(t, strings.HasPrefix(download.Filename, "transcript_S001_"))

	_, err = svc.ResolveDownload(ctx, "tampered."+status.DownloadURL)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportJobValidation(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	dispatcher := &recordingDispatcher{}
	svc := f.service(dispatcher)

	_, err := svc.CreateJob(ctx, ExportRequest{Kind: models.ExportKindTranscript, Format: models.ExportFormatPDF})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.CreateJob(ctx, ExportRequest{Kind: models.ExportKindTranscript, Format: models.ExportFormatPDF, StudentID: "S404"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.CreateJob(ctx, ExportRequest{Kind: models.ExportKindCourses, Format: "XLSX"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.CreateJob(ctx, ExportRequest{Kind: "ROSTER", Format: models.ExportFormatCSV})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, dispatcher.jobs)

	_, err = svc.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportJobEnqueueFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	svc := f.service(&recordingDispatcher{err: errors.New("queue stopped")})

	_, err := svc.CreateJob(ctx, ExportRequest{Kind: models.ExportKindStudents, Format: models.ExportFormatCSV})
	require.ErrorIs(t, err, appErrors.ErrInternal)

	queued, _ := f.repo.ListQueued(ctx, 10)
	assert.Empty(t, queued)
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	job := &models.ExportJob{Kind: models.ExportKindCourses, Format: models.ExportFormatCSV}
	require.NoError(t, f.repo.Create(ctx, job))
	worker := NewExportWorker(f.repo, failingGenerator{}, f.metrics, 2, nil)

	require.Error(t, worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 0}))
	stored, _ := f.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ExportJobQueued, stored.Status)
	assert.Equal(t, "render failed", stored.Error)

	require.Error(t, worker.Handle(ctx, jobs.Job{ID: job.ID, Attempt: 2}))
	stored, _ = f.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ExportJobFailed, stored.Status)
	assert.NotNil(t, stored.FinishedAt)

	svc := f.service(&recordingDispatcher{})
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	token, _, err := signer.Generate(job.ID, "courses.csv")
	require.NoError(t, err)
	_, err = svc.ResolveDownload(ctx, token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportServiceRendersPDFGradeReport(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	job := &models.ExportJob{ID: "job1", Kind: models.ExportKindGradeReport, Format: models.ExportFormatPDF}

	result, err := f.exporter.Generate(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, models.ExportFormatPDF, result.Format)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))
	body, err := os.ReadFile(filepath.Join(f.files.BaseDir(), result.RelativePath))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	_, err = f.exporter.Generate(ctx, &models.ExportJob{ID: "job2", Kind: models.ExportKindStudents, Format: "XLSX"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportJobCleanupRemovesExpiredFiles(t *testing.T) {
	ctx := context.Background()
	f := newExportFixture(t)
	svc := f.service(&recordingDispatcher{})

	_, err := f.files.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	finished := models.ExportJobFinished
	past := time.Now().Add(-2 * time.Hour)
	path := "old.csv"
	job := &models.ExportJob{Kind: models.ExportKindStudents, Format: models.ExportFormatCSV}
	require.NoError(t, f.repo.Create(ctx, job))
	require.NoError(t, f.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &finished, FinishedAt: &past, ResultPath: &path}))

	svc.CleanupExpired(ctx)

	_, err = os.Stat(filepath.Join(f.files.BaseDir(), "old.csv"))
	assert.True(t, os.IsNotExist(err))
	stored, _ := f.repo.GetByID(ctx, job.ID)
	assert.Empty(t, stored.ResultPath)
}
