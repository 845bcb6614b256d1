package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/ccrm-api/internal/models"
)

// ExportJobRepository keeps export job metadata for the lifetime of the process.
type ExportJobRepository struct {
	rows *table[*models.ExportJob]
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository() *ExportJobRepository {
	return &ExportJobRepository{rows: newTable((*models.ExportJob).Clone)}
}

// Create stores a new job, assigning an ID, status and creation time when unset.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportJobQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.rows.put(job.ID, job)
	return nil
}

// GetByID returns a copy of the job or ErrNotFound.
func (r *ExportJobRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.rows.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

// UpdateExportJobParams defines the mutable fields; nil fields are left as they are.
type UpdateExportJobParams struct {
	Status      *models.ExportJobStatus
	Progress    *int
	ResultPath  *string
	DownloadURL *string
	ExpiresAt   *time.Time
	Error       *string
	FinishedAt  *time.Time
}

// Update applies params to the stored job.
func (r *ExportJobRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	_, err := r.rows.mutate(id, func(job *models.ExportJob) error {
		if params.Status != nil {
			job.Status = *params.Status
		}
		if params.Progress != nil {
			job.Progress = *params.Progress
		}
		if params.ResultPath != nil {
			job.ResultPath = *params.ResultPath
		}
		if params.DownloadURL != nil {
			job.DownloadURL = *params.DownloadURL
		}
		if params.ExpiresAt != nil {
			t := *params.ExpiresAt
			job.ExpiresAt = &t
		}
		if params.Error != nil {
			job.Error = *params.Error
		}
		if params.FinishedAt != nil {
			t := *params.FinishedAt
			job.FinishedAt = &t
		}
		return nil
	})
	return err
}

// ListQueued returns up to limit queued jobs, oldest first.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]*models.ExportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	jobs := r.rows.filter(func(j *models.ExportJob) bool {
		return j.Status == models.ExportJobQueued
	})
	sort.SliceStable(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })
	return head(jobs, limit), nil
}

// ListFinishedBefore returns up to limit finished jobs completed before cutoff, oldest first.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs := r.rows.filter(func(j *models.ExportJob) bool {
		return j.Status == models.ExportJobFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	})
	sort.SliceStable(jobs, func(i, k int) bool { return jobs[i].FinishedAt.Before(*jobs[k].FinishedAt) })
	return head(jobs, limit), nil
}

// Delete removes the job record.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	if !r.rows.remove(id) {
		return ErrNotFound
	}
	return nil
}

func head[V any](rows []V, limit int) []V {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
