package models

import "time"

// ExportKind selects the dataset an export job renders.
type ExportKind string

const (
	ExportKindStudents    ExportKind = "STUDENTS"
	ExportKindCourses     ExportKind = "COURSES"
	ExportKindTranscript  ExportKind = "TRANSCRIPT"
	ExportKindGradeReport ExportKind = "GRADE_REPORT"
)

// ExportFormat is the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "CSV"
	ExportFormatPDF ExportFormat = "PDF"
)

// ExportJobStatus tracks an asynchronous export through the queue.
type ExportJobStatus string

const (
	ExportJobQueued     ExportJobStatus = "QUEUED"
	ExportJobProcessing ExportJobStatus = "PROCESSING"
	ExportJobFinished   ExportJobStatus = "FINISHED"
	ExportJobFailed     ExportJobStatus = "FAILED"
)

// ExportJob is a queued export request and its outcome.
type ExportJob struct {
	ID          string          `json:"id"`
	Kind        ExportKind      `json:"kind"`
	Format      ExportFormat    `json:"format"`
	StudentID   string          `json:"student_id,omitempty"`
	Status      ExportJobStatus `json:"status"`
	Progress    int             `json:"progress"`
	ResultPath  string          `json:"-"`
	DownloadURL string          `json:"download_url,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// Clone returns an independent copy.
func (j *ExportJob) Clone() *ExportJob {
	if j == nil {
		return nil
	}
	cp := *j
	if j.ExpiresAt != nil {
		t := *j.ExpiresAt
		cp.ExpiresAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
