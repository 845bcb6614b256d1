package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/export"
	"github.com/noah-isme/ccrm-api/pkg/storage"
)

type catalogDatasets interface {
	StudentsDataset(ctx context.Context) (export.Dataset, error)
	CoursesDataset(ctx context.Context) (export.Dataset, error)
}

type transcriptSource interface {
	Transcript(ctx context.Context, studentID string) (*models.Transcript, error)
}

type gradeReportSource interface {
	GradeDistribution(ctx context.Context) ([]models.GradeCount, bool, error)
	AverageGPA(ctx context.Context) (float64, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders export jobs to CSV or PDF and signs download links.
type ExportService struct {
	catalog     catalogDatasets
	transcripts transcriptSource
	grades      gradeReportSource
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(catalog catalogDatasets, transcripts transcriptSource, grades gradeReportSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		catalog:     catalog,
		transcripts: transcripts,
		grades:      grades,
		storage:     files,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate builds the job's document, stores the rendered file and returns a signed link.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	payload, err := s.Render(ctx, job)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(buildFilename(job), payload)
	if err != nil {
		return nil, appErrors.IO(err, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export generated", zap.String("job_id", job.ID), zap.String("path", relPath))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Render builds and renders the job's document without storing it.
func (s *ExportService) Render(ctx context.Context, job *models.ExportJob) ([]byte, error) {
	doc, err := s.buildDocument(ctx, job)
	if err != nil {
		return nil, err
	}
	switch job.Format {
	case models.ExportFormatCSV:
		return s.csv.Render(doc.Data)
	case models.ExportFormatPDF:
		return s.pdf.Render(doc)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", job.Format))
	}
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func buildFilename(job *models.ExportJob) string {
	scope := "all"
	if job.StudentID != "" {
		scope = sanitizeFilename(job.StudentID)
	}
	short := job.ID
	if len(short) > 8 {
		short = short[:8]
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.%s", strings.ToLower(string(job.Kind)), scope, timestamp, short, strings.ToLower(string(job.Format)))
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDocument(ctx context.Context, job *models.ExportJob) (export.Document, error) {
	switch job.Kind {
	case models.ExportKindStudents:
		data, err := s.catalog.StudentsDataset(ctx)
		return export.Document{Title: "Student Roster", Data: data, Widths: []float64{2, 3, 5, 5, 2, 2, 2, 5}}, err
	case models.ExportKindCourses:
		data, err := s.catalog.CoursesDataset(ctx)
		return export.Document{Title: "Course Catalogue", Data: data, Widths: []float64{2, 5, 1.5, 3, 2, 2, 1.5, 5}}, err
	case models.ExportKindTranscript:
		return s.transcriptDocument(ctx, job.StudentID)
	case models.ExportKindGradeReport:
		return s.gradeReportDocument(ctx)
	default:
		return export.Document{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export kind %s", job.Kind))
	}
}

func (s *ExportService) transcriptDocument(ctx context.Context, studentID string) (export.Document, error) {
	transcript, err := s.transcripts.Transcript(ctx, studentID)
	if err != nil {
		return export.Document{}, err
	}
	rows := make([]map[string]string, 0, len(transcript.Lines))
	for _, line := range transcript.Lines {
		grade, points := "", ""
		if line.Grade != nil {
			grade = string(*line.Grade)
		}
		if line.Points != nil {
			points = fmt.Sprintf("%.1f", *line.Points)
		}
		rows = append(rows, map[string]string{
			"Course":   line.CourseCode,
			"Title":    line.Title,
			"Credits":  strconv.Itoa(line.Credits),
			"Semester": string(line.Semester),
			"Grade":    grade,
			"Points":   points,
			"Status":   string(line.Status),
		})
	}
	return export.Document{
		Title: "Transcript",
		Summary: []string{
			fmt.Sprintf("Student: %s (%s)", transcript.FullName, transcript.RegNo),
			fmt.Sprintf("Current credit load: %d", transcript.CreditLoad),
			fmt.Sprintf("GPA: %.2f", transcript.GPA),
		},
		Data: export.Dataset{
			Headers: []string{"Course", "Title", "Credits", "Semester", "Grade", "Points", "Status"},
			Rows:    rows,
			Quoted:  []string{"Title"},
		},
		Widths: []float64{2, 5, 1.5, 2, 1.5, 1.5, 2},
	}, nil
}

func (s *ExportService) gradeReportDocument(ctx context.Context) (export.Document, error) {
	distribution, _, err := s.grades.GradeDistribution(ctx)
	if err != nil {
		return export.Document{}, err
	}
	average, _, err := s.grades.AverageGPA(ctx)
	if err != nil {
		return export.Document{}, err
	}
	rows := make([]map[string]string, 0, len(distribution))
	for _, bucket := range distribution {
		rows = append(rows, map[string]string{
			"Grade":       string(bucket.Grade),
			"Points":      fmt.Sprintf("%.1f", bucket.Grade.Points()),
			"Description": bucket.Description,
			"Count":       strconv.Itoa(bucket.Count),
		})
	}
	return export.Document{
		Title:   "Grade Report",
		Summary: []string{fmt.Sprintf("Average GPA of active students: %.2f", average)},
		Data: export.Dataset{
			Headers: []string{"Grade", "Points", "Description", "Count"},
			Rows:    rows,
		},
		Widths: []float64{1, 1, 4, 1},
	}, nil
}
