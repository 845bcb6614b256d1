package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/export"
)

// TimestampLayout is the local date-time format used in exported files.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// Exchange entities.
const (
	EntityStudents = "students"
	EntityCourses  = "courses"
)

const (
	studentMinFields = 4
	courseMinFields  = 6
)

var (
	studentHeaders = []string{"ID", "RegNo", "FullName", "Email", "Active", "EnrolledCourses", "GPA", "CreatedAt"}
	courseHeaders  = []string{"Code", "Title", "Credits", "Instructor", "Semester", "Department", "Active", "CreatedAt"}
)

type studentExchangeStore interface {
	Merge(ctx context.Context, student *models.Student) (bool, error)
	FindAll(ctx context.Context) ([]*models.Student, error)
}

type courseExchangeStore interface {
	Add(ctx context.Context, course *models.Course) error
	Exists(ctx context.Context, code string) (bool, error)
	FindAll(ctx context.Context) ([]*models.Course, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// RowError describes one skipped input row.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarises a CSV import.
type ImportResult struct {
	Entity   string     `json:"entity"`
	Imported int        `json:"imported"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

func (r *ImportResult) skip(line int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Line: line, Reason: err.Error()})
}

// ExportFile describes a written export.
type ExportFile struct {
	Entity string `json:"entity"`
	Path   string `json:"path"`
	Rows   int    `json:"rows"`
}

// ExchangeService moves students and courses between the stores and CSV files.
// Imports read from the data directory, exports write to the export directory.
type ExchangeService struct {
	students  studentExchangeStore
	courses   courseExchangeStore
	dataFiles fileStore
	exports   fileStore
	csv       csvRenderer
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExchangeService constructs the CSV exchange.
func NewExchangeService(students studentExchangeStore, courses courseExchangeStore, dataFiles, exports fileStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ExchangeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeService{
		students:  students,
		courses:   courses,
		dataFiles: dataFiles,
		exports:   exports,
		csv:       export.NewCSVExporter(),
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// ImportStudents reads filename from the data directory.
func (s *ExchangeService) ImportStudents(ctx context.Context, filename string) (*ImportResult, error) {
	f, err := s.open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return s.ImportStudentsFrom(ctx, f)
}

// ImportStudentsFrom parses id,regNo,fullName,email[,active] rows. Rows that
// are short, malformed or fail validation are skipped and reported.
func (s *ExchangeService) ImportStudentsFrom(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{Entity: EntityStudents}
	err := export.ReadRows(r, func(line int, fields []string) {
		student, err := parseStudentRow(fields)
		if err == nil {
			var updated bool
			updated, err = s.students.Merge(ctx, student)
			if err == nil && updated {
				result.Updated++
			}
		}
		s.record(result, EntityStudents, line, err)
	}, func(line int, err error) {
		s.record(result, EntityStudents, line, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "malformed row"))
	})
	if err != nil {
		return nil, appErrors.IO(err, "failed to read students file")
	}
	s.finishImport(ctx, result)
	return result, nil
}

// ImportCourses reads filename from the data directory.
func (s *ExchangeService) ImportCourses(ctx context.Context, filename string) (*ImportResult, error) {
	f, err := s.open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return s.ImportCoursesFrom(ctx, f)
}

// ImportCoursesFrom parses code,title,credits,instructor,semester,department[,active] rows.
func (s *ExchangeService) ImportCoursesFrom(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{Entity: EntityCourses}
	err := export.ReadRows(r, func(line int, fields []string) {
		course, err := parseCourseRow(fields)
		if err == nil {
			var exists bool
			if exists, err = s.courses.Exists(ctx, course.Code); err == nil {
				if err = s.courses.Add(ctx, course); err == nil && exists {
					result.Updated++
				}
			}
		}
		s.record(result, EntityCourses, line, err)
	}, func(line int, err error) {
		s.record(result, EntityCourses, line, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "malformed row"))
	})
	if err != nil {
		return nil, appErrors.IO(err, "failed to read courses file")
	}
	s.finishImport(ctx, result)
	return result, nil
}

func (s *ExchangeService) open(filename string) (*os.File, error) {
	f, err := s.dataFiles.Open(filename)
	if err != nil {
		return nil, appErrors.IO(err, fmt.Sprintf("cannot open %s", filename))
	}
	return f, nil
}

func (s *ExchangeService) record(result *ImportResult, entity string, line int, err error) {
	if err != nil {
		result.skip(line, err)
		s.metrics.RecordCSVRow(entity, "import", "skipped")
		s.logger.Warn("csv row skipped", zap.String("entity", entity), zap.Int("line", line), zap.Error(err))
		return
	}
	result.Imported++
	s.metrics.RecordCSVRow(entity, "import", "ok")
}

func (s *ExchangeService) finishImport(ctx context.Context, result *ImportResult) {
	if result.Imported > 0 {
		s.cache.InvalidateReports(ctx)
	}
	s.logger.Info("csv import finished",
		zap.String("entity", result.Entity),
		zap.Int("imported", result.Imported),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
}

func parseStudentRow(fields []string) (*models.Student, error) {
	if len(fields) < studentMinFields {
		return nil, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("expected at least %d fields, got %d", studentMinFields, len(fields)))
	}
	student := models.NewStudent(fields[0], fields[1], fields[2], fields[3])
	if len(fields) > studentMinFields && fields[4] != "" {
		student.Active = parseActive(fields[4])
	}
	return student, nil
}

func parseCourseRow(fields []string) (*models.Course, error) {
	if len(fields) < courseMinFields {
		return nil, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("expected at least %d fields, got %d", courseMinFields, len(fields)))
	}
	credits, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, fmt.Sprintf("credits %q is not a number", fields[2]))
	}
	semester, err := models.ParseSemester(fields[4])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "unknown semester")
	}
	course, err := models.NewCourse(models.CourseParams{
		Code:       strings.ToUpper(fields[0]),
		Title:      fields[1],
		Credits:    credits,
		Instructor: fields[3],
		Semester:   semester,
		Department: fields[5],
	})
	if err != nil {
		return nil, err
	}
	if len(fields) > courseMinFields && fields[6] != "" {
		course.Active = parseActive(fields[6])
	}
	return course, nil
}

// parseActive treats only a case-insensitive "true" as active.
func parseActive(v string) bool {
	return strings.EqualFold(v, "true")
}

// StudentsDataset lists every student in ID order with derived columns.
func (s *ExchangeService) StudentsDataset(ctx context.Context) (export.Dataset, error) {
	students, err := s.students.FindAll(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"ID":              st.ID,
			"RegNo":           st.RegNo,
			"FullName":        st.FullName,
			"Email":           st.Email,
			"Active":          strconv.FormatBool(st.Active),
			"EnrolledCourses": strconv.Itoa(len(st.EnrolledCourses())),
			"GPA":             fmt.Sprintf("%.2f", st.GPA()),
			"CreatedAt":       formatTimestamp(st.CreatedAt),
		})
	}
	return export.Dataset{Headers: studentHeaders, Rows: rows, Quoted: []string{"FullName"}}, nil
}

// CoursesDataset lists every course in code order.
func (s *ExchangeService) CoursesDataset(ctx context.Context) (export.Dataset, error) {
	courses, err := s.courses.FindAll(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	rows := make([]map[string]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, map[string]string{
			"Code":       c.Code,
			"Title":      c.Title,
			"Credits":    strconv.Itoa(c.Credits),
			"Instructor": c.Instructor,
			"Semester":   string(c.Semester),
			"Department": c.Department,
			"Active":     strconv.FormatBool(c.Active),
			"CreatedAt":  formatTimestamp(c.CreatedAt),
		})
	}
	return export.Dataset{Headers: courseHeaders, Rows: rows, Quoted: []string{"Title"}}, nil
}

// ExportStudents writes all students to filename in the export directory.
func (s *ExchangeService) ExportStudents(ctx context.Context, filename string) (*ExportFile, error) {
	if filename == "" {
		filename = "students.csv"
	}
	data, err := s.StudentsDataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.write(EntityStudents, filename, data)
}

// ExportCourses writes all courses to filename in the export directory.
func (s *ExchangeService) ExportCourses(ctx context.Context, filename string) (*ExportFile, error) {
	if filename == "" {
		filename = "courses.csv"
	}
	data, err := s.CoursesDataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.write(EntityCourses, filename, data)
}

func (s *ExchangeService) write(entity, filename string, data export.Dataset) (*ExportFile, error) {
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	path, err := s.exports.Save(filename, payload)
	if err != nil {
		return nil, appErrors.IO(err, fmt.Sprintf("cannot write %s", filename))
	}
	for range data.Rows {
		s.metrics.RecordCSVRow(entity, "export", "ok")
	}
	s.logger.Info("csv export written", zap.String("entity", entity), zap.String("path", path), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Entity: entity, Path: path, Rows: len(data.Rows)}, nil
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
