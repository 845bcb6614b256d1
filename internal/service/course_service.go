package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/validation"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

type courseRepository interface {
	Add(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, code string) (*models.Course, error)
	FindAll(ctx context.Context) ([]*models.Course, error)
	FindBy(ctx context.Context, match func(*models.Course) bool) ([]*models.Course, error)
	Exists(ctx context.Context, code string) (bool, error)
	Mutate(ctx context.Context, code string, fn func(*models.Course) error) (*models.Course, error)
}

// CreateCourseRequest holds payload for creating courses.
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required,coursecode"`
	Title      string `json:"title" validate:"required"`
	Credits    int    `json:"credits" validate:"min=1,max=6"`
	Instructor string `json:"instructor"`
	Semester   string `json:"semester" validate:"required"`
	Department string `json:"department"`
}

// UpdateCourseRequest holds the mutable course fields. The code is fixed at creation.
type UpdateCourseRequest struct {
	Title      string `json:"title" validate:"required"`
	Credits    int    `json:"credits" validate:"min=1,max=6"`
	Instructor string `json:"instructor"`
	Semester   string `json:"semester" validate:"required"`
	Department string `json:"department"`
	Active     *bool  `json:"active"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create adds a course; codes are normalised to upper case and must be unused.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	semester, err := models.ParseSemester(req.Semester)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.Exists(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already exists", code))
	}

	course, err := models.NewCourse(models.CourseParams{
		Code:       code,
		Title:      req.Title,
		Credits:    req.Credits,
		Instructor: req.Instructor,
		Semester:   semester,
		Department: req.Department,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, course); err != nil {
		return nil, err
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("course created", zap.String("course_code", course.Code), zap.Int("credits", course.Credits))
	return course.Clone(), nil
}

func (s *CourseService) Get(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, code)
	if err != nil {
		return nil, lookupError(err, "course", code)
	}
	return course, nil
}

// List returns every course matching filter ordered by code.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	courses, err := s.repo.FindBy(ctx, filter.Matches)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Update rewrites the mutable fields of a course.
func (s *CourseService) Update(ctx context.Context, code string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}
	semester, err := models.ParseSemester(req.Semester)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	course, err := s.repo.Mutate(ctx, code, func(c *models.Course) error {
		c.Title = strings.TrimSpace(req.Title)
		c.Credits = req.Credits
		c.Instructor = strings.TrimSpace(req.Instructor)
		c.Semester = semester
		c.Department = strings.TrimSpace(req.Department)
		if req.Active != nil {
			c.Active = *req.Active
		}
		return nil
	})
	if err != nil {
		return nil, lookupError(err, "course", code)
	}
	s.cache.InvalidateReports(ctx)
	return course, nil
}

// Deactivate retires a course from the catalogue without removing it.
func (s *CourseService) Deactivate(ctx context.Context, code string) error {
	if _, err := s.repo.Mutate(ctx, code, func(c *models.Course) error {
		c.Active = false
		return nil
	}); err != nil {
		return lookupError(err, "course", code)
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("course deactivated", zap.String("course_code", code))
	return nil
}

// Search returns active courses matching every non-empty criterion, sorted by code.
func (s *CourseService) Search(ctx context.Context, instructor, department string, semester models.Semester) ([]*models.Course, error) {
	return s.List(ctx, models.CourseFilter{Instructor: instructor, Department: department, Semester: semester, ActiveOnly: true})
}

func (s *CourseService) FindByInstructor(ctx context.Context, instructor string) ([]*models.Course, error) {
	return s.List(ctx, models.CourseFilter{Instructor: instructor})
}

func (s *CourseService) FindByDepartment(ctx context.Context, department string) ([]*models.Course, error) {
	return s.List(ctx, models.CourseFilter{Department: department})
}

func (s *CourseService) FindBySemester(ctx context.Context, semester models.Semester) ([]*models.Course, error) {
	return s.List(ctx, models.CourseFilter{Semester: semester})
}

// FindByCredits returns courses whose credits fall within [min, max].
func (s *CourseService) FindByCredits(ctx context.Context, min, max int) ([]*models.Course, error) {
	if min > max {
		return nil, appErrors.Clone(appErrors.ErrValidation, "min credits must not exceed max credits")
	}
	return s.repo.FindBy(ctx, func(c *models.Course) bool { return c.Credits >= min && c.Credits <= max })
}
