package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/service"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

// CourseHandler exposes course catalogue endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List handles GET /courses with optional instructor, department, semester,
// min_credits, max_credits and active filters.
func (h *CourseHandler) List(c *gin.Context) {
	filter, ok := courseFilter(c)
	if !ok {
		return
	}
	filter.MinCredits = queryInt(c, "min_credits", 0)
	filter.MaxCredits = queryInt(c, "max_credits", 0)
	if filter.MinCredits > 0 && filter.MaxCredits > 0 && filter.MinCredits > filter.MaxCredits {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "min_credits must not exceed max_credits"))
		return
	}
	active := queryBool(c, "active")
	courses, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if active != nil {
		kept := courses[:0]
		for _, course := range courses {
			if course.Active == *active {
				kept = append(kept, course)
			}
		}
		courses = kept
	}
	page, size := pageParams(c)
	response.Page(c, courses, page, size)
}

// Search handles GET /courses/search; only active courses are returned.
func (h *CourseHandler) Search(c *gin.Context) {
	filter, ok := courseFilter(c)
	if !ok {
		return
	}
	courses, err := h.courses.Search(c.Request.Context(), filter.Instructor, filter.Department, filter.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Get handles GET /courses/:code.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), courseCodeParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create handles POST /courses.
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update handles PUT /courses/:code.
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Update(c.Request.Context(), courseCodeParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete deactivates the course.
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Deactivate(c.Request.Context(), courseCodeParam(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func courseCodeParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("code")))
}

func courseFilter(c *gin.Context) (models.CourseFilter, bool) {
	filter := models.CourseFilter{
		Instructor: strings.TrimSpace(c.Query("instructor")),
		Department: strings.TrimSpace(c.Query("department")),
	}
	if raw := c.Query("semester"); raw != "" {
		semester, err := models.ParseSemester(raw)
		if err != nil {
			response.Error(c, appErrors.Validation(err, err.Error()))
			return filter, false
		}
		filter.Semester = semester
	}
	return filter, true
}
