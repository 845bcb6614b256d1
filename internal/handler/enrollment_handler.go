package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment engine.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List handles GET /enrollments?student_id=&course_code=&status=&page=&limit=.
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID:  strings.TrimSpace(c.Query("student_id")),
		CourseCode: strings.ToUpper(strings.TrimSpace(c.Query("course_code"))),
		Status:     models.EnrollmentStatus(strings.ToUpper(c.Query("status"))),
	}
	filter.Page, filter.PageSize = pageParams(c)

	enrollments, pagination, err := h.enrollments.ListEnrollments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Create handles POST /enrollments.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), strings.TrimSpace(req.StudentID), strings.ToUpper(strings.TrimSpace(req.CourseCode)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Delete handles DELETE /enrollments/:studentId/:courseCode. Dropping a
// course the student is not enrolled in succeeds with unenrolled=false.
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	ok, err := h.enrollments.Unenroll(c.Request.Context(), c.Param("studentId"), strings.ToUpper(c.Param("courseCode")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unenrolled": ok}, nil)
}

// AssignGrade handles PUT /grades. Grading a course without an active
// enrollment succeeds with assigned=false.
func (h *EnrollmentHandler) AssignGrade(c *gin.Context) {
	var req service.AssignGradeRequest
	if !bindJSON(c, &req) {
		return
	}
	ok, err := h.enrollments.AssignGrade(c.Request.Context(), strings.TrimSpace(req.StudentID), strings.ToUpper(strings.TrimSpace(req.CourseCode)), req.Grade)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"assigned": ok}, nil)
}
