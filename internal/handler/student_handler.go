package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

type documentRenderer interface {
	Render(ctx context.Context, job *models.ExportJob) ([]byte, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students    *service.StudentService
	enrollments *service.EnrollmentService
	documents   documentRenderer
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, enrollments *service.EnrollmentService, documents documentRenderer) *StudentHandler {
	return &StudentHandler{students: students, enrollments: enrollments, documents: documents}
}

// List handles GET /students?search=&active=&page=&limit=.
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Active: queryBool(c, "active"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get handles GET /students/:id.
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create handles POST /students.
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update handles PUT /students/:id.
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete deactivates the student; records are kept.
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GPA handles GET /students/:id/gpa.
func (h *StudentHandler) GPA(c *gin.Context) {
	id := c.Param("id")
	gpa, err := h.enrollments.CalculateGPA(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	load, err := h.enrollments.CreditLoad(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"student_id":  id,
		"gpa":         gpa,
		"credit_load": load,
		"max_credits": h.enrollments.MaxCredits(),
	}, nil)
}

// Transcript handles GET /students/:id/transcript.
func (h *StudentHandler) Transcript(c *gin.Context) {
	transcript, err := h.enrollments.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// TranscriptPDF renders the transcript synchronously as a PDF attachment.
func (h *StudentHandler) TranscriptPDF(c *gin.Context) {
	id := c.Param("id")
	payload, err := h.documents.Render(c.Request.Context(), &models.ExportJob{
		Kind:      models.ExportKindTranscript,
		Format:    models.ExportFormatPDF,
		StudentID: id,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transcript_%s.pdf\"", id))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}
