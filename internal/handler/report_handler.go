package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/response"
)

const defaultTopStudents = 5

// ReportHandler exposes the aggregate reports. Each response carries
// meta.cached so clients can tell a cached answer from a fresh one.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) GradeDistribution(c *gin.Context) {
	dist, cached, err := h.reports.GradeDistribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Report(c, dist, cached)
}

// TopStudents handles GET /reports/top-students?n=.
func (h *ReportHandler) TopStudents(c *gin.Context) {
	top, cached, err := h.reports.TopStudents(c.Request.Context(), queryInt(c, "n", defaultTopStudents))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Report(c, top, cached)
}

func (h *ReportHandler) AverageGPA(c *gin.Context) {
	avg, cached, err := h.reports.AverageGPA(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Report(c, gin.H{"average_gpa": avg}, cached)
}

func (h *ReportHandler) CourseStats(c *gin.Context) {
	stats, cached, err := h.reports.CourseStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Report(c, stats, cached)
}
