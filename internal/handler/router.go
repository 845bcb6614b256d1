package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ccrm-api/api/swagger"
	"github.com/noah-isme/ccrm-api/internal/middleware"
	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ccrm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ccrm-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Students    *StudentHandler
	Courses     *CourseHandler
	Instructors *InstructorHandler
	Enrollments *EnrollmentHandler
	Reports     *ReportHandler
	Exchange    *ExchangeHandler
	Exports     *ExportHandler
	Backups     *BackupHandler
	Metrics     *MetricsHandler
}

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	// EnableDocs mounts the Swagger UI at /docs.
	EnableDocs bool
}

// NewRouter builds the gin engine with the shared middleware chain and all routes.
func NewRouter(cfg RouterConfig, h Handlers, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.GET("/metrics/summary", h.Metrics.Snapshot)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.GET("/:id/gpa", h.Students.GPA)
	students.GET("/:id/transcript", h.Students.Transcript)
	students.GET("/:id/transcript.pdf", h.Students.TranscriptPDF)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", h.Courses.Create)
	courses.GET("/search", h.Courses.Search)
	courses.GET("/:code", h.Courses.Get)
	courses.PUT("/:code", h.Courses.Update)
	courses.DELETE("/:code", h.Courses.Delete)

	instructors := api.Group("/instructors")
	instructors.GET("", h.Instructors.List)
	instructors.POST("", h.Instructors.Create)
	instructors.GET("/:id", h.Instructors.Get)
	instructors.POST("/:id/courses", h.Instructors.AssignCourse)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", h.Enrollments.List)
	enrollments.POST("", h.Enrollments.Create)
	enrollments.DELETE("/:studentId/:courseCode", h.Enrollments.Delete)
	api.PUT("/grades", h.Enrollments.AssignGrade)

	reports := api.Group("/reports")
	reports.GET("/grade-distribution", h.Reports.GradeDistribution)
	reports.GET("/top-students", h.Reports.TopStudents)
	reports.GET("/average-gpa", h.Reports.AverageGPA)
	reports.GET("/course-stats", h.Reports.CourseStats)

	api.POST("/exchange/import/:entity", h.Exchange.Import)
	api.POST("/exchange/export/:entity", h.Exchange.Export)

	api.POST("/exports", h.Exports.Create)
	api.GET("/exports/:id", h.Exports.Status)
	api.GET("/export/:token", h.Exports.Download)

	api.POST("/backups", h.Backups.Create)
	api.GET("/backups", h.Backups.List)

	return r
}
