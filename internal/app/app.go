package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/handler"
	"github.com/noah-isme/ccrm-api/internal/repository"
	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/internal/validation"
	"github.com/noah-isme/ccrm-api/pkg/cache"
	"github.com/noah-isme/ccrm-api/pkg/config"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/jobs"
	"github.com/noah-isme/ccrm-api/pkg/storage"
)

const exportQueueName = "exports"

// App owns the stores, services and background workers of one process.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	redis     *redis.Client
	cacheRepo *repository.CacheRepository
	queue     *jobs.Queue

	Metrics     *service.MetricsService
	Cache       *service.CacheService
	Students    *service.StudentService
	Courses     *service.CourseService
	Instructors *service.InstructorService
	Enrollments *service.EnrollmentService
	Reports     *service.ReportService
	Exchange    *service.ExchangeService
	Exports     *service.ExportService
	ExportJobs  *service.ExportJobService
	Backups     *service.BackupService
}

// New wires the application. Redis is only dialled when report caching is
// enabled; an unreachable Redis disables the cache instead of failing startup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, Metrics: service.NewMetricsService()}

	if cfg.Reports.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("report cache disabled", zap.Error(err))
		} else {
			a.redis = client
		}
	}
	a.cacheRepo = repository.NewCacheRepository(a.redis, logger)
	a.Cache = service.NewCacheService(a.cacheRepo, a.Metrics, cfg.Reports.CacheTTL, logger, a.redis != nil)

	dataFiles, err := storage.NewLocalStorage(cfg.Records.DataDir)
	if err != nil {
		return nil, err
	}
	exportFiles, err := storage.NewLocalStorage(cfg.Records.ExportDir)
	if err != nil {
		return nil, err
	}

	validate := validation.New()
	students := repository.NewStudentRepository(validate)
	courses := repository.NewCourseRepository(validate)
	instructors := repository.NewInstructorRepository(validate)
	enrollments := repository.NewEnrollmentRepository()
	exportJobs := repository.NewExportJobRepository()

	a.Students = service.NewStudentService(students, a.Cache, validate, logger)
	a.Courses = service.NewCourseService(courses, a.Cache, validate, logger)
	a.Instructors = service.NewInstructorService(instructors, courses, validate, logger)
	a.Enrollments = service.NewEnrollmentService(students, courses, enrollments, a.Cache, a.Metrics, cfg.Records.MaxCreditsPerSemester, logger)
	a.Reports = service.NewReportService(students, courses, enrollments, a.Cache, logger)
	a.Exchange = service.NewExchangeService(students, courses, dataFiles, exportFiles, a.Cache, a.Metrics, logger)

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	a.Exports = service.NewExportService(a.Exchange, a.Enrollments, a.Reports, exportFiles, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.ResultTTL,
	}, logger)

	worker := service.NewExportWorker(exportJobs, a.Exports, a.Metrics, cfg.Exports.WorkerRetries, logger)
	a.queue = jobs.NewQueue(exportQueueName, worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logger,
	})
	a.ExportJobs = service.NewExportJobService(exportJobs, students, a.queue, a.Exports, a.Metrics, logger, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.ResultTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	a.Backups = service.NewBackupService(a.Exchange, service.BackupConfig{
		DataDir:   cfg.Records.DataDir,
		ExportDir: cfg.Records.ExportDir,
		BackupDir: cfg.Records.BackupDir,
	}, logger)

	return a, nil
}

// Start launches the export workers and the cleanup ticker, then replays
// export jobs that were queued before the workers existed.
func (a *App) Start(ctx context.Context) {
	a.queue.Start(ctx)
	a.ExportJobs.RecoverPendingJobs(ctx)
	a.ExportJobs.StartCleanup(ctx)
}

// Bootstrap imports the configured course and student files. A file that
// cannot be opened is logged and skipped.
func (a *App) Bootstrap(ctx context.Context) error {
	courses, err := a.Exchange.ImportCourses(ctx, a.cfg.Records.CoursesFile)
	if err = a.tolerateIO(err, a.cfg.Records.CoursesFile); err != nil {
		return fmt.Errorf("bootstrap courses: %w", err)
	}
	students, err := a.Exchange.ImportStudents(ctx, a.cfg.Records.StudentsFile)
	if err = a.tolerateIO(err, a.cfg.Records.StudentsFile); err != nil {
		return fmt.Errorf("bootstrap students: %w", err)
	}
	fields := make([]zap.Field, 0, 2)
	if courses != nil {
		fields = append(fields, zap.Int("courses", courses.Imported))
	}
	if students != nil {
		fields = append(fields, zap.Int("students", students.Imported))
	}
	a.logger.Info("bootstrap import finished", fields...)
	return nil
}

// Router builds the HTTP surface over the wired services.
func (a *App) Router() *gin.Engine {
	var pinger handler.Pinger
	if a.redis != nil {
		pinger = a.cacheRepo
	}
	return handler.NewRouter(handler.RouterConfig{
		APIPrefix:      a.cfg.APIPrefix,
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
		EnableDocs:     a.cfg.Env != config.EnvProduction,
	}, handler.Handlers{
		Students:    handler.NewStudentHandler(a.Students, a.Enrollments, a.Exports),
		Courses:     handler.NewCourseHandler(a.Courses),
		Instructors: handler.NewInstructorHandler(a.Instructors),
		Enrollments: handler.NewEnrollmentHandler(a.Enrollments),
		Reports:     handler.NewReportHandler(a.Reports),
		Exchange:    handler.NewExchangeHandler(a.Exchange),
		Exports:     handler.NewExportHandler(a.ExportJobs),
		Backups:     handler.NewBackupHandler(a.Backups),
		Metrics:     handler.NewMetricsHandler(a.Metrics, a.queue, pinger),
	}, a.Metrics, a.logger)
}

// Close stops the workers and releases the Redis connection.
func (a *App) Close() error {
	a.queue.Stop()
	return a.cacheRepo.Close()
}

func (a *App) tolerateIO(err error, file string) error {
	if err != nil && errors.Is(err, appErrors.ErrIO) {
		a.logger.Warn("bootstrap file skipped", zap.String("file", file), zap.Error(err))
		return nil
	}
	return err
}
