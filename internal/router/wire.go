package router

import (
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/handler"
	"github.com/noah-isme/attendance-tracker/internal/repository"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
)

// Services groups the domain services built over one storage handle.
type Services struct {
	Courses    *service.CourseService
	Attendance *service.AttendanceService
	Days       *service.DayService
	Reports    *service.ReportService
	Tokens     *service.TokenService
	Metrics    *service.MetricsService
}

// NewServices wires repositories and services over db.
func NewServices(cfg *config.Config, db *sqlx.DB, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}
	validate := validator.New()

	courseRepo := repository.NewCourseRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	extraRepo := repository.NewExtraClassRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	lookup := service.OccurrenceLookup{Templates: templateRepo, Extras: extraRepo}
	attendance := service.NewAttendanceService(db, courseRepo, lookup, attendanceRepo, validate, log.Named("attendance"))
	if metrics != nil {
		attendance.WithMetrics(metrics)
	}

	return &Services{
		Courses:    service.NewCourseService(db, courseRepo, templateRepo, extraRepo, attendanceRepo, validate, log.Named("courses")),
		Attendance: attendance,
		Days:       service.NewDayService(db, courseRepo, templateRepo, extraRepo, attendance, log.Named("days")),
		Reports:    service.NewReportService(db, courseRepo, templateRepo, extraRepo, attendance, log.Named("reports")),
		Tokens: service.NewTokenService(service.TokenConfig{
			Secret: cfg.Auth.Secret,
			Expiry: cfg.Auth.Expiration,
			Issuer: cfg.Auth.Issuer,
		}, log.Named("tokens")),
		Metrics: metrics,
	}
}

// Build wires services and handlers into the dependencies New routes to.
func Build(cfg *config.Config, db *sqlx.DB, log *zap.Logger) (*Services, *Dependencies) {
	svcs := NewServices(cfg, db, log)
	deps := &Dependencies{
		Config:     cfg,
		Logger:     log,
		Metrics:    svcs.Metrics,
		Tokens:     svcs.Tokens,
		Health:     handler.NewHealthHandler(db, svcs.Metrics),
		Courses:    handler.NewCourseHandler(svcs.Courses, svcs.Reports),
		Attendance: handler.NewAttendanceHandler(svcs.Attendance, svcs.Days, svcs.Reports),
	}
	return svcs, deps
}
