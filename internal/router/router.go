package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker/api/swagger"
	"github.com/noah-isme/attendance-tracker/internal/handler"
	"github.com/noah-isme/attendance-tracker/internal/middleware"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker/pkg/middleware/requestid"
)

const metricsPath = "/metrics"

// Dependencies are the wired handlers and collaborators the engine routes to.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *service.MetricsService
	Tokens     *service.TokenService
	Health     *handler.HealthHandler
	Courses    *handler.CourseHandler
	Attendance *handler.AttendanceHandler
}

// New builds the gin engine with every route registered.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics, metricsPath))
		r.GET(metricsPath, deps.Health.Prometheus)
	}

	r.GET("/health", deps.Health.Health)
	r.GET("/ready", deps.Health.Ready)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth.Enabled {
		api.Use(middleware.BearerAuth(deps.Tokens))
	}

	api.GET("/stats", deps.Health.Stats)

	courses := api.Group("/courses")
	courses.POST("", deps.Courses.Create)
	courses.GET("", deps.Courses.List)
	courses.GET("/:id", deps.Courses.Get)
	courses.PATCH("/:id", deps.Courses.Update)
	courses.DELETE("/:id", deps.Courses.Delete)
	courses.POST("/:id/templates", deps.Courses.AddTemplate)
	courses.POST("/:id/extras", deps.Courses.AddExtra)
	courses.GET("/:id/attendance", deps.Attendance.Counts)
	courses.GET("/:id/held", deps.Attendance.ClassesHeld)
	courses.GET("/:id/export", deps.Attendance.Export)

	api.PATCH("/templates/:id", deps.Courses.SetTemplateActive)
	api.PUT("/attendance", deps.Attendance.SetStatus)
	api.GET("/classes", deps.Attendance.ClassesFor)

	return r
}
