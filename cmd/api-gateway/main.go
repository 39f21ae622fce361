package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
)

// @title Academic Records API
// @version 1.0.0
// @description Multi-tenant academic records backend
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheSvc *service.CacheService
	if cfg.Attendance.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Attendance.SummaryTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	whatsappRepo := repository.NewWhatsAppLogRepository(db)

	tokenSvc := service.NewTokenService(cfg.UserJWT, cfg.StudentJWT)
	authSvc := service.NewAuthService(userRepo, tokenSvc, validate, logr)
	studentAuthSvc := service.NewStudentAuthService(studentRepo, tokenSvc, validate, logr)
	accessSvc := service.NewAccessService(enrollmentRepo, unitRepo, logr)
	batchSvc := service.NewBatchService(batchRepo, studentRepo, subjectRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, batchRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, batchRepo, enrollmentRepo, validate, logr)
	unitSvc := service.NewUnitService(unitRepo, subjectRepo, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, unitRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, accessSvc, batchRepo, subjectRepo, studentRepo, cacheSvc, validate, logr)
	portalSvc := service.NewPortalService(studentRepo, batchRepo, enrollmentRepo, unitRepo, materialRepo, accessSvc, logr)
	exportSvc := service.NewExportService(attendanceSvc, subjectSvc, logr)
	whatsappSvc := service.NewWhatsAppLogService(whatsappRepo, attendanceRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc, cfg.UserJWT)
	batchHandler := handler.NewBatchHandler(batchSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, enrollmentSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc, unitSvc)
	unitHandler := handler.NewUnitHandler(unitSvc, materialSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, exportSvc)
	portalHandler := handler.NewPortalHandler(studentAuthSvc, portalSvc, attendanceSvc, cfg.StudentJWT)
	whatsappHandler := handler.NewWhatsAppLogHandler(whatsappSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
		r.GET("/metrics/snapshot", metricsHandler.Snapshot)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.UserJWT(tokenSvc), authHandler.Logout)
		auth.GET("/me", middleware.UserJWT(tokenSvc), authHandler.Me)
	}

	admin := api.Group("", middleware.UserJWT(tokenSvc))
	{
		admin.GET("/batches", batchHandler.List)
		admin.POST("/batches", batchHandler.Create)
		admin.GET("/batches/:id", batchHandler.Get)
		admin.PUT("/batches/:id", batchHandler.Rename)
		admin.DELETE("/batches/:id", batchHandler.Delete)
		admin.GET("/batches/:id/students", batchHandler.ListStudents)
		admin.GET("/batches/:id/subjects", batchHandler.ListSubjects)
		admin.POST("/batches/:id/subjects", subjectHandler.Create)
		admin.POST("/batches/:id/move", batchHandler.MoveStudents)

		admin.GET("/students", studentHandler.List)
		admin.POST("/students", studentHandler.Register)
		admin.GET("/students/:id", studentHandler.Get)
		admin.DELETE("/students/:id", studentHandler.Delete)
		admin.PUT("/students/:id/batch", studentHandler.ChangeBatch)
		admin.GET("/students/:id/subjects", studentHandler.Subjects)
		admin.POST("/students/:id/subjects", studentHandler.Enroll)

		admin.GET("/subjects/:id", subjectHandler.Get)
		admin.PUT("/subjects/:id", subjectHandler.Rename)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)
		admin.GET("/subjects/:id/students", subjectHandler.ListStudents)
		admin.GET("/subjects/:id/units", subjectHandler.ListUnits)
		admin.POST("/subjects/:id/units", subjectHandler.CreateUnit)

		admin.GET("/units/:id", unitHandler.Get)
		admin.PUT("/units/:id", unitHandler.Rename)
		admin.DELETE("/units/:id", unitHandler.Delete)
		admin.GET("/units/:id/materials", unitHandler.ListMaterials)
		admin.POST("/units/:id/materials", unitHandler.AddMaterial)
		admin.DELETE("/materials/:id", unitHandler.DeleteMaterial)

		admin.POST("/attendance", attendanceHandler.CreateSession)
		admin.GET("/attendance/:id", attendanceHandler.Register)
		admin.POST("/attendance/:id/entries", attendanceHandler.MarkEntry)
		admin.POST("/attendance/:id/entries/bulk", attendanceHandler.BulkMark)
		admin.POST("/attendance/:id/finalize", attendanceHandler.Finalize)
		admin.GET("/attendance/:id/export", attendanceHandler.Export)
		admin.GET("/attendance/:id/notifications", whatsappHandler.ListByAttendance)

		admin.GET("/notifications/whatsapp", whatsappHandler.List)
		admin.POST("/notifications/whatsapp", whatsappHandler.Record)
	}

	portal := api.Group("/portal")
	{
		portal.POST("/login", portalHandler.Login)
		portal.POST("/refresh", portalHandler.Refresh)

		protected := portal.Group("", middleware.StudentJWT(tokenSvc))
		protected.POST("/logout", portalHandler.Logout)
		protected.GET("/me", portalHandler.Profile)
		protected.GET("/batches/:id", portalHandler.Batch)
		protected.GET("/subjects", portalHandler.Subjects)
		protected.GET("/subjects/:id/units", portalHandler.SubjectUnits)
		protected.GET("/units/:id/materials", portalHandler.UnitMaterials)
		protected.GET("/attendance", portalHandler.AttendanceHistory)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
