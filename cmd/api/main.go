package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/alrafidain/college-records-api/api/swagger"
	"github.com/alrafidain/college-records-api/internal/handler"
	"github.com/alrafidain/college-records-api/internal/middleware"
	"github.com/alrafidain/college-records-api/internal/repository"
	"github.com/alrafidain/college-records-api/internal/service"
	"github.com/alrafidain/college-records-api/pkg/cache"
	"github.com/alrafidain/college-records-api/pkg/config"
	"github.com/alrafidain/college-records-api/pkg/database"
	"github.com/alrafidain/college-records-api/pkg/logger"
	corsmiddleware "github.com/alrafidain/college-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/alrafidain/college-records-api/pkg/middleware/requestid"
	"github.com/alrafidain/college-records-api/pkg/storage"
)

// @title College Records API
// @version 1.0.0
// @description Academic records management for stages, students, lecturers, grades and schedules
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init uploads storage", "error", err)
	}

	validate := validator.New()

	principalRepo := repository.NewPrincipalRepository(db)
	stageRepo := repository.NewStageRepository(db)
	studyTypeRepo := repository.NewStudyTypeRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lecturerRepo := repository.NewLecturerRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activitySvc := service.NewActivityService(activityRepo, logr)
	authSvc := service.NewAuthService(principalRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, store, activitySvc, validate, logr)
	stageSvc := service.NewStageService(stageRepo, studyTypeRepo, groupRepo, studentRepo, courseRepo, studentSvc, activitySvc, validate, logr)
	studyTypeSvc := service.NewStudyTypeService(studyTypeRepo, studentRepo, studentSvc, activitySvc, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, studentSvc, activitySvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, stageRepo, activitySvc, validate, logr)
	lecturerSvc := service.NewLecturerService(lecturerRepo, store, activitySvc, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, courseRepo, studentRepo, activitySvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, activitySvc, validate, logr)
	importSvc := service.NewImportService(studentRepo, groupRepo, activitySvc, logr)
	exportSvc := service.NewExportService(studentRepo, courseRepo, logr)
	profileSvc := service.NewProfileService(principalRepo, store, activitySvc, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, lecturerRepo, stageRepo, courseRepo, groupRepo, studyTypeRepo, redisClient, cfg.Dashboard.CacheTTL, logr)
	metricsSvc := service.NewMetricsService()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.MaxMultipartMemory = cfg.Uploads.MaxImageSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", cfg.Uploads.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Stages:     handler.NewStageHandler(stageSvc),
		StudyTypes: handler.NewStudyTypeHandler(studyTypeSvc),
		Groups:     handler.NewGroupHandler(groupSvc),
		Courses:    handler.NewCourseHandler(courseSvc, exportSvc, metricsSvc),
		Students:   handler.NewStudentHandler(studentSvc, importSvc, exportSvc, metricsSvc),
		Lecturers:  handler.NewLecturerHandler(lecturerSvc),
		Grades:     handler.NewGradeHandler(gradeSvc),
		Schedules:  handler.NewScheduleHandler(scheduleSvc),
		Activity:   handler.NewActivityHandler(activitySvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Profile:    handler.NewProfileHandler(profileSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
