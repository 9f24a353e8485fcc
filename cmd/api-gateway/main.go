package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-portal-api/api/swagger"
	"github.com/noah-isme/campus-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/internal/router"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	"github.com/noah-isme/campus-portal-api/pkg/config"
	"github.com/noah-isme/campus-portal-api/pkg/database"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-portal-api/pkg/middleware/requestid"
)

// @title Campus Portal API
// @version 1.0.0
// @description University admin portal: timetables, classroom bookings and resource requests.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	var cachePing handler.PingFunc
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis, 5*time.Second)
		if err != nil {
			logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			repo := repository.NewCacheRepository(client, logr)
			cacheRepo = repo
			cachePing = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	bookingRepo := repository.NewClassroomBookingRepository(db)
	requestRepo := repository.NewBookingRequestRepository(db)
	resourceRequestRepo := repository.NewResourceRequestRepository(db)

	workflow := service.WorkflowConfig{
		AutoApprove:          cfg.Booking.AutoApprove,
		AutoApprovedMarker:   cfg.Booking.AutoApprovedMarker,
		SessionTimetableName: cfg.Booking.SessionTimetableName,
	}

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	timetableSvc := service.NewTimetableService(service.TimetableDeps{
		Timetables:  timetableRepo,
		Departments: deptRepo,
		Subjects:    subjectRepo,
		Faculty:     facultyRepo,
		Classrooms:  classroomRepo,
		TimeSlots:   slotRepo,
		Bookings:    requestRepo,
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
	}, validate, logr)
	bookingRequestSvc := service.NewBookingRequestService(service.BookingRequestDeps{
		Requests:   requestRepo,
		Classrooms: classroomRepo,
		TimeSlots:  slotRepo,
		Schedule:   timetableRepo,
		Subjects:   subjectRepo,
		Users:      userRepo,
		Timetables: timetableSvc,
		Audit:      auditRepo,
		Metrics:    metricsSvc,
	}, workflow, validate, logr)

	handlers := router.Handlers{
		Auth:              handler.NewAuthHandler(authSvc),
		Departments:       handler.NewDepartmentHandler(service.NewDepartmentService(deptRepo, validate, logr)),
		Faculty:           handler.NewFacultyHandler(service.NewFacultyService(facultyRepo, deptRepo, validate, logr)),
		Classrooms:        handler.NewClassroomHandler(service.NewClassroomService(classroomRepo, validate, logr)),
		Resources:         handler.NewResourceHandler(service.NewResourceService(resourceRepo, validate, logr)),
		Subjects:          handler.NewSubjectHandler(service.NewSubjectService(subjectRepo, deptRepo, validate, logr)),
		TimeSlots:         handler.NewTimeSlotHandler(service.NewTimeSlotService(slotRepo, validate)),
		Timetables:        handler.NewTimetableHandler(timetableSvc, service.NewTimetableExportService(timetableSvc, logr)),
		ClassroomBookings: handler.NewClassroomBookingHandler(service.NewClassroomBookingService(bookingRepo, classroomRepo, timetableRepo, requestRepo, auditRepo, metricsSvc, validate, logr)),
		BookingRequests:   handler.NewBookingRequestHandler(bookingRequestSvc),
		ResourceRequests:  handler.NewResourceRequestHandler(service.NewResourceRequestService(resourceRequestRepo, resourceRepo, auditRepo, metricsSvc, workflow, validate, logr)),
		Metrics:           handler.NewMetricsHandler(metricsSvc, db.PingContext, cachePing),
	}

	r := gin.New()
	r.Use(internalmiddleware.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(internalmiddleware.WithResponseMeta())

	router.Register(r, handlers, router.Options{
		Prefix:    cfg.APIPrefix,
		Validator: authSvc,
		Audit:     auditRepo,
		Logger:    logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
