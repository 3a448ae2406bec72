package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/leave-calendar-api/api/swagger"
	"github.com/noah-isme/leave-calendar-api/internal/handler"
	"github.com/noah-isme/leave-calendar-api/internal/middleware"
	"github.com/noah-isme/leave-calendar-api/internal/models"
	"github.com/noah-isme/leave-calendar-api/internal/repository"
	"github.com/noah-isme/leave-calendar-api/internal/service"
	"github.com/noah-isme/leave-calendar-api/pkg/cache"
	"github.com/noah-isme/leave-calendar-api/pkg/config"
	"github.com/noah-isme/leave-calendar-api/pkg/database"
	"github.com/noah-isme/leave-calendar-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/leave-calendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/leave-calendar-api/pkg/middleware/requestid"
	"github.com/noah-isme/leave-calendar-api/pkg/storage"
)

// @title Leave Calendar API
// @version 1.0.0
// @description Employee day assignments, leave reports and exports
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("postgres connection failed", zap.Error(err))
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logr.Fatal("schema setup failed", zap.Error(err))
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	employeeRepo := repository.NewEmployeeRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(rdb, logr)
	notifier := repository.NewChangeNotifier(rdb, logr)

	reportCache := service.NewCacheService(cacheRepo, metrics, "reports", cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)
	changes := service.NewChangeBroadcaster(reportCache, notifier, logr)
	changes.Start(ctx)
	defer changes.Stop()

	assignments := service.NewAssignmentService(calendarRepo, employeeRepo, changes, metrics, validate, logr)
	employees := service.NewEmployeeService(employeeRepo, changes, validate, logr)
	reports := service.NewReportService(calendarRepo, reportCache, metrics, service.ReportConfig{
		Location:     cfg.Reports.Location(),
		CacheTTL:     cfg.Reports.CacheTTL,
		MaxRangeDays: cfg.Reports.MaxRangeDays,
	}, validate, logr)
	auth := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("export storage unavailable", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exports := service.NewExportService(reports, employeeRepo, calendarRepo, files, signer, metrics, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)
	go exports.RunCleanup(ctx, cfg.Exports.CleanupInterval)

	occupancy := service.NewSnapshotFeed[[]models.OccupancySummary](repository.CollectionCalendar, notifier, func(ctx context.Context) ([]models.OccupancySummary, error) {
		days, err := calendarRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return service.OccupancyOf(days), nil
	}, metrics, logr)

	if cfg.Auth.DevBypass {
		logr.Warn("authentication bypass enabled", zap.String("user_id", service.DevUserID))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Calendar:  handler.NewCalendarHandler(assignments, occupancy, logr),
		Employees: handler.NewEmployeeHandler(employees, exports),
		Reports:   handler.NewReportHandler(reports, exports),
		Exports:   handler.NewExportHandler(exports),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		}),
	}, handler.RouteDeps{
		Tokens:    auth,
		DevBypass: cfg.Auth.DevBypass,
		Audit:     userRepo,
		Logger:    logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// no write timeout: calendar streams stay open
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
}
