package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appapp "github.com/llmstack/backend/internal/application/app"
	connectionapp "github.com/llmstack/backend/internal/application/connection"
	"github.com/llmstack/backend/internal/infrastructure/auth"
	"github.com/llmstack/backend/internal/infrastructure/browser"
	"github.com/llmstack/backend/internal/infrastructure/cache"
	"github.com/llmstack/backend/internal/infrastructure/config"
	"github.com/llmstack/backend/internal/infrastructure/crypto"
	"github.com/llmstack/backend/internal/infrastructure/logger"
	"github.com/llmstack/backend/internal/infrastructure/persistence"
	"github.com/llmstack/backend/internal/infrastructure/scheduler"
	"github.com/llmstack/backend/internal/infrastructure/telemetry"
	"github.com/llmstack/backend/internal/infrastructure/weblogin"
	"github.com/llmstack/backend/internal/interfaces/http/handler"
	"github.com/llmstack/backend/internal/interfaces/http/middleware"
	"github.com/llmstack/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting LLMStack backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Warn("Metrics shutdown failed", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Warn("Log export shutdown failed", zap.Error(err))
		}
	}()
	log = lp.Bridge(log, zapcore.InfoLevel)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if cfg.Database.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		DBSystem:         dbSystem,
		IncludeVariables: cfg.App.Env == "development",
	}, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	cipher, err := crypto.New(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("Invalid encryption key", zap.Error(err))
	}
	if cfg.Security.EncryptionKey == "" {
		log.Warn("Connection configuration is stored unencrypted; set security.encryption_key")
	}

	appRepo := persistence.NewGormAppRepository(db.DB)
	connRepo := persistence.NewGormConnectionRepository(db.DB, cipher)

	lock, err := cache.NewActivationLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateLock()
	if err != nil {
		log.Fatal("Failed to create activation lock", zap.Error(err))
	}
	if closer, ok := lock.(io.Closer); ok {
		defer closer.Close()
	}

	launcher := browser.NewChromedpLauncher(browser.Config{
		RemoteURL: cfg.Browser.RemoteURL,
		Headless:  cfg.Browser.Headless,
		NoSandbox: cfg.Browser.NoSandbox,
	}, log)
	registry := connectionapp.NewRegistry(
		weblogin.NewLinkedInLogin(launcher,
			weblogin.WithLogger(log),
			weblogin.WithTimeout(cfg.Browser.LoginTimeout),
			weblogin.WithPollInterval(cfg.Browser.PollInterval),
		),
	)

	connService := connectionapp.NewConnectionService(connRepo, registry, lock, cfg.Browser.LockTTL, log)
	activationMetrics, err := telemetry.NewActivationMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create activation metrics", zap.Error(err))
	}
	connService.SetMetrics(activationMetrics)
	appService := appapp.NewAppService(appRepo, appapp.TitleConfig{
		Default: cfg.Frontend.DefaultTitle,
		Suffix:  cfg.Frontend.TitleSuffix,
	}, log)
	jwtService := auth.NewJWTService(cfg.JWT)

	sched := scheduler.New(scheduler.DefaultConfig(), log)
	if cfg.Scheduler.Enabled {
		if err := sched.Add(scheduler.NewStaleActivationTask(connService, cfg.Scheduler.StaleAfter), cfg.Scheduler.ReapInterval); err != nil {
			log.Fatal("Failed to schedule stale activation reaper", zap.Error(err))
		}
		if err := sched.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		// First sweep at startup rather than one interval later.
		_ = sched.Trigger(scheduler.StaleActivationReaper)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName, tp.IsEnabled()),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log, "/health", "/static/"),
		middleware.CORSWithConfig(corsCfg),
		middleware.SecureWithConfig(middleware.DefaultSecurityConfig()),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	router.Mount(engine, router.Handlers{
		Connection: handler.NewConnectionHandler(connService),
		App:        handler.NewAppHandler(appService),
		Health:     handler.NewHealthHandler(db, version),
		Shell: handler.NewShellHandler(appService, handler.ShellConfig{
			AppDir: cfg.Frontend.AppDir,
			Reload: cfg.Frontend.ReloadTemplate,
		}),
		Auth: middleware.JWTAuth(jwtService, log),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Activations can hold a browser for the full login timeout.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Browser.LoginTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := sched.Stop(ctx); err != nil {
		log.Warn("Scheduler did not stop in time", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
