package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"intervals/backend/internal/config"
	"intervals/backend/internal/db"
	"intervals/backend/internal/handler"
	"intervals/backend/internal/logging"
	"intervals/backend/internal/notify"
	"intervals/backend/internal/repository"
	"intervals/backend/internal/router"
	"intervals/backend/internal/service"
	"intervals/backend/internal/timer"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(database)
	presetRepo := repository.NewPresetRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	presetService := service.NewPresetService(presetRepo)
	historyService := service.NewHistoryService(sessionRepo)
	timerService := service.NewTimerService(
		presetRepo,
		service.NewSessionRecorder(sessionRepo),
		notify.Log{Logger: logger},
		service.TimerOptions{Interval: cfg.TickInterval, Scheduler: timer.TickerScheduler{}},
	)
	defer timerService.Close()

	engine := router.New(authService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Presets: handler.NewPresetHandler(presetService),
		History: handler.NewSessionHandler(historyService),
		Timer:   handler.NewTimerHandler(timerService),
	}, cfg.CORSOrigins, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("backend listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("run server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Runs are closed first so event streams end and Shutdown does not wait
	// on them.
	timerService.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped")
}
