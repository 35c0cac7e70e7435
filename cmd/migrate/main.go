package main

import (
	"log/slog"
	"os"

	"intervals/backend/internal/config"
	"intervals/backend/internal/db"
	"intervals/backend/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)

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

	slog.Info("migrations applied successfully", "db", cfg.DBPath)
}
