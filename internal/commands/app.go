package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"intervals/backend/internal/db"
	"intervals/backend/internal/repository"
	"intervals/backend/internal/service"
	"intervals/backend/migrations"
)

// The CLI never hands tokens out; login only needs a valid signer.
const (
	cliTokenSecret = "intervals-cli"
	cliTokenTTL    = time.Hour
)

// app holds the services a command needs against the local database.
type app struct {
	database    *sql.DB
	presetRepo  *repository.PresetRepository
	sessionRepo *repository.SessionRepository
	auth        *service.AuthService
	presets     *service.PresetService
	history     *service.HistoryService
}

func openApp(opts *options) (*app, error) {
	database, err := db.OpenSQLite(opts.dbPath)
	if err != nil {
		return nil, err
	}

	if opts.migrationsDir != "" {
		err = db.RunMigrations(database, opts.migrationsDir)
	} else {
		err = db.RunMigrationsFS(database, migrations.FS)
	}
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(database)
	presetRepo := repository.NewPresetRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	return &app{
		database:    database,
		presetRepo:  presetRepo,
		sessionRepo: sessionRepo,
		auth:        service.NewAuthService(userRepo, cliTokenSecret, cliTokenTTL, 0),
		presets:     service.NewPresetService(presetRepo),
		history:     service.NewHistoryService(sessionRepo),
	}, nil
}

func (a *app) Close() error {
	return a.database.Close()
}

// login resolves --email and --password to a user id.
func (a *app) login(ctx context.Context, opts *options) (string, error) {
	if opts.email == "" || opts.password == "" {
		return "", errors.New("--email and --password are required (or INTERVALS_EMAIL and INTERVALS_PASSWORD)")
	}
	result, apiErr := a.auth.Login(ctx, opts.email, opts.password)
	if apiErr != nil {
		return "", fmt.Errorf("login: %s", apiErr.Message)
	}
	return result.User.ID, nil
}

// withApp opens the database, runs fn and closes it again.
func withApp(opts *options, fn func(a *app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
