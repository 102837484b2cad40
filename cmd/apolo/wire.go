package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/app"
	"github.com/tgienger/apolo/internal/auth"
	"github.com/tgienger/apolo/internal/config"
	"github.com/tgienger/apolo/internal/db"
	"github.com/tgienger/apolo/internal/logger"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
	"github.com/tgienger/apolo/internal/ui/styles"
)

// env holds the wired components shared by every command
type env struct {
	cfg     *config.Config
	db      *db.DB
	gateway *auth.Gateway
	store   *app.Store
	logFile *os.File
}

func setup(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// The terminal belongs to the UI, so logs always go to a file
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.Init(cfg.Log.Level, logFile)
	styles.SetTheme(cfg.UI.Theme)

	database, err := db.Open(cfg.Data.Path, realtime.New(0))
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	provider, err := auth.NewProvider(cfg.Auth.Provider)
	if err != nil {
		database.Close()
		logFile.Close()
		return nil, err
	}
	sessions, err := auth.NewSessionStore(cfg.Auth.SessionFile, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	if err != nil {
		database.Close()
		logFile.Close()
		return nil, fmt.Errorf("session store: %w", err)
	}
	gateway := auth.NewGateway(provider, sessions, database, cfg.Auth.InitTimeout())

	model, err := ai.New(ctx, cfg.AI)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Info().Str("provider", cfg.AI.Provider).Msg("ai provider not configured")
		model = nil
	case err != nil:
		logger.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("ai provider unavailable")
		model = nil
	}

	store := app.NewStore(database, app.Options{
		RefetchOnSuccess: cfg.Sync.RefetchOnSuccess,
		Suggester:        ai.NewSuggester(model, cfg.AI.Timeout()),
		Settings:         database,
	})

	// Sign-in changes switch the store's user and reload its data
	gateway.OnChange(func(u *models.User) {
		if err := store.SetUser(ctx, u); err != nil {
			logger.Warn().Err(err).Msg("load user data")
		}
	})

	return &env{
		cfg:     cfg,
		db:      database,
		gateway: gateway,
		store:   store,
		logFile: logFile,
	}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		logger.Warn().Err(err).Msg("close database")
	}
	e.logFile.Close()
}
