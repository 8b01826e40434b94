package main

import (
	"context"
	"database/sql"
	"fmt"

	"fitbook/internal/config"
	"fitbook/internal/credentials"
	"fitbook/internal/logging"
	"fitbook/internal/mobileapi"
	"fitbook/internal/reviews"
	"fitbook/internal/votestate"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	creds  credentials.Store
	votes  *votestate.Store
	engine *reviews.Engine
	db     *sql.DB
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	creds, err := a.openCredentials(ctx)
	if err != nil {
		return nil, err
	}
	a.creds = creds

	a.votes = votestate.New()
	if cfg.VoteStateFile != "" {
		if err := a.votes.LoadFile(cfg.VoteStateFile); err != nil {
			logger.Error(err, "vote state unreadable, starting empty")
		}
	}

	client := mobileapi.NewClient(mobileapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout,
	}, creds, logger.Component("mobileapi"))

	a.engine = reviews.New(client, a.votes, logger)
	return a, nil
}

func (a *app) openCredentials(ctx context.Context) (credentials.Store, error) {
	switch a.cfg.Credentials.Store {
	case config.CredentialStoreSQL:
		db, err := openDatabase(ctx, a.cfg.Credentials.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := credentials.NewSQLStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		return store, nil
	case config.CredentialStoreMemory:
		return credentials.NewMemoryStore(), nil
	default:
		return credentials.NewFileStore(a.cfg.Credentials.File), nil
	}
}

// Close persists the vote state and releases the database handle.
func (a *app) Close() error {
	var firstErr error
	if a.cfg.VoteStateFile != "" {
		if err := a.votes.SaveFile(a.cfg.VoteStateFile); err != nil {
			firstErr = err
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close database: %w", err)
		}
	}
	return firstErr
}
