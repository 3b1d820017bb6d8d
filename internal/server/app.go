// Package server initializes and runs the token service: it wires the
// client store, the secret provider, the token issuer and the authorizer,
// and starts the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/authorizer"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/clients"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/secrets"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/tokens"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, fmt.Errorf("refresh token TTL (%s) must exceed access token TTL (%s)", cfg.RefreshTokenTTL, cfg.AccessTokenTTL)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	clientService := clients.NewService(rm.Clients(db), logger)

	secretProvider, err := secrets.NewS3Provider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("secret provider init error: %w", err)
	}

	tokenService := tokens.NewService(clientService, secretProvider,
		cfg.Issuer, cfg.Audience, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.AllowedClockSkew, logger)

	validator := authorizer.NewValidator(secretProvider, clientService,
		cfg.Issuer, cfg.Audience, cfg.AllowedClockSkew, logger)
	authz := authorizer.New(validator)

	server := httpapi.NewServer(cfg.EndpointAddr, logger, tokenService, clientService, authz)

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"issuer", app.config.Issuer,
		"audience", app.config.Audience,
		"access_token_ttl", app.config.AccessTokenTTL.String(),
		"refresh_token_ttl", app.config.RefreshTokenTTL.String(),
		"decision_cache_ttl", app.config.DecisionCacheTTL.String())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
