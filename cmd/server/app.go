package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/config"
	"sprintdesk/internal/sprintdesk/notify"
	"sprintdesk/internal/sprintdesk/repository"
	"sprintdesk/internal/sprintdesk/scheduler"
	"sprintdesk/internal/sprintdesk/service"
	"sprintdesk/internal/sprintdesk/util"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// app holds every long-lived component built from one config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *mongo.Client
	repos   *repository.Repositories
	hub     *notify.Hub
	tokens  *auth.TokenManager
	svc     *service.Service
	sweeper *scheduler.Sweeper
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	util.InitLogger(&cfg.Log)
	logger := util.GetLogger()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repos := repository.NewRepositories(client.Database(cfg.Mongo.Database))

	renderer, err := notify.NewRenderer(cfg.Notify.Language)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	hub := notify.NewHub(cfg.Notify.Buffer, logger)
	dispatcher := notify.NewDispatcher(repos.Notifications, hub, renderer, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	svc := service.NewService(service.StoresFrom(repos), dispatcher, tokens, logger)
	sweeper := scheduler.NewSweeper(repos.Sprints, repos.Tasks, repos.Memberships, dispatcher, cfg.Scheduler.Interval, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		repos:   repos,
		hub:     hub,
		tokens:  tokens,
		svc:     svc,
		sweeper: sweeper,
	}, nil
}

func (a *app) close() {
	a.hub.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		a.logger.Error("failed to disconnect mongo", "error", err)
	}
}
