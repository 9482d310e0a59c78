package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sprintdesk/internal/sprintdesk/handler"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/policy"
	"sprintdesk/internal/sprintdesk/router"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configPath string

	adminEmail    string
	adminName     string
	adminPassword string

	rootCmd = &cobra.Command{
		Use:           "sprintdesk",
		Short:         "Project, sprint and task tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the notification relay and the status sweeper",
		RunE:  runServe,
	}

	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Apply every due status transition once and exit",
		RunE:  runSweep,
	}

	createAdminCmd = &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE:  runCreateAdmin,
	}

	ensureIndexesCmd = &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes",
		RunE:  runEnsureIndexes,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection string")
	rootCmd.PersistentFlags().String("database", "", "MongoDB database name")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	serveCmd.Flags().String("port", "", "HTTP listen port")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin display name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, sweepCmd, createAdminCmd, ensureIndexesCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.repos.EnsureIndexes(ctx); err != nil {
		a.logger.Warn("failed to ensure indexes", "error", err)
	}

	engine, err := policy.NewEngine()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	h := handler.NewHandler(a.svc, a.sweeper, a.hub, a.tokens, a.logger)
	router.RegisterRoutes(e, h, engine, a.repos.Access, router.Options{
		LoginRate: a.cfg.Auth.LoginRate,
		Logger:    a.logger,
	})

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting server", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.cfg.Scheduler.Enabled {
		g.Go(func() error {
			return a.sweeper.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Hijacked websocket connections outlive Shutdown until the hub drops them.
		a.hub.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("server exited properly")
	return nil
}

func runSweep(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.sweeper.RunOnce(cmd.Context())
	a.logger.Info("sweep finished",
		"sprints_activated", res.SprintsActivated,
		"sprints_finished", res.SprintsFinished,
		"tasks_activated", res.TasksActivated,
		"tasks_finished", res.TasksFinished,
	)
	return err
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	user, err := a.svc.CreateAdmin(cmd.Context(), model.CreateUserReq{
		Name:     adminName,
		Email:    adminEmail,
		Password: adminPassword,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

func runEnsureIndexes(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.repos.EnsureIndexes(cmd.Context()); err != nil {
		return err
	}
	a.logger.Info("indexes ensured")
	return nil
}
