// @title			teamtodo API
// @version		1.0
// @description	Team task tracker with role-based access to tasks.
// @BasePath		/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/teamtodo/internal/auth"
	"github.com/mtlprog/teamtodo/internal/config"
	"github.com/mtlprog/teamtodo/internal/database"
	"github.com/mtlprog/teamtodo/internal/handler"
	"github.com/mtlprog/teamtodo/internal/logger"
	"github.com/mtlprog/teamtodo/internal/metrics"
)

func main() {
	app := &cli.App{
		Name:  "teamtodo",
		Usage: "Team task tracker with role-based access control",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "Secret used to sign and verify bearer tokens",
				EnvVars: []string{"JWT_SECRET"},
			},
			&cli.DurationFlag{
				Name:    "token-ttl",
				Value:   config.DefaultTokenTTL,
				Usage:   "Lifetime of issued bearer tokens",
				EnvVars: []string{"TOKEN_TTL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: runMigrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the most recent migration",
						Action: runMigrateDown,
					},
				},
			},
			usersCommand(),
			seedCommand(),
			tokenCommand(),
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newTokens(c *cli.Context) (*auth.Tokens, error) {
	tokens, err := auth.NewTokens(c.String("jwt-secret"), c.Duration("token-ttl"))
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}
	return tokens, nil
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	tokens, err := newTokens(c)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, c.String("database-url"))
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool(), tokens, metrics.NewDecisions())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           h.Router(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runMigrateUp(c *cli.Context) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return database.RunMigrations(ctx, db.Pool())
}

func runMigrateDown(c *cli.Context) error {
	ctx := c.Context

	db, err := database.New(ctx, c.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return database.RollbackMigration(ctx, db.Pool())
}
