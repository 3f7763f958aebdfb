package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/nodeflow/nodeflow/internal/api"
	"github.com/nodeflow/nodeflow/internal/config"
	"github.com/nodeflow/nodeflow/internal/eval"
	"github.com/nodeflow/nodeflow/internal/services/completion"
	"github.com/nodeflow/nodeflow/internal/store"
	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/nodeflow/nodeflow/internal/validator"
	"github.com/nodeflow/nodeflow/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow API server",
	Long:  `Serve the workflow and evaluation HTTP API, backed by PostgreSQL when configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := validator.ValidateEnvVars(); err != nil {
			return fmt.Errorf("environment validation failed: %w", err)
		}

		cfg, err := config.LoadServerConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		repo, cleanup, err := initRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer cleanup()

		svc, err := completion.NewService()
		if err != nil {
			return fmt.Errorf("failed to initialize completion service: %w", err)
		}

		runner, err := workflow.NewRunner(svc)
		if err != nil {
			return fmt.Errorf("failed to initialize runner: %w", err)
		}

		launcher := eval.NewLauncher(runner)
		launcher.SetConcurrency(cfg.Eval.Concurrency)

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())

		api.NewServer(repo, launcher, cfg.Eval.TasksDir).Register(e)

		go func() {
			utils.LogInfo("Listening on %s", cfg.Addr())
			if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.LogError("Server stopped unexpectedly: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit
		utils.LogInfo("Shutdown signal received: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		utils.LogSuccess("Server stopped gracefully")
		return nil
	},
}

// initRepository connects to PostgreSQL when the configuration names a
// database, and falls back to in-memory storage otherwise.
func initRepository(ctx context.Context, cfg *config.ServerConfig) (store.Repository, func(), error) {
	if !cfg.DatabaseConfigured() {
		utils.LogWarning("No database configured, using in-memory storage")
		return store.NewMemoryRepository(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := store.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to prepare database schema: %w", err)
	}

	utils.LogInfo("Database connected")
	return repo, pool.Close, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
