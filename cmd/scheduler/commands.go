package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/vaccine-scheduler/internal/api/http"
	"github.com/spec-kit/vaccine-scheduler/internal/cli"
	"github.com/spec-kit/vaccine-scheduler/internal/config"
	"github.com/spec-kit/vaccine-scheduler/internal/observability"
	"github.com/spec-kit/vaccine-scheduler/internal/persistence"
)

type rootOptions struct {
	envFile string
	store   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Interactive vaccine appointment scheduler",
		Long: `Runs the line-oriented scheduler shell. Patients and caregivers register,
log in, publish availability, stock doses and reserve appointments.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&opts.store, "store", "", "store driver override: postgres or memory")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}
	rootCmd.AddCommand(migrateCmd)

	return rootCmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var files []string
	if opts.envFile != "" {
		files = append(files, opts.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.store != "" {
		driver := strings.ToLower(opts.store)
		if driver != config.StoreDriverPostgres && driver != config.StoreDriverMemory {
			return nil, fmt.Errorf("invalid --store %q", opts.store)
		}
		cfg.Store.Driver = driver
	}
	return cfg, nil
}

func runShell(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Ops.Enabled() {
		ops := httptransport.NewOpsApp(httptransport.OpsDependencies{
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Store:       app.store,
			Redis:       app.redis,
			Metrics:     app.metrics,
			Logger:      logger,
		})
		httptransport.StartOps(ops, cfg.Ops.Addr, logger)
		defer func() { _ = ops.Shutdown() }()
	}

	shell := cli.NewShell(cli.Dependencies{
		In:             cmd.InOrStdin(),
		Out:            cmd.OutOrStdout(),
		Auth:           app.auth,
		Schedule:       app.schedule,
		Reservations:   app.reservations,
		Metrics:        app.metrics,
		Logger:         logger,
		CommandTimeout: cfg.App.CommandTimeout(),
	})

	done := make(chan error, 1)
	go func() { done <- shell.Run(ctx) }()

	return awaitShell(ctx, done, shellDrainTimeout, logger)
}

// shellDrainTimeout bounds how long shutdown waits for an in-flight command.
const shellDrainTimeout = 5 * time.Second

// awaitShell returns once the shell exits. After a signal it still waits for
// the running command to finish, up to grace, so deferred cleanup never
// closes the store underneath it. A shell blocked reading input is abandoned.
func awaitShell(ctx context.Context, done <-chan error, grace time.Duration, logger *zap.Logger) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Error(ctx.Err()))
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logger.Warn("shell did not stop before shutdown", zap.Duration("grace", grace))
	}
	return nil
}

func runMigrate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
	return nil
}
