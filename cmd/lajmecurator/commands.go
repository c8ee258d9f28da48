package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"LajmeCurator/internal/app"
	"LajmeCurator/internal/config"
	"LajmeCurator/internal/logging"
)

type runtime struct {
	configPath string
	envFile    string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "lajmecurator",
		Short: "Scrape, deduplicate and serve Albanian news headlines",
		Long: `lajmecurator scrapes configured news sites, stores the headlines in
Postgres and serves curated lists with near-duplicate stories collapsed.

Example usage:
  lajmecurator migrate     # create tables and indexes
  lajmecurator serve       # run the HTTP API and the scheduled jobs
  lajmecurator scrape      # run one scrape pass and exit`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "YAML config file (overrides LAJME_CONFIG)")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	root.AddCommand(
		rt.serveCmd(),
		rt.scrapeCmd(),
		rt.cleanupCmd(),
		rt.digestCmd(),
		rt.migrateCmd(),
	)
	return root
}

func (rt *runtime) init() error {
	if rt.envFile != "" {
		if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rt.envFile, err)
		}
	}
	if rt.configPath != "" {
		if err := os.Setenv("LAJME_CONFIG", rt.configPath); err != nil {
			return err
		}
	}

	rt.cfg = config.Load()
	if err := rt.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rt.logger = logging.New(rt.cfg.Logging.Level, rt.cfg.Logging.Format)
	return nil
}

func (rt *runtime) withApp(cmd *cobra.Command, run func(*app.Application) error) error {
	application, err := app.New(cmd.Context(), rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer application.Close()
	return run(application)
}

func (rt *runtime) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(cmd, func(a *app.Application) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func (rt *runtime) scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every configured site once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(cmd, func(a *app.Application) error {
				report, err := a.Scrape(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: fetched %d, new %d, inserted %d, failed sites %v\n",
					report.RunID, report.Fetched, report.New, report.Inserted, report.Failed)
				return nil
			})
		},
	}
}

func (rt *runtime) cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired and overflowing articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(cmd, func(a *app.Application) error {
				report, err := a.Cleanup(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired, %d overflow\n",
					report.ExpiredDeleted, report.OverflowDeleted)
				return nil
			})
		},
	}
}

func (rt *runtime) digestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Publish today's digest to Telegram",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !rt.cfg.Notifications.Telegram.Enabled() {
				return errors.New("telegram is not configured")
			}
			return rt.withApp(cmd, func(a *app.Application) error {
				sent, err := a.Digest(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "digest sent with %d articles\n", sent)
				return nil
			})
		},
	}
}

func (rt *runtime) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(cmd, func(a *app.Application) error {
				if err := a.Migrate(cmd.Context()); err != nil {
					return err
				}
				rt.logger.Info("schema ready")
				return nil
			})
		},
	}
}
