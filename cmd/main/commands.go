package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"catalogmirror/scraper/internal/config"
	"catalogmirror/scraper/internal/container"
	"catalogmirror/scraper/internal/repository"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Mirrors a storefront catalog into a local snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newSyncCmd(), newServeCmd(), newShowCmd())
	return cmd
}

// loadConfig reads .env, the config file and the environment, then configures logrus.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("⚠️ Failed to load .env: %v", err)
	}

	cfg, err := config.LoadFrom(viper.New(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging(cfg.Log)
	log.Info("Configuration loaded successfully")
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("⚠️ Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one catalog sync and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			app, err := container.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			if !app.SyncOnce(ctx) {
				return errors.New("sync failed")
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API and sync on a schedule",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			app, err := container.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer app.Close()

			if err := app.Run(ctx); err != nil {
				return fmt.Errorf("application exited with error: %w", err)
			}
			log.Info("Application finished successfully")
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stats of the stored snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			snapshot := repository.NewFileSnapshotStore(filepath.Join(cfg.Storage.DataDir, cfg.Storage.SnapshotFile)).Load()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"last_sync": snapshot.LastSync,
				"stats":     snapshot.Stats,
			})
		},
	}
}
