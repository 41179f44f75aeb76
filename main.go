package main

import (
	"fmt"
	"os"

	"speed-api/config"
	"speed-api/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	envFile  string
	logLevel string

	appConfig *config.AppConfig
	log       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "speed-api",
	Short: "SPEED evidence repository API",
	Long: `speed-api serves the SPEED evidence repository: article submission,
moderation, analysis, ratings and public search over software engineering
practice claims.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, envLoaded := config.Load(envFile)
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		l, err := logger.New(cfg.Environment, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if !envLoaded {
			l.Info("No .env file found, using process environment")
		}

		appConfig = cfg
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
