package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"speed-api/config"
	"speed-api/metrics"
	"speed-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	autoMigrate     bool
	shutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := config.InitDB(appConfig.Database, log)
		if err != nil {
			return err
		}
		if autoMigrate {
			if err := config.Migrate(db); err != nil {
				return err
			}
		}

		if appConfig.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}

		router := routes.NewRouter(routes.Dependencies{
			DB:      db,
			Config:  appConfig,
			Logger:  log,
			Metrics: metrics.NewCollector(),
		})

		srv := &http.Server{
			Addr:              ":" + appConfig.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("Server starting", zap.String("port", appConfig.Port), zap.String("env", appConfig.Environment))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply schema migrations before serving")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "grace period for in-flight requests")
}
