package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/prebid-integrity/internal/integrity"
	"github.com/iwvelando/prebid-integrity/internal/server"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		address      string
		serverConfig string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the integrity API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var (
				cfg *server.Config
				err error
			)
			if serverConfig != "" {
				cfg, err = server.LoadConfig(serverConfig)
			} else {
				cfg, err = server.NewConfig(conf.Server, conf.Logging)
			}
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Address = address
			}

			th, err := conf.Thresholds()
			if err != nil {
				return err
			}
			pipeline, err := integrity.New(logger, th)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Address,
				Handler:           server.NewHandler(logger, pipeline, cfg.UploadSizeBytes(), version),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, logger, srv)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	cmd.Flags().StringVar(&serverConfig, "server-config", "", "standalone server configuration file")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, logger *zap.Logger, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("op", "main.serve"), zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server failed")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
