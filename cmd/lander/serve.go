package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	landerhttp "github.com/3-lines-studio/lander/internal/adapters/http"
	"github.com/3-lines-studio/lander/internal/adapters/metrics"
	"github.com/3-lines-studio/lander/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the export HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				address = a.cfg.Server.Address
			}

			w, err := wire(a.cfg, a.logger)
			if err != nil {
				a.output.PrintError("%v", err)
				return err
			}
			defer w.Close()

			prom := metrics.New(nil)
			w.deps.Metrics = prom
			service := usecase.NewExportService(exportConfig(a.cfg), w.deps)

			handler := landerhttp.NewExportHandler(service, 0, a.logger)
			server := &http.Server{
				Addr:         address,
				Handler:      landerhttp.NewRouter(handler, prom.Handler(), a.logger),
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("export service listening", zap.String("address", address))
				errCh <- server.ListenAndServe()
			}()
			a.output.PrintHeader("Lander Export Service")
			a.output.PrintSuccess("Listening on %s", address)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				a.logger.Error("server failed", zap.Error(err))
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.logger.Info("shutting down")
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			a.output.PrintDone("Stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (default from server.address)")
	return cmd
}
