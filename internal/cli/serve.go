package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	transport "docquiz-service/internal/transport/http"
)

// NewServeCmd builds the subcommand that runs the HTTP and websocket API.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the quiz service API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	svc, err := buildServices(ctx, configPath)
	if err != nil {
		return err
	}
	defer svc.close()

	if svc.cfg.Remote.BaseURL == "" && svc.cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, svc.cfg, svc.log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = svc.cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	server := transport.NewServer(svc.ingest, svc.generate, svc.quizzes, svc.blobs, svc.cfg.Server.DefaultOwner, svc.log)

	httpServer := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		// Generation requests block on the model provider; the write window
		// must outlast a slow completion.
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		svc.log.WithField("port", finalPort).Info("Starting quiz service")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			svc.log.WithError(err).Error("Server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		svc.log.Info("Shutting down server")
	case <-ctx.Done():
		svc.log.Info("Context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
