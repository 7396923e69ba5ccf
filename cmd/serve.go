package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/opencurtain/photodrop/internal/catalog"
	"github.com/opencurtain/photodrop/internal/handlers"
	"github.com/opencurtain/photodrop/internal/imageproc"
	"github.com/opencurtain/photodrop/internal/storage"
	"github.com/opencurtain/photodrop/internal/submission"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the photo submission server",
		Long: `Starts the Photodrop server on the specified port.

Visitors submit photos against the performance dates configured via the
PERFORMANCES environment variable (or PERFORMANCES_FILE). Accepted photos
are normalized to 480x640 JPEG and uploaded to the Dropbox folder given
by DROPBOX_FOLDER using the DROPBOX_ACCESS_TOKEN credential.`,
		Example: `  # Start server on default port 3000
  photodrop serve

  # Start server on custom port
  photodrop serve --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := os.Getenv("DROPBOX_ACCESS_TOKEN")
			if token == "" {
				return fmt.Errorf("DROPBOX_ACCESS_TOKEN is not set")
			}

			performances := catalog.Load()
			if performances.Len() == 0 {
				slog.Warn("No performances configured, photo submission will not be possible")
			}

			placer := storage.NewPlacer(storage.NewDropbox(token), os.Getenv("DROPBOX_FOLDER"))
			service := submission.NewService(performances, imageproc.New(), placer)
			handler := handlers.New(service, performances)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/performances", handler.HandlePerformances)
			mux.HandleFunc("/upload", handler.HandleUpload)
			mux.HandleFunc("/health", handler.HandleHealth)
			mux.HandleFunc("/", handler.HandleStatic)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photodrop available", "addr", addr, "url", "http://localhost"+addr, "performances", performances.Len())
				for _, p := range performances.List() {
					slog.Info("Configured performance", "id", p.ID, "display", p.Display)
				}
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	defaultPort := os.Getenv("PORT")
	if defaultPort == "" {
		defaultPort = "3000"
	}
	cmd.Flags().StringVarP(&port, "port", "p", defaultPort, "Port to listen on")

	return cmd
}
