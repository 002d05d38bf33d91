package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/catprofile/internal/chart"
	"github.com/KaramelBytes/catprofile/internal/prepare"
	"github.com/KaramelBytes/catprofile/internal/profile"
	"github.com/KaramelBytes/catprofile/internal/server"
)

var (
	serveAddr      string
	serveReportDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profiling API: POST a CSV to /api/profile, fetch reports from /reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		if serveAddr != "" {
			c.ServeAddr = serveAddr
		}
		if serveReportDir != "" {
			c.ReportDir = serveReportDir
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m, err := newMetrics(ctx, &c)
		if err != nil {
			return err
		}
		defer m.Close()

		p := &profile.Pipeline{
			Preparer: prepare.NewAuto(),
			Charts:   chart.Renderer{},
			Metrics:  m,
		}
		srv := &http.Server{
			Addr:         c.ServeAddr,
			Handler:      server.NewApp(p, &c).Handler(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (reports in %s)\n", c.ServeAddr, c.ReportDir)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveReportDir, "report-dir", "", "directory for written reports (default from config)")
}
