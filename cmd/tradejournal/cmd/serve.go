package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/tradejournal/api"
	"github.com/rustyeddy/tradejournal/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journal HTTP API",
	Long: `Serve trades, statistics, dashboard layouts and share exports over HTTP.

Examples:
  tradejournal serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	var exporter api.Exporter
	b, done, err := newShareBuilder(ctx, j)
	if err != nil {
		logger.Warn(ctx, "sharing disabled", "error", err)
	} else {
		defer done()
		exporter = b
	}

	gin.SetMode(gin.ReleaseMode)
	h := api.NewHandler(j, j, exporter,
		api.WithEdgeConfig(cfg.Metrics.Edge),
		api.WithMetricsOptions(cfg.MetricsOptions()...),
		api.WithLocation(location()),
	)

	addr := cfg.API.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return serveHTTP(ctx, srv)
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(gctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(shutdownCtx, "shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
