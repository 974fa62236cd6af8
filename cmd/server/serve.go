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
	"golang.org/x/sync/errgroup"

	"salarydash/internal/api"
	"salarydash/internal/engine"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.ListenAddr
	if flagListen != "" {
		addr = flagListen
	}
	logger := cfg.NewLogger("salarydash")

	// The API is live immediately but answers 503 until the dataset is set.
	h := api.NewHandler(nil, cfg.RenderOptions())
	e := api.NewServer(h, api.ServerOptions{
		RateLimitRPS: cfg.RateLimitRPS,
		Logger:       logger,
		AccessLog:    cfg.AccessLog,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Load in the background; a failure stays visible on /healthz.
	g.Go(func() error {
		t0 := time.Now()
		ds, err := engine.NewLoader(cfg.HTTPTimeout(), logger).Load(gctx, cfg.SourceURL)
		if err != nil {
			logger.Errorf("dataset unavailable: %v", err)
			h.SetLoadError(err)
			return nil
		}
		h.SetData(ds)
		logger.Infof("dataset ready in %v, API fully available", time.Since(t0))
		return nil
	})

	g.Go(func() error {
		logger.Infof("server listening on %s (data loading in background)", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
