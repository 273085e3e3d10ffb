package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/cvsplit/internal/api"
	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/pipeline"
	"github.com/dgallion1/cvsplit/internal/route"
	"github.com/dgallion1/cvsplit/internal/sections"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	table := sections.Default()
	if cfg.HeadingTable != "" {
		t, err := sections.LoadFile(cfg.HeadingTable)
		if err != nil {
			log.Error("load heading table", "path", cfg.HeadingTable, "error", err)
			os.Exit(1)
		}
		table = t
	}

	st, err := store.Open(cfg)
	if err != nil {
		log.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seg := segmenter.New(table, segmenter.WithCache(segmenter.NewCache()))

	var stats *route.LatencyStats
	if cfg.AnthropicAPIKey != "" {
		stats = route.NewLatencyStats(time.Hour)
	}
	questions := route.New(table, cfg.AnthropicAPIKey, cfg.AnthropicModel, stats, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, seg, st, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, questions, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting cvsplit",
		"port", cfg.Port,
		"store", cfg.StoreBackend,
		"labels", table.Len(),
		"llm_routing", cfg.AnthropicAPIKey != "",
	)
	err = serve(sigCtx, httpServer, ln, log, func() {
		orch.Stop()
		route.Close(questions)
		if err := st.Close(); err != nil {
			log.Warn("close store", "error", err)
		}
	})
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// serve runs srv on ln until ctx is done, then shuts it down and runs
// cleanup. It returns only after cleanup has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *slog.Logger, cleanup func()) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		cleanup()
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	cleanup()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return shutdownErr
}
