// Command textsync-server runs the collaborative text-sync server: one
// Hub per open document, exposed over websocket, plain-text, and JSON
// stats HTTP routes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/textsync/textsync/internal/config"
	"github.com/textsync/textsync/internal/hub"
	"github.com/textsync/textsync/internal/logging"
	"github.com/textsync/textsync/internal/metrics"
	"github.com/textsync/textsync/internal/persistence"
	"github.com/textsync/textsync/internal/transport"
)

var (
	configPath string
	addrFlag   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "textsync-server",
	Short: "textsync server - collaborative plain-text editing backend",
	Long: `textsync-server hosts one operational-transformation session
per document, synchronizing edits between every attached client over
a websocket connection.`,
	RunE: runServe,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	metrics.Initialize()

	var store *persistence.Store
	if cfg.SQLiteDSN != "" {
		log.Info("persistence: %s", cfg.SQLiteDSN)
		store, err = persistence.Open(cfg.SQLiteDSN, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
	} else {
		log.Info("persistence: disabled (in-memory only)")
	}

	registry := hub.NewRegistry(func(docID string) *hub.Hub {
		text := ""
		if store != nil {
			if snap, err := store.Load(docID); err != nil {
				log.Warn("load snapshot for %s: %v", docID, err)
			} else if snap != nil {
				text = snap.Text
			}
		}
		h := hub.NewWithLimit(text, cfg.MaxDocumentSize)
		h.OnMailboxFull = func(id hub.SessionID) { metrics.BroadcastDropped() }
		metrics.DocumentOpened()
		return h
	})

	srv := transport.New(registry, transport.Options{
		Store:              store,
		Log:                log,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		SessionMailboxSize: cfg.SessionMailboxSize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.RunIdleSweep(ctx, time.Minute, cfg.IdleExpiry)
	if store != nil {
		go srv.RunPersister(ctx, cfg.SnapshotInterval)
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case <-sigCh:
		log.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
