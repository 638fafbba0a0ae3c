package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/aetherchat/internal/chat"
	"github.com/user/aetherchat/internal/gateway"
	"github.com/user/aetherchat/internal/httpapi"
	"github.com/user/aetherchat/internal/search"
	"github.com/user/aetherchat/internal/state"
	"github.com/user/aetherchat/internal/stream"
	"github.com/user/aetherchat/internal/telemetry"
)

var serveConversation string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aetherchat HTTP control plane",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConversation, "conversation", "default", "conversation title to serve")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := gateway.New(&gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		APIKey:      cfg.Gateway.APIKey,
		AppID:       cfg.Gateway.AppID,
		Model:       cfg.Gateway.Model,
		MaxTokens:   cfg.Gateway.MaxTokens,
		Temperature: cfg.Gateway.Temperature,
	})

	// Stores
	index := state.NewIndex(cfg.DataDir)
	transcripts := state.NewTranscripts(cfg.DataDir)
	files := state.NewFiles(cfg.DataDir)

	convID, err := index.ResolveOrCreate(ctx, serveConversation, cfg.Gateway.Model)
	if err != nil {
		return fmt.Errorf("resolve conversation: %w", err)
	}
	conversation := state.NewConversationWithLimit(convID, cfg.ActivityLimit)

	var enricher stream.Enricher
	if cfg.Search.Enabled && cfg.Search.BraveAPIKey != "" {
		enricher = search.NewWebEnricher(search.NewBraveClient(cfg.Search.BraveAPIKey), search.NewPageReader())
		slog.Info("search enrichment enabled")
	}

	service := chat.NewService(client, conversation, transcripts, files, index, convID, chat.Options{
		Model:         cfg.Gateway.Model,
		Temperature:   cfg.Gateway.Temperature,
		MaxTokens:     cfg.Gateway.MaxTokens,
		ContextWindow: cfg.Gateway.ContextWindow,
		User:          os.Getenv("USER"),
		AppID:         cfg.Gateway.AppID,
		Enricher:      enricher,
	})
	if err := service.LoadHistory(ctx); err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	var poller *telemetry.Poller
	if cfg.Telemetry.Enabled {
		poller = telemetry.New(client, telemetry.Options{
			UserID:       os.Getenv("USER"),
			AppID:        cfg.Gateway.AppID,
			LookbackDays: cfg.Telemetry.LookbackDays,
			Interval:     time.Duration(cfg.Telemetry.IntervalMinutes) * time.Minute,
		})
		if err := poller.Start(ctx); err != nil {
			return fmt.Errorf("start telemetry: %w", err)
		}
		defer poller.Stop()
	}

	api := httpapi.NewServer(service, client, poller)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("aetherchat started",
			"listen", cfg.HTTP.Listen,
			"data_dir", cfg.DataDir,
			"model", cfg.Gateway.Model,
			"conversation_id", string(convID),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	slog.Info("shutting down", "signal", sig)

	service.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	return nil
}
