package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/giftbase/internal/api"
	"github.com/kalambet/giftbase/internal/config"
	"github.com/kalambet/giftbase/internal/embedding"
	"github.com/kalambet/giftbase/internal/imagecheck"
	"github.com/kalambet/giftbase/internal/ingestion"
	"github.com/kalambet/giftbase/internal/product"
	"github.com/kalambet/giftbase/internal/search"
	"github.com/kalambet/giftbase/internal/storage"
	"github.com/kalambet/giftbase/internal/vectorstore"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the giftbase server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show giftbase system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func setupLogging(cfg config.Config) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// buildVectorStore selects the configured index backend. The SQLite backend
// shares the database with upload history.
func buildVectorStore(cfg config.Config, store *storage.Store) vectorstore.VectorStore {
	if cfg.Vector.Backend == config.VectorBackendUpstash {
		return vectorstore.NewUpstashStore(cfg.Vector.UpstashURL, cfg.Vector.UpstashToken)
	}
	return vectorstore.NewSQLiteStore(store.DB())
}

func buildEmbedder(cfg config.Config) (*embedding.OpenAIClient, error) {
	return embedding.NewOpenAIClient(embedding.OpenAIConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.TimeoutDuration(),
	})
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "giftbase version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if cfg.Server.APIToken == "" {
		return fmt.Errorf("missing required config: portal API token. Set GIFTBASE_SERVER_API_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	vectors := buildVectorStore(cfg, store)
	slog.Info("vector index ready", "backend", cfg.Vector.Backend, "model", embedder.Model())

	validator := imagecheck.New(&http.Client{}, cfg.Ingest.ImageTimeoutDuration())
	pipeline := ingestion.New(embedder, validator, vectors, cfg.Ingest.ImageConcurrency)
	retriever := search.New(embedder, vectors)
	products := product.NewRepository(vectors)

	handler := api.NewAppHandler(api.AppDeps{
		Pipeline:       pipeline,
		Retriever:      retriever,
		Products:       products,
		Index:          vectors,
		Store:          store,
		Token:          cfg.Server.APIToken,
		MaxUploadBytes: int64(cfg.Ingest.MaxFileBytes),
		DefaultTopK:    cfg.Retrieval.TopK,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server over stdio, for assistant hosts launched against this process.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Retriever: retriever,
		Products:  products,
		Store:     store,
		TopK:      cfg.Retrieval.TopK,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "giftbase listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Vector backend", "%s", cfg.Vector.Backend)
	printStatus("Embedding model", "%s", cfg.Embedding.Model)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
