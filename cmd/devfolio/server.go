package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/devfolio/internal/api"
	"github.com/kalambet/devfolio/internal/composer"
	"github.com/kalambet/devfolio/internal/config"
	"github.com/kalambet/devfolio/internal/ingest"
	"github.com/kalambet/devfolio/internal/llm"
	"github.com/kalambet/devfolio/internal/pipeline"
	"github.com/kalambet/devfolio/internal/prompts"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and upload worker (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpStdio, _ := cmd.Flags().GetBool("mcp-stdio")
		return runServer(mcpStdio)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show devfolio status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp-stdio", false, "also serve MCP tools over stdin/stdout")
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

func loadTemplates(path string) (*prompts.Store, error) {
	if path == "" {
		return prompts.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}
	return prompts.Parse(data)
}

// newCollaborator returns nil without an error when no API key is
// configured; generation then always uses the fallback document.
func newCollaborator(ctx context.Context, cfg config.LLMConfig) (llm.Collaborator, error) {
	c, err := llm.New(ctx, llm.Options{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey(),
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		BaseURL:     cfg.BaseURL,
	})
	if errors.Is(err, llm.ErrNoAPIKey) {
		slog.Warn("no LLM API key configured, using fallback generation only", "provider", cfg.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o, ok := c.(*llm.Ollama); ok {
		if err := o.Ready(ctx); err != nil {
			slog.Warn("ollama not ready, turns will use fallback generation until it is", "error", err)
		}
	}
	return c, nil
}

func runServer(mcpStdio bool) error {
	fmt.Fprintf(os.Stderr, "devfolio version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

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
	if versions, err := store.AppliedMigrations(); err != nil {
		slog.Warn("reading schema version", "error", err)
	} else if len(versions) > 0 {
		slog.Info("storage ready", "dir", cfg.Storage.DataDir, "schema_version", versions[len(versions)-1])
	}

	tmpl, err := loadTemplates(cfg.Generation.PromptsFile)
	if err != nil {
		return err
	}
	collab, err := newCollaborator(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	comp := composer.New(tmpl, cfg.Chat.HistoryLimit, cfg.Chat.MaxHistoryTokens)
	gen := pipeline.NewGenerator(collab, comp, cfg.Generation.MinLength, cfg.LLM.TimeoutDuration())
	assistant := pipeline.NewAssistant(store, session.NewManager(store, cfg.Canvas.UndoDepth), gen)

	handler := api.NewHandler(api.Deps{
		Assistant: assistant,
		Uploads:   store,
		Token:     cfg.Server.Token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	worker := ingest.NewWorker(store, store, cfg.Ingest.PollDuration())

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("devfolio listening", "addr", addr, "auth", cfg.Server.Token != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		worker.Run(gCtx)
		return nil
	})

	if mcpStdio {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Assistant: assistant, Version: version})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gCtx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	base := serverURL
	if base == "" {
		base = fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	}
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(base + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running at %s", base)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	provider := cfg.LLM.Provider
	if cfg.LLM.APIKey() == "" && provider != "ollama" {
		provider += " (no API key, fallback only)"
	}
	printStatus("LLM", "%s", provider)
	printStatus("Model", "%s", cfg.LLM.Model)
	printStatus("Undo depth", "%d", cfg.Canvas.UndoDepth)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Config", "%s", config.FilePath())
	return nil
}
