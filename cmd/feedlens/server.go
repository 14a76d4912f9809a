package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/feedlens/feedlens/internal/api"
	"github.com/feedlens/feedlens/internal/auth"
	"github.com/feedlens/feedlens/internal/config"
	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/model"
	"github.com/feedlens/feedlens/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the feedlens server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running feedlens server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show feedlens system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "feedlens.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = 15 * time.Minute

func runServer() error {
	fmt.Fprintf(os.Stderr, "feedlens version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Refuse to double-start: probe the health endpoint first.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("feedlens is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("feedlens is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

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

	authMgr := auth.NewManager(store, cfg.Auth.SessionTTL())
	if err := authMgr.SeedAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.BootstrapPassword); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	if dropped, err := store.DeleteExpiredSessions(); err != nil {
		slog.Warn("purging expired sessions failed", "error", err)
	} else if dropped > 0 {
		slog.Info("purged expired sessions", "count", dropped)
	}
	go sweepSessions(ctx, store)

	datasets, err := dataset.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening dataset store: %w", err)
	}
	models := model.NewService(model.NewRepository(cfg.Storage.DataDir))
	if m, err := models.Current(); err == nil {
		slog.Info("loaded trained model", "trained_at", m.TrainedAt, "accuracy", m.Accuracy)
	} else if !errors.Is(err, model.ErrNotLoaded) {
		slog.Warn("loading trained model failed", "error", err)
	}

	deps := api.Deps{
		Store:    store,
		Auth:     authMgr,
		Datasets: datasets,
		Models:   models,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
	}

	// MCP server over stdio, alongside HTTP.
	mcpSrv := api.NewMCPServer(api.MCPDeps{Store: store, Models: models})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "feedlens listening on %s\n", addr)
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

func sweepSessions(ctx context.Context, store *storage.Store) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if dropped, err := store.DeleteExpiredSessions(); err != nil {
				slog.Warn("purging expired sessions failed", "error", err)
			} else if dropped > 0 {
				slog.Debug("purged expired sessions", "count", dropped)
			}
		}
	}
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("feedlens is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop feedlens (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to feedlens (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Show feedback counts when we hold a session with stats access.
	if token, ok := config.SessionToken(); ok && running {
		req, err := http.NewRequest("GET", serverURL+"/feedback/stats", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			if statsResp, err := client.Do(req); err == nil {
				var stats struct {
					Total      int            `json:"total"`
					Sentiments map[string]int `json:"sentiments"`
				}
				if decodeJSON(statsResp, &stats) == nil {
					printStatus("Feedback", "%d entries", stats.Total)
					for _, label := range []string{"positive", "negative", "neutral"} {
						if n, ok := stats.Sentiments[label]; ok {
							printStatus(label, "%d", n)
						}
					}
				}
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
