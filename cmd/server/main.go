package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/amit429/billbreak/internal/config"
	"github.com/amit429/billbreak/internal/receipt"
	"github.com/amit429/billbreak/internal/server"
	"github.com/amit429/billbreak/internal/session"
	"github.com/amit429/billbreak/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	registry := session.NewRegistry(cfg.SessionTTL)
	defer registry.Close()
	slog.Info("Session registry initialized", "ttl", cfg.SessionTTL)

	var parser receipt.Parser
	if cfg.OpenAIAPIKey != "" {
		parser = receipt.NewOpenAIParser(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		slog.Info("Receipt parsing enabled")
	} else {
		slog.Warn("OPENAI_API_KEY not set, receipt parsing disabled")
	}

	srv := server.New(registry, parser, cfg.CORSAllowedOrigins)
	mux := http.NewServeMux()
	mux.Handle("/", srv.Routes())

	// Serve the frontend bundle alongside the API when configured.
	if cfg.StaticPath != "" {
		staticDir, err := filepath.Abs(cfg.StaticPath)
		if err != nil {
			slog.Error("Failed to resolve static path", "error", err)
			os.Exit(1)
		}
		slog.Info("Serving static files", "path", staticDir)
		mux.HandleFunc("/app/", func(w http.ResponseWriter, r *http.Request) {
			urlPath := strings.TrimPrefix(r.URL.Path, "/app")
			if urlPath == "" || urlPath == "/" {
				urlPath = "/index.html"
			}
			filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
			if _, err := os.Stat(filePath); os.IsNotExist(err) {
				// SPA fallback: unknown paths get index.html.
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			http.ServeFile(w, r, filePath)
		})
	}

	// h2c lets browsers on plain HTTP use HTTP/2 multiplexing.
	handler := h2c.NewHandler(mux, &http2.Server{})

	addr := cfg.HTTPAddr()
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
