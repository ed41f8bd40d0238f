// Command server exposes the question-answering engine over HTTP: a chat
// endpoint that resolves patient questions, and a profile endpoint holding
// each user's language, event date and miss counter.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jarturog/colpabot"
	"github.com/Jarturog/colpabot/messages"
	"github.com/Jarturog/colpabot/profile"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := colpabot.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = colpabot.LoadConfig(*configPath); err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}

	// Override from environment variables.
	if v := os.Getenv("COLPABOT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("COLPABOT_VECTOR_DB"); v != "" {
		cfg.VectorDBPath = v
	}
	if v := os.Getenv("COLPABOT_PROFILE_DB"); v != "" {
		cfg.ProfileDBPath = v
	}
	if v := os.Getenv("COLPABOT_PROFILE_KEY"); v != "" {
		cfg.ProfileKey = v
	}

	apiKey := os.Getenv("COLPABOT_API_KEY")
	corsOrigins := os.Getenv("COLPABOT_CORS_ORIGINS")

	res, err := colpabot.LoadResources(cfg)
	if err != nil {
		slog.Error("loading resources", "error", err)
		os.Exit(1)
	}
	engine, err := colpabot.New(cfg, res)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}

	catalog, err := messages.LoadTSV(cfg.MessagesPath())
	if err != nil {
		slog.Warn("message catalog unavailable, replies will be bare", "error", err)
	}

	var profiles *profile.Store
	if cfg.ProfileDBPath != "" {
		key, err := hex.DecodeString(cfg.ProfileKey)
		if err != nil {
			slog.Error("profile key is not valid hex", "error", err)
			os.Exit(1)
		}
		profiles, err = profile.Open(cfg.ProfileDBPath, key)
		if err != nil {
			slog.Error("opening profile store", "error", err)
			os.Exit(1)
		}
		defer profiles.Close()
	}

	h := newHandler(engine, profiles, catalog)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("GET /profiles/{id}", h.handleGetProfile)
	mux.HandleFunc("PUT /profiles/{id}", h.handlePutProfile)
	mux.HandleFunc("DELETE /profiles/{id}", h.handleDeleteProfile)
	mux.HandleFunc("GET /languages", h.handleLanguages)
	mux.HandleFunc("GET /health", h.handleHealth)

	handler := chain(mux,
		recoverPanics(),
		allowOrigins(corsOrigins),
		requireKey(apiKey),
		accessLog(),
	)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr, "languages", engine.Languages())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
