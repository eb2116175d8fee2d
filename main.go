package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"storefront-livechat-server/hub"
	"storefront-livechat-server/protocol"
	"storefront-livechat-server/store"
	ws "storefront-livechat-server/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	cfg := loadConfig()
	setupLogger(cfg.LogLevel)

	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		slog.Error("store init failed", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	chatHub := hub.New(st, hub.Config{
		IdleThreshold: cfg.IdleThreshold,
		SweepInterval: cfg.SweepInterval,
	})
	chatHub.Start()
	defer chatHub.Stop()

	handler := protocol.NewHandler(chatHub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(chatHub, handler, "visitor"))
	mux.HandleFunc("/ws/admin", wsHandler(chatHub, handler, "admin"))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(chatHub))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(logLevel string) {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(chatHub *hub.Hub, handler *protocol.Handler, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			return
		}

		connID := uuid.New().String()
		slog.Debug("socket accepted", "kind", kind, "connectionId", connID)

		wsConn := ws.NewConn(connID, conn, chatHub, handler)
		wsConn.Start()
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(chatHub *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitors, admins, tracked := chatHub.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"visitors": visitors,
			"admins":   admins,
			"sessions": tracked,
		})
	}
}
