// Package app wires the grana assistant together: ledger, pending store,
// dispatcher, Matrix transport, and the optional health HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmartins/grana/common/trace"
	"github.com/rmartins/grana/internal/grana/chat"
	"github.com/rmartins/grana/internal/grana/config"
	"github.com/rmartins/grana/internal/grana/ledger"
	"github.com/rmartins/grana/internal/grana/matrix"
)

// App is the assembled grana application.
type App struct {
	config       *config.Config
	store        *ledger.Store
	pending      *chat.MemoryPendingStore
	dispatcher   *chat.Dispatcher
	limiter      *chat.RateLimiter
	matrix       *matrix.Client
	healthServer *HealthServer
}

// New builds the application from configuration.
func New(cfg *config.Config) (*App, error) {
	slog.Info("opening database", "path", cfg.Database.Path)
	store, err := ledger.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pending := chat.NewMemoryPendingStore()
	dispatcher := chat.NewDispatcher(chat.Config{
		Ledger:       store,
		Pending:      pending,
		ConfirmTTL:   cfg.ConfirmTTL(),
		StrictTokens: cfg.Chat.StrictTokens,
	})
	limiter := chat.NewRateLimiter(cfg.Chat.RateLimit, time.Minute)

	// Inject the DB so the client persists the sync token across restarts.
	matrixCfg := matrix.Config{
		Homeserver:     cfg.Matrix.Homeserver,
		UserID:         cfg.Matrix.UserID,
		AccessToken:    cfg.Matrix.AccessToken,
		Rooms:          cfg.Matrix.Rooms,
		AllowedSenders: cfg.Matrix.AllowedSenders,
		DB:             store.DB(),
	}
	slog.Info("connecting to Matrix", "homeserver", matrixCfg.Homeserver)
	matrixClient, err := matrix.New(&matrixCfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize Matrix client: %w", err)
	}

	var healthServer *HealthServer
	if cfg.HTTPAddr != "" {
		healthServer = NewHealthServer(cfg.HTTPAddr, store)
		slog.Info("health server configured", "addr", cfg.HTTPAddr)
	}

	return &App{
		config:       cfg,
		store:        store,
		pending:      pending,
		dispatcher:   dispatcher,
		limiter:      limiter,
		matrix:       matrixClient,
		healthServer: healthServer,
	}, nil
}

// Run starts the application and blocks until an interrupt signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.healthServer != nil {
		if err := a.healthServer.Start(ctx); err != nil {
			slog.Warn("health server failed to start; continuing without it", "err", err)
		}
	}

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("failed to start Matrix client: %w", err)
	}

	// Sweep expired staged actions so abandoned conversations do not pin
	// memory. Expiry is also enforced lazily at confirm time.
	go a.runSweeper(ctx)

	for _, roomID := range a.config.Matrix.Rooms {
		a.matrix.SendNotice(ctx, roomID, "✅ grana iniciado. Envie uma mensagem para ver os comandos.")
	}

	slog.Info("grana is running; press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop shuts down the transport and closes the database.
func (a *App) Stop() {
	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	if a.healthServer != nil {
		slog.Info("stopping health server")
		a.healthServer.Stop()
	}

	slog.Info("closing database")
	a.store.Close()
}

func (a *App) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.config.SweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.pending.SweepExpired(a.config.ConfirmTTL()); n > 0 {
				slog.Debug("swept expired confirmations", "count", n)
			}
		}
	}
}

// conversationKey scopes the pending-confirmation state. Keying by room and
// sender keeps two people in the same room from confirming each other's
// staged actions.
func conversationKey(roomID, sender string) string {
	return roomID + ":" + sender
}

// handleMessage processes one inbound Matrix message and sends the reply.
func (a *App) handleMessage(ctx context.Context, roomID, sender, text string) {
	ctx = trace.WithTraceID(ctx, trace.GenerateID())

	if !a.limiter.Allow(sender) {
		slog.Warn("rate limit exceeded", "sender", sender)
		if err := a.matrix.SendMessage(ctx, roomID, chat.RateLimitedReply()); err != nil {
			slog.Error("failed to send rate-limit reply", "room", roomID, "err", err)
		}
		return
	}

	reply := a.dispatcher.ProcessMessage(ctx, conversationKey(roomID, sender), text)
	if reply == "" {
		return
	}
	if err := a.matrix.SendMessage(ctx, roomID, reply); err != nil {
		slog.Error("failed to send reply", "room", roomID, "err", err)
	}
}
