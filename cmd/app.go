package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/pairlink/internal/config"
	"github.com/nextlevelbuilder/pairlink/internal/gateway"
	"github.com/nextlevelbuilder/pairlink/internal/session"
	"github.com/nextlevelbuilder/pairlink/internal/store"
	"github.com/nextlevelbuilder/pairlink/internal/store/file"
	"github.com/nextlevelbuilder/pairlink/internal/store/sqlite"
)

// app wires the gateway connection, stores, and session controller for one
// CLI invocation.
type app struct {
	cfg        *config.Config
	client     *gateway.Client
	controller *session.Controller
	history    store.HistoryStore

	lastCode string

	// Optional hooks invoked after the controller's own bookkeeping.
	onSessionCreated func()
	onDisconnected   func()
}

// newApp connects to the gateway and builds the controller. Callers must
// call close when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := gateway.Dial(ctx, cfg.Gateway)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, client: client}

	history, err := sqlite.Open(cfg.Store.HistoryPath)
	if err != nil {
		// History is a convenience; pairing still works without it.
		slog.Warn("session history unavailable", "error", err)
	} else {
		a.history = history
	}

	sessions := file.NewSessionStore(cfg.Store.SessionPath)
	backend := gateway.NewBackend(client, sessions, cfg.Gateway.CreatesPerMinute)

	a.controller = session.NewController(backend, session.Callbacks{
		OnSessionCreated: func() {
			a.record(a.controller.Status().String())
			if a.onSessionCreated != nil {
				a.onSessionCreated()
			}
		},
		OnDisconnected: func() {
			a.record("reset")
			if a.onDisconnected != nil {
				a.onDisconnected()
			}
		},
	})
	return a, nil
}

func (a *app) close() {
	a.controller.Close()
	a.client.Close()
	if a.history != nil {
		a.history.Close()
	}
}

// record appends a transition to the history log. The code survives the
// reset transition so the log line still names the session it ended.
func (a *app) record(event string) {
	if code := a.controller.Code(); code != "" {
		a.lastCode = code
	}
	if a.history == nil {
		return
	}
	if err := a.history.Append(a.lastCode, event, time.Now()); err != nil {
		slog.Warn("record session history failed", "error", err)
	}
}

// openHistory opens the history store without a gateway connection, for
// commands that only read local state.
func openHistory() (store.HistoryStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	h, err := sqlite.Open(cfg.Store.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open session history: %w", err)
	}
	return h, nil
}
