// Package transport relays town notifications and client commands over
// WebSocket connections. Each accepted connection authenticates a session
// token, subscribes one listener to its town, and owns a read/write pump
// pair.
package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meetgrid/townsquare/internal/town"
)

// Handler upgrades authenticated requests to WebSocket connections.
type Handler struct {
	registry *town.Registry
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: registry and logger must be non-nil.
func NewHandler(registry *town.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP authenticates the townId and token query parameters, upgrades
// the connection, and starts the relay pumps. An unknown town or token is an
// authorization failure, rejected before the upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	townID := r.URL.Query().Get("townId")
	token := r.URL.Query().Get("token")

	state, ok := h.registry.TownByID(townID)
	if !ok {
		http.Error(w, "unknown town", http.StatusNotFound)
		return
	}
	sess, ok := state.SessionByToken(token)
	if !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}

	c := newClient(conn, state, sess, h.logger)
	state.Subscribe(c)

	h.logger.Info("connection established",
		zap.String("town", townID),
		zap.String("participant", sess.Participant.ID),
	)

	go c.writePump()
	go c.readPump()
}
