package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

const clientSendBuffer = 16

type client struct {
	send chan Message

	mu        sync.Mutex
	sessionID string
}

func newClient() *client {
	return &client{send: make(chan Message, clientSendBuffer)}
}

func (that *client) SessionID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.sessionID
}

// Hub fans session updates out to every connection joined to the session.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Join moves c from its previous session, if any, to sessionID.
func (that *Hub) Join(c *client, sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	c.mu.Lock()
	previous := c.sessionID
	c.sessionID = sessionID
	c.mu.Unlock()

	that.removeLocked(c, previous)

	if that.clients[sessionID] == nil {
		that.clients[sessionID] = make(map[*client]struct{})
	}
	that.clients[sessionID][c] = struct{}{}
}

func (that *Hub) Leave(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(c, c.SessionID())
}

// Publish implements the session manager's notifier.
func (that *Hub) Publish(session *entity.Session) {
	snapshot := view.New(session)

	msg, err := newMessage(actionUpdate, ResponsePayload{Session: &snapshot})
	if err != nil {
		that.logger.Error("failed to build update", "session_id", session.ID, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for c := range that.clients[session.ID] {
		select {
		case c.send <- msg:
		default:
			that.logger.Warn("client is too slow, update dropped", "session_id", session.ID)
		}
	}
}

func (that *Hub) removeLocked(c *client, sessionID string) {
	if sessionID == "" {
		return
	}

	delete(that.clients[sessionID], c)
	if len(that.clients[sessionID]) == 0 {
		delete(that.clients, sessionID)
	}
}
