package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

const (
	writeTimeout    = 10 * time.Second
	maxMessageSize  = 4096
	shutdownTimeout = 5 * time.Second
)

type sessionUseCase interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)

	Play(ctx context.Context, id string, cell int) (*entity.Session, error)
	JumpTo(ctx context.Context, id string, move int) (*entity.Session, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
	ToggleAI(ctx context.Context, id string) (*entity.Session, error)
}

type handlerFunc func(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error)

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, sessions sessionUseCase, hub *Hub) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionNew] = server.handleNewSession
	server.handlers[actionJoin] = server.handleJoinSession
	server.handlers[actionPlay] = server.handlePlay
	server.handlers[actionJump] = server.handleJump
	server.handlers[actionReset] = server.handleReset
	server.handlers[actionAI] = server.handleToggleAI

	return server
}

// Handler - exposes the upgrade endpoint at /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient()
	done := make(chan struct{})

	go that.writePump(conn, c, done)

	defer func() {
		that.hub.Leave(c)
		close(done)
		_ = conn.Close()
	}()

	log.Info("WebSocket connection established")

	that.readPump(ctx, conn, c)
}

// readPump - processes messages from the client until it disconnects.
func (that *Server) readPump(ctx context.Context, conn *websocket.Conn, c *client) {
	log := that.logger.With("method", "readPump")

	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			log.Debug("malformed message", "error", err)
			that.reply(c, "", ResponsePayload{Error: "invalid message"})
			continue
		}

		that.dispatch(ctx, c, msg)
	}
}

func (that *Server) writePump(conn *websocket.Conn, c *client, done <-chan struct{}) {
	log := that.logger.With("method", "writePump")

	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}
		}
	}
}

func (that *Server) dispatch(ctx context.Context, c *client, msg Message) {
	log := that.logger.With("method", "dispatch", "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		that.reply(c, msg.Action, ResponsePayload{Error: "unknown action"})
		return
	}

	var payload RequestPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			that.reply(c, msg.Action, ResponsePayload{Error: "invalid payload"})
			return
		}
	}

	session, err := handler(ctx, c, payload)
	if err != nil {
		log.Debug("action failed", "error", err)
		that.reply(c, msg.Action, ResponsePayload{Error: err.Error()})
		return
	}

	that.replySession(c, msg.Action, session)
}
