package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/repository"
	"github.com/rocketscienceinc/tictactoe-history/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-history/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(logger)
	manager := usecase.NewSessionManager(
		logger,
		repository.NewMemorySessionRepository(),
		tictactoe.NewMoveSelector(nil),
		hub,
		entity.MarkO,
		time.Millisecond,
	)
	go manager.Run(ctx)

	server := httptest.NewServer(New(logger, manager, hub).Handler(ctx))
	t.Cleanup(server.Close)

	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: raw}))
}

// readUntil reads messages until one with the action satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, action string, match func(ResponsePayload) bool) ResponsePayload {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))

		if msg.Action != action {
			continue
		}

		var payload ResponsePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))

		if match(payload) {
			return payload
		}
	}
}

func anyPayload(ResponsePayload) bool { return true }

func TestServer_PlayAgainstAI(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	// Given: a new session with the AI enabled
	send(t, conn, actionNew, struct{}{})
	created := readUntil(t, conn, actionNew, anyPayload)
	require.NotNil(t, created.Session)

	send(t, conn, actionAI, struct{}{})
	toggled := readUntil(t, conn, actionAI, anyPayload)
	require.NotNil(t, toggled.Session)
	require.True(t, toggled.Session.AIEnabled)

	// When: X plays the center
	send(t, conn, actionPlay, RequestPayload{Cell: intPtr(4)})

	// Then: the move is confirmed and the AI reply is pushed as an update, in either order
	var played, update *ResponsePayload
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for played == nil || update == nil {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))

		var payload ResponsePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))

		switch {
		case msg.Action == actionPlay:
			played = &payload
		case msg.Action == actionUpdate && payload.Session != nil && payload.Session.CurrentMove == 2:
			update = &payload
		}
	}

	require.Empty(t, played.Error)
	assert.Equal(t, 1, played.Session.CurrentMove)
	assert.Equal(t, created.Session.ID, update.Session.ID)
	assert.Equal(t, "Next player: X", update.Session.Status)
	assert.Equal(t, entity.MarkO, update.Session.AIMark)
}

func TestServer_UpdatesReachOtherConnections(t *testing.T) {
	server := newTestServer(t)
	player := dial(t, server)
	watcher := dial(t, server)

	// Given: one connection creates a session and another joins it
	send(t, player, actionNew, struct{}{})
	created := readUntil(t, player, actionNew, anyPayload)

	send(t, watcher, actionJoin, RequestPayload{SessionID: created.Session.ID})
	joined := readUntil(t, watcher, actionJoin, anyPayload)
	require.Empty(t, joined.Error)

	// When: the player moves
	send(t, player, actionPlay, RequestPayload{Cell: intPtr(0)})

	// Then: the watcher sees the move
	update := readUntil(t, watcher, actionUpdate, func(payload ResponsePayload) bool {
		return payload.Session != nil && payload.Session.CurrentMove == 1
	})
	assert.Equal(t, entity.MarkX, update.Session.Board[0])
}

func TestServer_Errors(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	t.Run("play without a session", func(t *testing.T) {
		send(t, conn, actionPlay, RequestPayload{Cell: intPtr(0)})

		payload := readUntil(t, conn, actionPlay, anyPayload)

		assert.Equal(t, ErrSessionRequired.Error(), payload.Error)
	})

	t.Run("unknown session", func(t *testing.T) {
		send(t, conn, actionJoin, RequestPayload{SessionID: "missing"})

		payload := readUntil(t, conn, actionJoin, anyPayload)

		assert.Contains(t, payload.Error, "session not found")
	})

	t.Run("unknown action", func(t *testing.T) {
		send(t, conn, "session:dance", struct{}{})

		payload := readUntil(t, conn, "session:dance", anyPayload)

		assert.Equal(t, "unknown action", payload.Error)
	})

	t.Run("occupied cell", func(t *testing.T) {
		send(t, conn, actionNew, struct{}{})
		readUntil(t, conn, actionNew, anyPayload)
		send(t, conn, actionPlay, RequestPayload{Cell: intPtr(0)})
		readUntil(t, conn, actionPlay, anyPayload)

		send(t, conn, actionPlay, RequestPayload{Cell: intPtr(0)})
		payload := readUntil(t, conn, actionPlay, anyPayload)

		assert.Contains(t, payload.Error, "cell is already occupied")
	})
}

func TestServer_MalformedMessage(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server)

	// When: a frame that is not JSON arrives
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	// Then: the client gets an error reply
	payload := readUntil(t, conn, "", anyPayload)
	assert.Equal(t, "invalid message", payload.Error)

	// And: the connection keeps serving requests
	send(t, conn, actionNew, struct{}{})
	created := readUntil(t, conn, actionNew, anyPayload)
	require.Empty(t, created.Error)
	assert.NotNil(t, created.Session)
}

func TestServer_ExplicitSessionID(t *testing.T) {
	server := newTestServer(t)
	owner := dial(t, server)

	send(t, owner, actionNew, struct{}{})
	created := readUntil(t, owner, actionNew, anyPayload)
	require.NotNil(t, created.Session)

	t.Run("A connection joined elsewhere is rejected", func(t *testing.T) {
		// Given: a connection joined to another session
		other := dial(t, server)
		send(t, other, actionNew, struct{}{})
		readUntil(t, other, actionNew, anyPayload)

		// When: it plays on the first session by id
		send(t, other, actionPlay, RequestPayload{SessionID: created.Session.ID, Cell: intPtr(8)})

		// Then: the move is refused
		payload := readUntil(t, other, actionPlay, anyPayload)
		assert.Equal(t, ErrSessionMismatch.Error(), payload.Error)
	})

	t.Run("A connection without a session joins the one it plays on", func(t *testing.T) {
		// Given: a fresh connection that plays by id
		guest := dial(t, server)
		send(t, guest, actionPlay, RequestPayload{SessionID: created.Session.ID, Cell: intPtr(0)})
		played := readUntil(t, guest, actionPlay, anyPayload)
		require.Empty(t, played.Error)

		// When: the owner answers
		send(t, owner, actionPlay, RequestPayload{Cell: intPtr(4)})

		// Then: the guest receives the update
		update := readUntil(t, guest, actionUpdate, func(payload ResponsePayload) bool {
			return payload.Session != nil && payload.Session.CurrentMove == 2
		})
		assert.Equal(t, entity.MarkO, update.Session.Board[4])
	})
}

func intPtr(v int) *int {
	return &v
}
