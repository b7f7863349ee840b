package websocket

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

var (
	ErrSessionRequired = errors.New("session_id is required")
	ErrCellRequired    = errors.New("cell is required")
	ErrMoveRequired    = errors.New("move is required")
	ErrSessionMismatch = errors.New("session_id differs from the joined session, send session:join first")
)

func (that *Server) handleNewSession(ctx context.Context, c *client, _ RequestPayload) (*entity.Session, error) {
	session, err := that.sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	that.hub.Join(c, session.ID)

	return session, nil
}

func (that *Server) handleJoinSession(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error) {
	if payload.SessionID == "" {
		return nil, ErrSessionRequired
	}

	session, err := that.sessions.GetSession(ctx, payload.SessionID)
	if err != nil {
		return nil, err
	}

	that.hub.Join(c, session.ID)

	return session, nil
}

func (that *Server) handlePlay(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error) {
	if payload.Cell == nil {
		return nil, ErrCellRequired
	}

	return that.onSession(c, payload, func(sessionID string) (*entity.Session, error) {
		return that.sessions.Play(ctx, sessionID, *payload.Cell)
	})
}

func (that *Server) handleJump(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error) {
	if payload.Move == nil {
		return nil, ErrMoveRequired
	}

	return that.onSession(c, payload, func(sessionID string) (*entity.Session, error) {
		return that.sessions.JumpTo(ctx, sessionID, *payload.Move)
	})
}

func (that *Server) handleReset(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error) {
	return that.onSession(c, payload, func(sessionID string) (*entity.Session, error) {
		return that.sessions.Reset(ctx, sessionID)
	})
}

func (that *Server) handleToggleAI(ctx context.Context, c *client, payload RequestPayload) (*entity.Session, error) {
	return that.onSession(c, payload, func(sessionID string) (*entity.Session, error) {
		return that.sessions.ToggleAI(ctx, sessionID)
	})
}

// onSession runs apply against the session the connection watches. A connection that has not
// joined yet joins the session named in the payload once apply succeeds.
func (that *Server) onSession(
	c *client,
	payload RequestPayload,
	apply func(sessionID string) (*entity.Session, error),
) (*entity.Session, error) {
	joined := c.SessionID()

	sessionID := payload.SessionID
	switch {
	case sessionID == "" && joined == "":
		return nil, ErrSessionRequired
	case sessionID == "":
		sessionID = joined
	case joined != "" && sessionID != joined:
		return nil, ErrSessionMismatch
	}

	session, err := apply(sessionID)
	if err != nil {
		return nil, err
	}

	if joined == "" {
		that.hub.Join(c, session.ID)
	}

	return session, nil
}

func (that *Server) replySession(c *client, action string, session *entity.Session) {
	snapshot := view.New(session)
	that.reply(c, action, ResponsePayload{Session: &snapshot})
}

func (that *Server) reply(c *client, action string, payload ResponsePayload) {
	msg, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to build response", "action", action, "error", err)
		return
	}

	select {
	case c.send <- msg:
	default:
		that.logger.Warn("client is too slow, response dropped", "action", action)
	}
}
