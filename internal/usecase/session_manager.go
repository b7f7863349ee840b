package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

const pendingQueueSize = 64

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type moveSelector interface {
	SelectMove(board entity.Board, aiMark entity.Mark) (int, bool)
}

type notifier interface {
	Publish(session *entity.Session)
}

// PendingMove is an AI move tagged with the session generation it was planned against.
type PendingMove struct {
	SessionID  string      `json:"session_id"`
	Cell       int         `json:"cell"`
	Mark       entity.Mark `json:"mark"`
	Generation uint64      `json:"generation"`
}

type SessionManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo
	selector    moveSelector
	notifier    notifier

	aiMark  entity.Mark
	aiDelay time.Duration

	// serializes load-modify-save of sessions
	mu      sync.Mutex
	pending chan PendingMove
}

func NewSessionManager(
	logger *slog.Logger,
	sessionRepo sessionRepo,
	selector moveSelector,
	notifier notifier,
	aiMark entity.Mark,
	aiDelay time.Duration,
) *SessionManager {
	return &SessionManager{
		logger:      logger.With("component", "session_manager"),
		sessionRepo: sessionRepo,
		selector:    selector,
		notifier:    notifier,

		aiMark:  aiMark,
		aiDelay: aiDelay,

		pending: make(chan PendingMove, pendingQueueSize),
	}
}

func (that *SessionManager) CreateSession(ctx context.Context) (*entity.Session, error) {
	session := entity.NewSession(uuid.NewString(), that.aiMark)

	if err := that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "session_id", session.ID)

	return session, nil
}

func (that *SessionManager) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (that *SessionManager) DeleteSession(ctx context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.sessionRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Play places the next mark for a human player.
func (that *SessionManager) Play(ctx context.Context, id string, cell int) (*entity.Session, error) {
	return that.update(ctx, id, func(session *entity.Session) error {
		if session.IsAITurn() {
			return apperror.ErrNotYourTurn
		}

		return session.Play(cell)
	})
}

func (that *SessionManager) JumpTo(ctx context.Context, id string, move int) (*entity.Session, error) {
	return that.update(ctx, id, func(session *entity.Session) error {
		return session.JumpTo(move)
	})
}

func (that *SessionManager) Reset(ctx context.Context, id string) (*entity.Session, error) {
	return that.update(ctx, id, func(session *entity.Session) error {
		session.Reset()
		return nil
	})
}

func (that *SessionManager) ToggleAI(ctx context.Context, id string) (*entity.Session, error) {
	return that.update(ctx, id, func(session *entity.Session) error {
		session.ToggleAI()
		return nil
	})
}

// PlanAIMove picks the AI move for the live board without applying it.
func (that *SessionManager) PlanAIMove(ctx context.Context, id string) (PendingMove, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return PendingMove{}, fmt.Errorf("failed to get session: %w", err)
	}

	return that.planAIMove(session)
}

// CommitAIMove applies a planned move only if the session has not changed since it was planned,
// then publishes the new state.
func (that *SessionManager) CommitAIMove(ctx context.Context, move PendingMove) (*entity.Session, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, move.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Generation != move.Generation {
		return nil, fmt.Errorf("%w: planned at %d, session at %d", apperror.ErrStaleMove, move.Generation, session.Generation)
	}

	if !session.IsAITurn() {
		return nil, apperror.ErrNotAITurn
	}

	if err = session.Play(move.Cell); err != nil {
		return nil, fmt.Errorf("ai failed to make turn: %w", err)
	}

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	that.notifier.Publish(session)

	return session, nil
}

// Run commits scheduled AI moves after the pacing delay until ctx is done.
func (that *SessionManager) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("ai move loop stopped")
			return
		case move := <-that.pending:
			wg.Add(1)
			go func() {
				defer wg.Done()
				that.commitAfterDelay(ctx, move)
			}()
		}
	}
}

func (that *SessionManager) commitAfterDelay(ctx context.Context, move PendingMove) {
	log := that.logger.With("method", "commitAfterDelay", "session_id", move.SessionID)

	timer := time.NewTimer(that.aiDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	session, err := that.CommitAIMove(ctx, move)
	switch {
	case errors.Is(err, apperror.ErrStaleMove), errors.Is(err, apperror.ErrSessionNotFound):
		log.Debug("ai move discarded", "reason", err)
		return
	case err != nil:
		log.Error("failed to commit ai move", "error", err)
		return
	}

	log.Debug("ai move committed", "cell", move.Cell, "generation", session.Generation)
}

func (that *SessionManager) update(ctx context.Context, id string, apply func(*entity.Session) error) (*entity.Session, error) {
	session, move, scheduled, err := that.applyLocked(ctx, id, apply)
	if err != nil {
		return nil, err
	}

	if scheduled {
		that.schedule(move)
	}

	return session, nil
}

func (that *SessionManager) applyLocked(
	ctx context.Context,
	id string,
	apply func(*entity.Session) error,
) (*entity.Session, PendingMove, bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, PendingMove{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	if err = apply(session); err != nil {
		return nil, PendingMove{}, false, fmt.Errorf("failed to update session: %w", err)
	}

	if err = that.sessionRepo.CreateOrUpdate(ctx, session); err != nil {
		return nil, PendingMove{}, false, fmt.Errorf("failed to save session: %w", err)
	}

	// published under mu so watchers see generations in order
	that.notifier.Publish(session)

	if !session.IsAITurn() {
		return session, PendingMove{}, false, nil
	}

	move, err := that.planAIMove(session)
	if err != nil {
		that.logger.Error("failed to plan ai move", "session_id", session.ID, "error", err)
		return session, PendingMove{}, false, nil
	}

	return session, move, true, nil
}

func (that *SessionManager) planAIMove(session *entity.Session) (PendingMove, error) {
	if !session.AIEnabled {
		return PendingMove{}, apperror.ErrAIDisabled
	}

	if !session.IsAITurn() {
		return PendingMove{}, apperror.ErrNotAITurn
	}

	cell, ok := that.selector.SelectMove(session.CurrentBoard(), session.AIMark)
	if !ok {
		return PendingMove{}, apperror.ErrNoAvailableMove
	}

	return PendingMove{
		SessionID:  session.ID,
		Cell:       cell,
		Mark:       session.AIMark,
		Generation: session.Generation,
	}, nil
}

func (that *SessionManager) schedule(move PendingMove) {
	select {
	case that.pending <- move:
	default:
		that.logger.Warn("ai move queue is full, move dropped", "session_id", move.SessionID)
	}
}
