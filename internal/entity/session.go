package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// Session holds the board history of one game and the pointer to the board on display.
type Session struct {
	ID          string    `json:"id"`
	History     []Board   `json:"history"`
	CurrentMove int       `json:"current_move"`
	AIEnabled   bool      `json:"ai_enabled"`
	AIMark      Mark      `json:"ai_mark"`
	Generation  uint64    `json:"generation"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSession(id string, aiMark Mark) *Session {
	return &Session{
		ID:        id,
		History:   []Board{NewBoard()},
		AIMark:    aiMark,
		UpdatedAt: time.Now(),
	}
}

func (that *Session) CurrentBoard() Board {
	return that.History[that.CurrentMove]
}

// NextMark - X moves on even move numbers, O on odd ones.
func (that *Session) NextMark() Mark {
	if that.CurrentMove%2 == 0 {
		return MarkX
	}
	return MarkO
}

func (that *Session) Outcome() Outcome {
	return that.CurrentBoard().DeriveStatus()
}

// IsAITurn reports whether the AI should move on the board currently displayed.
func (that *Session) IsAITurn() bool {
	return that.AIEnabled && that.NextMark() == that.AIMark && that.Outcome().IsInProgress()
}

// Play places the next mark on cell. Any boards after the current move are discarded.
func (that *Session) Play(cell int) error {
	if cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	board := that.CurrentBoard()

	if !board.DeriveStatus().IsInProgress() {
		return apperror.ErrGameFinished
	}

	if board[cell] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	history := make([]Board, that.CurrentMove+1, that.CurrentMove+2)
	copy(history, that.History[:that.CurrentMove+1])

	that.History = append(history, board.With(cell, that.NextMark()))
	that.CurrentMove = len(that.History) - 1
	that.touch()

	return nil
}

// JumpTo moves the pointer to an earlier (or later) board without dropping history.
func (that *Session) JumpTo(move int) error {
	if move < 0 || move >= len(that.History) {
		return fmt.Errorf("%w: move %d", apperror.ErrInvalidMove, move)
	}

	that.CurrentMove = move
	that.touch()

	return nil
}

func (that *Session) Reset() {
	that.CurrentMove = 0
	that.touch()
}

func (that *Session) ToggleAI() {
	that.AIEnabled = !that.AIEnabled
	that.touch()
}

// Validate checks the invariants a decoded session must hold before any board is read.
func (that *Session) Validate() error {
	if len(that.History) == 0 {
		return fmt.Errorf("%w: empty history", apperror.ErrInvalidSession)
	}

	if that.CurrentMove < 0 || that.CurrentMove >= len(that.History) {
		return fmt.Errorf("%w: current move %d outside history of %d", apperror.ErrInvalidSession, that.CurrentMove, len(that.History))
	}

	if that.AIMark != "" && !that.AIMark.Valid() {
		return fmt.Errorf("%w: ai mark %q", apperror.ErrInvalidSession, that.AIMark)
	}

	for i, board := range that.History {
		for _, cell := range board {
			if cell != EmptyCell && !cell.Valid() {
				return fmt.Errorf("%w: board %d holds %q", apperror.ErrInvalidSession, i, cell)
			}
		}
	}

	return nil
}

// Clone returns a deep copy; boards are values so copying the slice is enough.
func (that *Session) Clone() *Session {
	clone := *that
	clone.History = make([]Board, len(that.History))
	copy(clone.History, that.History)

	return &clone
}

// touch invalidates every AI move planned against the previous state.
func (that *Session) touch() {
	that.Generation++
	that.UpdatedAt = time.Now()
}
