package view

import (
	"strconv"

	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

// MoveEntry is one line of the move list.
type MoveEntry struct {
	Move        int    `json:"move"`
	Description string `json:"description"`
	Current     bool   `json:"current"`
}

// Snapshot is everything a client needs to render a session.
type Snapshot struct {
	ID          string         `json:"id"`
	Board       entity.Board   `json:"board"`
	CurrentMove int            `json:"current_move"`
	Outcome     entity.Outcome `json:"outcome"`
	NextPlayer  entity.Mark    `json:"next_player,omitempty"`
	Status      string         `json:"status"`
	AIEnabled   bool           `json:"ai_enabled"`
	AIMark      entity.Mark    `json:"ai_mark"`
	Moves       []MoveEntry    `json:"moves"`
}

func New(session *entity.Session) Snapshot {
	outcome := session.Outcome()

	snapshot := Snapshot{
		ID:          session.ID,
		Board:       session.CurrentBoard(),
		CurrentMove: session.CurrentMove,
		Outcome:     outcome,
		Status:      StatusLine(outcome, session.NextMark()),
		AIEnabled:   session.AIEnabled,
		AIMark:      session.AIMark,
		Moves:       make([]MoveEntry, 0, len(session.History)),
	}

	if outcome.IsInProgress() {
		snapshot.NextPlayer = session.NextMark()
	}

	for move := range session.History {
		snapshot.Moves = append(snapshot.Moves, MoveEntry{
			Move:        move,
			Description: describeMove(move),
			Current:     move == session.CurrentMove,
		})
	}

	return snapshot
}

func StatusLine(outcome entity.Outcome, next entity.Mark) string {
	switch {
	case outcome.IsWin():
		return "Winner: " + string(outcome.Winner)
	case outcome.IsDraw():
		return "Draw"
	default:
		return "Next player: " + string(next)
	}
}

func describeMove(move int) string {
	if move == 0 {
		return "Go to game start"
	}
	return "Go to move #" + strconv.Itoa(move)
}
