package tictactoe

import (
	"math/rand"

	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

// RandomSource picks the fallback cell. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Intn(n int) int {
	return rand.Intn(n) //nolint: gosec // it's ok
}

// MoveSelector is a one-ply greedy AI: win if possible, else block, else play randomly.
// It does not see forks.
type MoveSelector struct {
	random RandomSource
}

// NewMoveSelector - a nil source falls back to the global math/rand generator.
func NewMoveSelector(random RandomSource) *MoveSelector {
	if random == nil {
		random = globalRand{}
	}

	return &MoveSelector{random: random}
}

// SelectMove returns the cell the AI plays as aiMark. ok is false when the board has no empty cell.
func (that *MoveSelector) SelectMove(board entity.Board, aiMark entity.Mark) (int, bool) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, false
	}

	if cell, ok := findWinningCell(board, availableCells, aiMark); ok {
		return cell, true
	}

	// block the first threat found
	if cell, ok := findWinningCell(board, availableCells, aiMark.Opponent()); ok {
		return cell, true
	}

	return availableCells[that.random.Intn(len(availableCells))], true
}

func findWinningCell(board entity.Board, availableCells []int, mark entity.Mark) (int, bool) {
	for _, cell := range availableCells {
		if winner, ok := board.With(cell, mark).EvaluateWinner(); ok && winner == mark {
			return cell, true
		}
	}

	return 0, false
}
