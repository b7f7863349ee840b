package entity

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""
)

const (
	OutcomeInProgress = "in_progress"
	OutcomeWin        = "win"
	OutcomeDraw       = "draw"
)

const BoardSize = 9

// winLines - rows top-to-bottom, columns left-to-right, then both diagonals.
var winLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Mark is a player's symbol. EmptyCell is only ever a cell value.
type Mark string

// Valid reports whether the mark is X or O.
func (that Mark) Valid() bool {
	return that == MarkX || that == MarkO
}

// Opponent returns the other player's mark.
func (that Mark) Opponent() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

// Board is a row-major 3x3 grid. It is a value type: every move produces a new Board.
type Board [BoardSize]Mark

// Outcome is derived from a Board and never stored.
type Outcome struct {
	State  string `json:"state"`
	Winner Mark   `json:"winner,omitempty"`
}

// WinLines returns a copy of the eight winning index triples in scan order.
func WinLines() [8][3]int {
	return winLines
}

func NewBoard() Board {
	return Board{}
}

// With returns a copy of the board with one cell set.
func (that Board) With(cell int, mark Mark) Board {
	next := that
	next[cell] = mark
	return next
}

// EmptyCells returns indices of empty cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// EvaluateWinner returns the mark of the first complete line in scan order.
func (that Board) EvaluateWinner() (Mark, bool) {
	for _, line := range winLines {
		a, b, c := that[line[0]], that[line[1]], that[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a, true
		}
	}

	return EmptyCell, false
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// DeriveStatus checks for a winner before fullness, so a full winning board is a win.
func (that Board) DeriveStatus() Outcome {
	if winner, ok := that.EvaluateWinner(); ok {
		return Outcome{State: OutcomeWin, Winner: winner}
	}

	if that.IsFull() {
		return Outcome{State: OutcomeDraw}
	}

	return Outcome{State: OutcomeInProgress}
}

func (that Outcome) IsInProgress() bool {
	return that.State == OutcomeInProgress
}

func (that Outcome) IsWin() bool {
	return that.State == OutcomeWin
}

func (that Outcome) IsDraw() bool {
	return that.State == OutcomeDraw
}
