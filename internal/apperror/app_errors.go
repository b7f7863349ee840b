package apperror

import "errors"

var (
	ErrGameFinished    = errors.New("game is already finished")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrInvalidMove     = errors.New("invalid move number")
	ErrAIDisabled      = errors.New("ai is disabled")
	ErrNotAITurn       = errors.New("it's not the ai's turn")
	ErrStaleMove       = errors.New("ai move is stale")
	ErrNoAvailableMove = errors.New("no available moves")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSession  = errors.New("invalid session state")
)
