package apperror

import "errors"

var (
	ErrRoomFull         = errors.New("room is already full")
	ErrRoomClosed       = errors.New("room is closed")
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
)
