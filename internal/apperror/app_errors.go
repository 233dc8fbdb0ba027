package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidIndex  = errors.New("index is out of range")
	ErrGameNotFound  = errors.New("game not found")
	ErrCorruptedGame = errors.New("game state is corrupted")
)

// IsRejected reports whether err is a routine rejection of a move or jump,
// after which the game state is left untouched.
func IsRejected(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrInvalidIndex)
}
