package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// Game is the engine state of one session: every board snapshot of the
// current round, the viewed position and the running scores.
type Game struct {
	ID          string    `json:"id"`
	History     []Board   `json:"history"`
	CurrentMove int       `json:"current_move"`
	Scores      Scores    `json:"scores"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:      id,
		History: []Board{{}},
	}
}

func (that *Game) CurrentBoard() Board {
	return that.History[that.CurrentMove]
}

// CurrentTurn is derived from the parity of the viewed move: X plays on even moves.
func (that *Game) CurrentTurn() Cell {
	return TurnAt(that.CurrentMove)
}

func (that *Game) CurrentOutcome() Outcome {
	return Evaluate(that.CurrentBoard())
}

func (that *Game) IsFinished() bool {
	return that.CurrentOutcome().IsDecided()
}

// TurnAt returns the mark that moves after move snapshots have been played.
func TurnAt(move int) Cell {
	if move%2 == 0 {
		return MarkX
	}

	return MarkO
}

// Validate checks that the game could have been produced by alternating play.
func (that *Game) Validate() error {
	if len(that.History) == 0 {
		return fmt.Errorf("%w: empty history", apperror.ErrCorruptedGame)
	}

	if !that.History[0].IsEmpty() {
		return fmt.Errorf("%w: history does not start with an empty board", apperror.ErrCorruptedGame)
	}

	if that.CurrentMove < 0 || that.CurrentMove >= len(that.History) {
		return fmt.Errorf("%w: current move %d outside history of %d", apperror.ErrCorruptedGame, that.CurrentMove, len(that.History))
	}

	if that.Scores.X < 0 || that.Scores.O < 0 || that.Scores.Ties < 0 {
		return fmt.Errorf("%w: negative scores", apperror.ErrCorruptedGame)
	}

	for i := 0; i+1 < len(that.History); i++ {
		prev, next := that.History[i], that.History[i+1]

		if Evaluate(prev).IsDecided() {
			return fmt.Errorf("%w: move %d played after the round was decided", apperror.ErrCorruptedGame, i+1)
		}

		index, ok := prev.diff(next)
		if !ok {
			return fmt.Errorf("%w: move %d must change exactly one cell", apperror.ErrCorruptedGame, i+1)
		}

		if prev[index] != EmptyCell || next[index] != TurnAt(i) {
			return fmt.Errorf("%w: move %d places %q on cell %d", apperror.ErrCorruptedGame, i+1, next[index], index)
		}
	}

	return nil
}
