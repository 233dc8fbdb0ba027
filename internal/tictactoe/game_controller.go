package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

// GameController applies moves, history jumps and resets to one game.
// It is not safe for concurrent use; callers serialise access per game.
type GameController struct {
	game *entity.Game
}

// NewGameController takes ownership of game. A nil game or one without
// history starts a fresh round.
func NewGameController(game *entity.Game) *GameController {
	if game == nil {
		game = entity.NewGame("")
	}

	if len(game.History) == 0 {
		game.History = []entity.Board{{}}
		game.CurrentMove = 0
	}

	return &GameController{game: game}
}

// PlayMove places the current turn's mark on cell, dropping any snapshots
// after the viewed one. A round decided by this move is scored once.
func (that *GameController) PlayMove(cell int) error {
	if err := that.validateMove(cell); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	next := that.game.CurrentBoard().With(cell, that.game.CurrentTurn())

	history := make([]entity.Board, that.game.CurrentMove+1, that.game.CurrentMove+2)
	copy(history, that.game.History[:that.game.CurrentMove+1])

	that.game.History = append(history, next)
	that.game.CurrentMove = len(that.game.History) - 1

	if outcome := entity.Evaluate(next); outcome.IsDecided() {
		that.game.Scores.Record(outcome)
	}

	return nil
}

// validateMove - checks if the move is valid.
func (that *GameController) validateMove(cell int) error {
	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidIndex, cell)
	}

	board := that.game.CurrentBoard()

	if board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	if entity.Evaluate(board).IsDecided() {
		return apperror.ErrGameFinished
	}

	return nil
}

// JumpTo views the snapshot after move plays. History and scores are kept.
func (that *GameController) JumpTo(move int) error {
	if move < 0 || move >= len(that.game.History) {
		return fmt.Errorf("%w: move %d of %d", apperror.ErrInvalidIndex, move, len(that.game.History))
	}

	that.game.CurrentMove = move

	return nil
}

// Reset starts a new round. Scores carry over.
func (that *GameController) Reset() {
	that.game.History = []entity.Board{{}}
	that.game.CurrentMove = 0
}

func (that *GameController) Game() *entity.Game {
	return that.game
}

func (that *GameController) CurrentBoard() entity.Board {
	return that.game.CurrentBoard()
}

func (that *GameController) CurrentMove() int {
	return that.game.CurrentMove
}

func (that *GameController) CurrentTurn() entity.Cell {
	return that.game.CurrentTurn()
}

func (that *GameController) CurrentOutcome() entity.Outcome {
	return that.game.CurrentOutcome()
}

func (that *GameController) Scores() entity.Scores {
	return that.game.Scores
}

// History returns a copy of every snapshot of the round.
func (that *GameController) History() []entity.Board {
	return append([]entity.Board(nil), that.game.History...)
}
