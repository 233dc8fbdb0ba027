// Package view turns engine state into what a client needs to draw one frame.
package view

import (
	"strconv"

	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
)

const firstMoveDescription = "Click on board to game start"

type Move struct {
	Move        int    `json:"move"`
	Description string `json:"description"`
	Current     bool   `json:"current"`
}

type Scores struct {
	X    int `json:"x"`
	O    int `json:"o"`
	Ties int `json:"ties"`
}

type Game struct {
	Board       []string `json:"board"`
	Turn        string   `json:"turn"`
	Outcome     string   `json:"outcome"`
	Status      string   `json:"status"`
	StatusText  string   `json:"status_text"`
	Scores      Scores   `json:"scores"`
	CurrentMove int      `json:"current_move"`
	Moves       []Move   `json:"moves"`
}

// NewGame renders the viewed snapshot of game.
func NewGame(game *entity.Game) *Game {
	outcome := game.CurrentOutcome()

	moves := make([]Move, len(game.History))
	for i := range game.History {
		moves[i] = Move{
			Move:        i,
			Description: MoveDescription(i),
			Current:     i == game.CurrentMove,
		}
	}

	return &Game{
		Board:       game.CurrentBoard().Strings(),
		Turn:        game.CurrentTurn().String(),
		Outcome:     outcome.String(),
		Status:      outcome.Status(),
		StatusText:  StatusText(outcome, game.CurrentTurn()),
		Scores:      Scores(game.Scores),
		CurrentMove: game.CurrentMove,
		Moves:       moves,
	}
}

// MoveDescription labels the history control for move.
func MoveDescription(move int) string {
	if move == 0 {
		return firstMoveDescription
	}

	return "Go to move #" + strconv.Itoa(move)
}

func StatusText(outcome entity.Outcome, turn entity.Cell) string {
	switch outcome {
	case entity.OutcomeDraw:
		return "TIE"
	case entity.OutcomeWinX, entity.OutcomeWinO:
		return "Winner: " + outcome.Winner().String()
	default:
		return turn.String() + " TURN"
	}
}
