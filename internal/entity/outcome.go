package entity

import "fmt"

// Outcome is the result of evaluating a board.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeWinX
	OutcomeWinO
	OutcomeDraw
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	PlayerTie = "-"
)

var WinCombos = [8][3]int{
	// rows
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	// columns
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	// diagonals
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate checks every winning line in a fixed order and returns the first
// completed one. A full board without a line is a draw.
func Evaluate(board Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return WinOutcome(a)
		}
	}

	// the game continues until all the cells are taken
	if !board.IsFull() {
		return OutcomeNone
	}

	return OutcomeDraw
}

// WinOutcome maps a mark to the outcome of that mark winning.
func WinOutcome(mark Cell) Outcome {
	switch mark {
	case MarkX:
		return OutcomeWinX
	case MarkO:
		return OutcomeWinO
	default:
		return OutcomeNone
	}
}

func (that Outcome) IsDecided() bool {
	return that != OutcomeNone
}

// Winner returns the winning mark, or EmptyCell for a draw or an open game.
func (that Outcome) Winner() Cell {
	switch that {
	case OutcomeWinX:
		return MarkX
	case OutcomeWinO:
		return MarkO
	default:
		return EmptyCell
	}
}

// Status returns the round status the outcome corresponds to.
func (that Outcome) Status() string {
	if that.IsDecided() {
		return StatusFinished
	}

	return StatusOngoing
}

func (that Outcome) String() string {
	switch that {
	case OutcomeWinX:
		return MarkX.String()
	case OutcomeWinO:
		return MarkO.String()
	case OutcomeDraw:
		return PlayerTie
	default:
		return ""
	}
}

func (that Outcome) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = OutcomeNone
	case "X":
		*that = OutcomeWinX
	case "O":
		*that = OutcomeWinO
	case PlayerTie:
		*that = OutcomeDraw
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}

	return nil
}

// Scores are the running tallies of decided rounds in one session.
type Scores struct {
	X    int `json:"x"`
	O    int `json:"o"`
	Ties int `json:"ties"`
}

// Record counts a decided outcome. OutcomeNone is ignored.
func (that *Scores) Record(outcome Outcome) {
	switch outcome {
	case OutcomeWinX:
		that.X++
	case OutcomeWinO:
		that.O++
	case OutcomeDraw:
		that.Ties++
	case OutcomeNone:
	}
}
