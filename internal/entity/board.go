package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
)

// BoardSize is the number of cells on a 3x3 board.
const BoardSize = 9

// Cell holds the content of one board position.
type Cell uint8

const (
	EmptyCell Cell = iota
	MarkX
	MarkO
)

var ErrUnknownCell = errors.New("unknown cell value")

func (that Cell) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

func (that Cell) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*that = EmptyCell
	case "X":
		*that = MarkX
	case "O":
		*that = MarkO
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCell, text)
	}

	return nil
}

// Opponent returns the other mark. EmptyCell has no opponent.
func (that Cell) Opponent() Cell {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

// Board is a snapshot of the 3x3 grid stored row-major.
type Board [BoardSize]Cell

// UnmarshalJSON accepts exactly BoardSize cells.
func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: board has %d cells", apperror.ErrCorruptedGame, len(cells))
	}

	copy(that[:], cells)

	return nil
}

// With returns a copy of the board with the cell at index set to mark.
func (that Board) With(index int, mark Cell) Board {
	next := that
	next[index] = mark

	return next
}

func (that Board) IsEmpty() bool {
	return that == Board{}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Strings returns the text form of every cell, used by renderers.
func (that Board) Strings() []string {
	out := make([]string, len(that))
	for i, cell := range that {
		out[i] = cell.String()
	}

	return out
}

// diff reports the single index where next differs from the board.
// ok is false when the boards differ in zero or several cells.
func (that Board) diff(next Board) (index int, ok bool) {
	index = -1
	for i := range that {
		if that[i] == next[i] {
			continue
		}
		if index != -1 {
			return -1, false
		}
		index = i
	}

	return index, index != -1
}
