package entity

import (
	"encoding/json"
	"fmt"
)

const (
	MarkX = "X"
	MarkO = "O"

	// ResultDraw is the winner value sent when the board fills with no line.
	ResultDraw = "draw"

	EmptyCell = ""
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid in row-major order: indices 0-8 map left-to-right,
// top-to-bottom. A cell holds MarkX, MarkO or EmptyCell.
type Board [9]string

// Winner - returns the mark occupying a full row, column or diagonal,
// or EmptyCell if no line is complete.
func (that Board) Winner() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

// IsFull - reports whether every cell is occupied, independent of a winner.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// MarshalJSON - serializes empty cells as null, matching the wire format
// clients expect: ["X","O",null,...].
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, len(that))
	for i := range that {
		if that[i] == EmptyCell {
			continue
		}

		mark := that[i]
		cells[i] = &mark
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if len(cells) != len(that) {
		return fmt.Errorf("board must have %d cells, got %d", len(that), len(cells))
	}

	for i, cell := range cells {
		if cell == nil {
			that[i] = EmptyCell
			continue
		}

		that[i] = *cell
	}

	return nil
}
