package entity

import (
	"errors"
	"fmt"
)

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	DefaultBoardSize = 3

	classicRun  = 3
	extendedRun = 5
)

var (
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrInvalidMark  = errors.New("invalid mark")
)

// directions are scanned in this order: rows, columns, diagonals, anti-diagonals.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// Board is a square grid stored row-major in a flat slice of Size*Size cells.
type Board struct {
	Size  int      `json:"size"`
	Cells []string `json:"cells"`
}

func NewBoard(size int) *Board {
	return &Board{
		Size:  size,
		Cells: make([]string, size*size),
	}
}

// TargetRun - number of consecutive marks needed to win on a board of the given size.
func TargetRun(size int) int {
	if size <= DefaultBoardSize {
		return classicRun
	}

	return extendedRun
}

// ValidBoardSize reports whether a board of this size can be played: the classic 3x3,
// or anything from 5x5 up to maxSize where a five-long run fits.
func ValidBoardSize(size, maxSize int) bool {
	if size == DefaultBoardSize {
		return true
	}

	return size >= extendedRun && size <= maxSize
}

func Opponent(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}

func (that *Board) TargetRun() int {
	return TargetRun(that.Size)
}

func (that *Board) InBounds(cell int) bool {
	return cell >= 0 && cell < len(that.Cells)
}

// Place - marks an empty cell. Occupied cells are never overwritten.
func (that *Board) Place(cell int, mark string) error {
	if mark != MarkX && mark != MarkO {
		return fmt.Errorf("%w: %q", ErrInvalidMark, mark)
	}

	if !that.InBounds(cell) {
		return fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if that.Cells[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d", ErrCellOccupied, cell)
	}

	that.Cells[cell] = mark

	return nil
}

func (that *Board) IsFull() bool {
	for _, cell := range that.Cells {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) Clear() {
	for i := range that.Cells {
		that.Cells[i] = EmptyCell
	}
}

// WinningLine returns the first run of TargetRun cells holding mark, or nil.
// Indices are returned in increasing board order.
func (that *Board) WinningLine(mark string) []int {
	if mark == EmptyCell {
		return nil
	}

	run := that.TargetRun()

	for _, dir := range directions {
		for row := 0; row < that.Size; row++ {
			for col := 0; col < that.Size; col++ {
				if line := that.lineFrom(row, col, dir, run, mark); line != nil {
					return line
				}
			}
		}
	}

	return nil
}

func (that *Board) lineFrom(row, col int, dir [2]int, run int, mark string) []int {
	endRow, endCol := row+dir[0]*(run-1), col+dir[1]*(run-1)
	if endRow < 0 || endRow >= that.Size || endCol < 0 || endCol >= that.Size {
		return nil
	}

	line := make([]int, 0, run)
	for step := 0; step < run; step++ {
		idx := (row+dir[0]*step)*that.Size + col + dir[1]*step
		if that.Cells[idx] != mark {
			return nil
		}
		line = append(line, idx)
	}

	return line
}
