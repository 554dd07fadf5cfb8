package engine

import (
	"fmt"
	"strings"
)

// Level is a puzzle definition as imported and exported by the level editor.
// Either Board or Layout describes the grid; Normalize resolves Layout.
type Level struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	BoardSize   int      `json:"boardSize,omitempty" yaml:"boardSize,omitempty"` // Legacy: square size used when width/height are missing
	BoardWidth  int      `json:"boardWidth,omitempty" yaml:"boardWidth,omitempty"`
	BoardHeight int      `json:"boardHeight,omitempty" yaml:"boardHeight,omitempty"`
	Board       Board    `json:"board" yaml:"-"`
	Layout      []string `json:"layout,omitempty" yaml:"layout,omitempty"`
	MinMoves    int      `json:"minMoves,omitempty" yaml:"minMoves,omitempty"`
}

// Dimensions returns the declared width and height, falling back to BoardSize
func (l *Level) Dimensions() (width, height int) {
	width, height = l.BoardWidth, l.BoardHeight
	if width == 0 {
		width = l.BoardSize
	}
	if height == 0 {
		height = l.BoardSize
	}
	return width, height
}

// Normalize builds Board from Layout when only a layout is present and fills
// missing dimensions from the board.
func (l *Level) Normalize() error {
	if l.Board.Validate() != nil && len(l.Layout) > 0 {
		b, err := ParseLayout(l.Layout)
		if err != nil {
			return fmt.Errorf("level %s: %w", l.ID, err)
		}
		l.Board = b
	}
	if l.Board.Validate() != nil {
		return nil
	}
	if l.BoardWidth == 0 && l.BoardHeight == 0 && l.BoardSize == 0 {
		l.BoardWidth = l.Board.Width()
		l.BoardHeight = l.Board.Height()
	}
	return nil
}

// Clone returns a copy of the level that shares no board storage
func (l *Level) Clone() *Level {
	c := *l
	c.Board = l.Board.Clone()
	if l.Layout != nil {
		c.Layout = append([]string(nil), l.Layout...)
	}
	return &c
}

// ValidateLevel validates a level definition for correctness and playability
func ValidateLevel(level *Level) error {
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}
	if strings.TrimSpace(level.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidLevel)
	}
	if strings.TrimSpace(level.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLevel)
	}
	if err := level.Board.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	b := level.Board
	if b.Width() < MinBoardSize || b.Width() > MaxBoardSize {
		return fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidLevel, MinBoardSize, MaxBoardSize, b.Width())
	}
	if b.Height() < MinBoardSize || b.Height() > MaxBoardSize {
		return fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidLevel, MinBoardSize, MaxBoardSize, b.Height())
	}
	if width, height := level.Dimensions(); (width != 0 || height != 0) && (width != b.Width() || height != b.Height()) {
		return fmt.Errorf("%w: declared size %dx%d does not match board %dx%d", ErrInvalidLevel, width, height, b.Width(), b.Height())
	}
	if level.MinMoves < 0 {
		return fmt.Errorf("%w: minMoves cannot be negative, got %d", ErrInvalidLevel, level.MinMoves)
	}
	if n := b.Occupants(); n < 2 {
		return fmt.Errorf("%w: board needs at least two occupants, got %d", ErrInvalidLevel, n)
	}
	return nil
}

// DefaultLevel returns the built-in level used when no level files are available
func DefaultLevel() *Level {
	return &Level{
		ID:          "level-1",
		Name:        "First steps",
		BoardWidth:  4,
		BoardHeight: 4,
		MinMoves:    1,
		Board: MustParseLayout(
			"G...",
			".Z..",
			"....",
			"....",
		),
	}
}

// StartPosition picks the occupant a fresh attempt begins with: the first
// ghost in row-major order, otherwise the first occupant of any type.
func StartPosition(b Board) (Position, bool) {
	occupied := b.Positions()
	for _, p := range occupied {
		if b.At(p).Piece == Ghost {
			return p, true
		}
	}
	if len(occupied) > 0 {
		return occupied[0], true
	}
	return Position{}, false
}

// Rating converts a winning move count into 1 to 3 stars relative to minMoves.
// Levels without a target are rated against 3 moves.
func Rating(moves, minMoves int) int {
	if minMoves <= 0 {
		minMoves = 3
	}
	switch {
	case moves <= minMoves:
		return 3
	case moves <= minMoves+2:
		return 2
	default:
		return 1
	}
}
