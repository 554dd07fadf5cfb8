package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	emptyGlyph    = '.'
	disabledGlyph = '#'
)

// Board is an immutable rectangular grid of cells addressed row-major.
// Every method that changes a cell returns a new Board; the receiver is never
// modified, so a Board can be shared freely between callers.
type Board struct {
	width  int
	height int
	cells  []Cell
}

// NewBoard creates an empty board of the given dimensions
func NewBoard(width, height int) (Board, error) {
	if width <= 0 || height <= 0 {
		return Board{}, fmt.Errorf("%w: dimensions %dx%d", ErrMalformedBoard, width, height)
	}
	return Board{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}, nil
}

// BoardFromRows builds a board from row slices, rejecting ragged or empty input
func BoardFromRows(rows [][]Cell) (Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Board{}, fmt.Errorf("%w: board has no cells", ErrMalformedBoard)
	}
	width := len(rows[0])
	b := Board{
		width:  width,
		height: len(rows),
		cells:  make([]Cell, 0, width*len(rows)),
	}
	for i, row := range rows {
		if len(row) != width {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrMalformedBoard, i, len(row), width)
		}
		b.cells = append(b.cells, row...)
	}
	return b, nil
}

// ParseLayout builds a board from glyph rows: '.' empty, '#' disabled and one
// letter per piece type (see Rule.Glyph). Spaces are ignored.
func ParseLayout(rows []string) (Board, error) {
	cells := make([][]Cell, 0, len(rows))
	for i, row := range rows {
		line := make([]Cell, 0, len(row))
		for _, r := range strings.ReplaceAll(row, " ", "") {
			c, ok := cellForGlyph(r)
			if !ok {
				return Board{}, fmt.Errorf("%w: invalid glyph '%c' in row %d", ErrMalformedBoard, r, i)
			}
			line = append(line, c)
		}
		cells = append(cells, line)
	}
	return BoardFromRows(cells)
}

// MustParseLayout is ParseLayout for fixed layouts known to be valid
func MustParseLayout(rows ...string) Board {
	b, err := ParseLayout(rows)
	if err != nil {
		panic(err)
	}
	return b
}

func cellForGlyph(r rune) (Cell, bool) {
	switch r {
	case emptyGlyph:
		return EmptyCell(), true
	case disabledGlyph:
		return DisabledCell(), true
	}
	for _, rule := range rules {
		if rule.Glyph == r {
			return PieceCell(rule.Piece), true
		}
	}
	return Cell{}, false
}

// Glyph returns the layout character for a cell
func (c Cell) Glyph() rune {
	switch c.Kind {
	case KindOccupied:
		if rule, ok := RuleFor(c.Piece); ok {
			return rule.Glyph
		}
		return '?'
	case KindDisabled:
		return disabledGlyph
	default:
		return emptyGlyph
	}
}

// Validate reports ErrMalformedBoard for the zero Board or inconsistent dimensions
func (b Board) Validate() error {
	if b.width <= 0 || b.height <= 0 || len(b.cells) != b.width*b.height {
		return fmt.Errorf("%w: %dx%d board with %d cells", ErrMalformedBoard, b.width, b.height, len(b.cells))
	}
	return nil
}

func (b Board) Width() int  { return b.width }
func (b Board) Height() int { return b.height }

// InBounds reports whether p addresses a cell of the board
func (b Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.height && p.Col >= 0 && p.Col < b.width
}

// At returns the cell at p. Off-board positions read as disabled, which is
// how every rule treats the board edge.
func (b Board) At(p Position) Cell {
	if !b.InBounds(p) {
		return DisabledCell()
	}
	return b.cells[p.Row*b.width+p.Col]
}

// With returns a copy of the board with the cell at p replaced
func (b Board) With(p Position, c Cell) Board {
	next := b.Clone()
	next.set(p, c)
	return next
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	cells := make([]Cell, len(b.cells))
	copy(cells, b.cells)
	return Board{width: b.width, height: b.height, cells: cells}
}

// set mutates the receiver and is only used on boards the engine just cloned
func (b *Board) set(p Position, c Cell) {
	if b.InBounds(p) {
		b.cells[p.Row*b.width+p.Col] = c
	}
}

// Rows returns a fresh row-major copy of the cells
func (b Board) Rows() [][]Cell {
	rows := make([][]Cell, b.height)
	for r := range rows {
		rows[r] = make([]Cell, b.width)
		copy(rows[r], b.cells[r*b.width:(r+1)*b.width])
	}
	return rows
}

// Occupants counts cells holding a piece
func (b Board) Occupants() int {
	count := 0
	for _, c := range b.cells {
		if c.HasPiece() {
			count++
		}
	}
	return count
}

// Positions returns every occupied position in row-major order
func (b Board) Positions() []Position {
	var out []Position
	for i, c := range b.cells {
		if c.HasPiece() {
			out = append(out, Position{Row: i / b.width, Col: i % b.width})
		}
	}
	return out
}

// Equal reports whether both boards have the same dimensions and cells
func (b Board) Equal(other Board) bool {
	if b.width != other.width || b.height != other.height || len(b.cells) != len(other.cells) {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Layout renders the board as glyph rows, the inverse of ParseLayout
func (b Board) Layout() []string {
	rows := make([]string, b.height)
	for r := 0; r < b.height; r++ {
		var sb strings.Builder
		for c := 0; c < b.width; c++ {
			sb.WriteRune(b.cells[r*b.width+c].Glyph())
		}
		rows[r] = sb.String()
	}
	return rows
}

func (b Board) String() string {
	return strings.Join(b.Layout(), "\n")
}

// MarshalJSON encodes the board as an array of rows
func (b Board) MarshalJSON() ([]byte, error) {
	if b.width == 0 && b.height == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(b.Rows())
}

// UnmarshalJSON decodes an array of rows and rejects malformed grids
func (b *Board) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*b = Board{}
		return nil
	}
	var rows [][]Cell
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	parsed, err := BoardFromRows(rows)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
