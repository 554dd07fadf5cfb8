package engine

import (
	"fmt"
	"strings"
)

// PieceType is the closed set of occupant types a cell can hold
type PieceType uint8

const (
	NoPiece PieceType = iota
	Ghost
	Bat
	Zombie
	Frankenstein
	Vampire
	Spider
	Web
	Skull
	Cat
	Witch
	Broom
	Hand
	Tombstone
	Moon

	pieceCount
)

var pieceNames = [pieceCount]string{
	NoPiece:      "",
	Ghost:        "GHOST",
	Bat:          "BAT",
	Zombie:       "ZOMBIE",
	Frankenstein: "FRANKENSTEIN",
	Vampire:      "VAMPIRE",
	Spider:       "SPIDER",
	Web:          "WEB",
	Skull:        "SKULL",
	Cat:          "CAT",
	Witch:        "WITCH",
	Broom:        "BROOM",
	Hand:         "HAND",
	Tombstone:    "TOMBSTONE",
	Moon:         "MOON",
}

const (
	// Validation constants. The level editor offers 4..12; stored levels
	// may go down to 3 so small hand-written puzzles load.
	MinBoardSize = 3
	MaxBoardSize = 12
	MaxBulkMoves = 50

	disabledName = "DISABLED"
)

// Valid reports whether p is one of the playable piece types
func (p PieceType) Valid() bool {
	return p > NoPiece && p < pieceCount
}

func (p PieceType) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PieceType(%d)", uint8(p))
	}
	return pieceNames[p]
}

// MarshalText encodes the piece as its upper-case name
func (p PieceType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown piece type %d", uint8(p))
	}
	return []byte(pieceNames[p]), nil
}

// UnmarshalText decodes a piece name, case-insensitively
func (p *PieceType) UnmarshalText(text []byte) error {
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePieceType resolves a piece name such as "GHOST" or "ghost"
func ParsePieceType(name string) (PieceType, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for p := Ghost; p < pieceCount; p++ {
		if pieceNames[p] == upper {
			return p, nil
		}
	}
	return NoPiece, fmt.Errorf("unknown piece type %q", name)
}

// CellKind distinguishes empty, occupied and disabled cells
type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindOccupied
	KindDisabled
)

// Cell is the state of a single board square. The zero value is an empty cell.
type Cell struct {
	Kind  CellKind
	Piece PieceType
}

// EmptyCell returns an empty, passable cell
func EmptyCell() Cell { return Cell{Kind: KindEmpty} }

// DisabledCell returns a permanently impassable cell
func DisabledCell() Cell { return Cell{Kind: KindDisabled} }

// PieceCell returns a cell holding one occupant of type p
func PieceCell(p PieceType) Cell { return Cell{Kind: KindOccupied, Piece: p} }

func (c Cell) IsEmpty() bool    { return c.Kind == KindEmpty }
func (c Cell) IsDisabled() bool { return c.Kind == KindDisabled }
func (c Cell) HasPiece() bool   { return c.Kind == KindOccupied }

func (c Cell) String() string {
	switch c.Kind {
	case KindOccupied:
		return c.Piece.String()
	case KindDisabled:
		return disabledName
	default:
		return "EMPTY"
	}
}

// MarshalJSON writes null for empty cells, "DISABLED", or the piece name
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindDisabled:
		return []byte(`"` + disabledName + `"`), nil
	case KindOccupied:
		if !c.Piece.Valid() {
			return nil, fmt.Errorf("occupied cell with unknown piece type %d", uint8(c.Piece))
		}
		return []byte(`"` + pieceNames[c.Piece] + `"`), nil
	}
	return nil, fmt.Errorf("unknown cell kind %d", uint8(c.Kind))
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON
func (c *Cell) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = EmptyCell()
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid cell value %s", s)
	}
	parsed, err := ParseCell(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCell maps a cell name to a Cell: "" or "EMPTY" for empty,
// "DISABLED", or a piece name.
func ParseCell(name string) (Cell, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "EMPTY", "NULL":
		return EmptyCell(), nil
	case disabledName:
		return DisabledCell(), nil
	}
	p, err := ParsePieceType(name)
	if err != nil {
		return Cell{}, err
	}
	return PieceCell(p), nil
}

// Position is a (row, column) board coordinate
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Offset is a (row, column) displacement
type Offset struct {
	DR int `json:"dr"`
	DC int `json:"dc"`
}

// Add returns the position displaced by o
func (p Position) Add(o Offset) Position {
	return Position{Row: p.Row + o.DR, Col: p.Col + o.DC}
}

// Sub returns the offset leading from q to p
func (p Position) Sub(q Position) Offset {
	return Offset{DR: p.Row - q.Row, DC: p.Col - q.Col}
}

// Scale multiplies the offset by n
func (o Offset) Scale(n int) Offset {
	return Offset{DR: o.DR * n, DC: o.DC * n}
}

// Adjacent reports whether q is within one cell of p on both axes
func (p Position) Adjacent(q Position) bool {
	return abs(p.Row-q.Row) <= 1 && abs(p.Col-q.Col) <= 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Move is a legal destination for the active occupant
type Move struct {
	To              Position `json:"to"`
	Capture         bool     `json:"has_piece"`
	Pierce          bool     `json:"pierce,omitempty"`
	DistanceCapture bool     `json:"distance_capture,omitempty"`
	Push            bool     `json:"push,omitempty"`
}

func (m Move) String() string {
	var flags []string
	if m.Capture {
		flags = append(flags, "capture")
	}
	if m.Pierce {
		flags = append(flags, "pierce")
	}
	if m.DistanceCapture {
		flags = append(flags, "ranged")
	}
	if m.Push {
		flags = append(flags, "push")
	}
	if len(flags) == 0 {
		return m.To.String()
	}
	return m.To.String() + "[" + strings.Join(flags, ",") + "]"
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
