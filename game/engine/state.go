package engine

import "time"

// Move kinds recorded in history
const (
	KindMove      = "move"
	KindCapture   = "capture"
	KindRanged    = "ranged"
	KindPush      = "push"
	KindAbsorb    = "absorb"
	KindExplosion = "explosion"
)

// GameState is the complete state of one attempt at a level
type GameState struct {
	LevelID     string    `json:"level_id"`
	LevelName   string    `json:"level_name"`
	Board       Board     `json:"board"`
	Active      *Position `json:"active,omitempty"`
	ActivePiece PieceType `json:"active_piece,omitempty"`
	ValidMoves  []Move    `json:"valid_moves"`
	Remaining   int       `json:"remaining"`
	MinMoves    int       `json:"min_moves,omitempty"`
	Message     string    `json:"message"`
	Won         bool      `json:"won"`
	Stuck       bool      `json:"stuck"`
	GameOver    bool      `json:"game_over"`
	Stars       int       `json:"stars,omitempty"`
	LastEffects *Effects  `json:"last_effects,omitempty"`

	// MoveHistory is cumulative across resets; CurrentMoves only covers the
	// attempt in progress and is what the star rating counts.
	MoveHistory       []MoveHistoryEntry `json:"move_history"`
	TotalMoves        int                `json:"total_moves"`
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single executed move
type MoveHistoryEntry struct {
	Kind       string    `json:"kind"`
	Piece      PieceType `json:"piece"`
	From       Position  `json:"from"`
	To         Position  `json:"to"`
	Captured   PieceType `json:"captured,omitempty"`
	Eliminated int       `json:"eliminated"`
	Remaining  int       `json:"remaining"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}

// InitGameStateFromLevel creates the starting state of an attempt
func InitGameStateFromLevel(level *Level) *GameState {
	state := &GameState{
		LevelID:      level.ID,
		LevelName:    level.Name,
		Board:        level.Board.Clone(),
		MinMoves:     level.MinMoves,
		Message:      "Capture until a single piece remains.",
		MoveHistory:  []MoveHistoryEntry{},
		CurrentMoves: []MoveHistoryEntry{},
	}
	if start, ok := StartPosition(state.Board); ok {
		state.activate(start)
	} else {
		state.ValidMoves = []Move{}
	}
	state.refresh()
	return state
}

// activate makes the occupant at p the active one
func (gs *GameState) activate(p Position) {
	piece := gs.Board.At(p).Piece
	moves, err := Generate(gs.Board, p, piece)
	if err != nil {
		moves = []Move{}
	}
	gs.Active = &p
	gs.ActivePiece = piece
	gs.ValidMoves = moves
}

// refresh recomputes the derived status fields after a board change
func (gs *GameState) refresh() {
	gs.Remaining = gs.Board.Occupants()
	gs.Won = IsWon(gs.Board)
	gs.Stuck = !gs.Won && len(gs.ValidMoves) == 0
	gs.GameOver = gs.Won || gs.Stuck
	if gs.Won {
		gs.ValidMoves = []Move{}
	}
}

// FindMove returns the offered move landing on to
func (gs *GameState) FindMove(to Position) (Move, bool) {
	for _, m := range gs.ValidMoves {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}

// AddMoveToHistory records an applied move in both history views
func (gs *GameState) AddMoveToHistory(piece PieceType, from Position, m Move, captured PieceType, eff Effects) {
	entry := MoveHistoryEntry{
		Kind:       moveKind(m, eff),
		Piece:      piece,
		From:       from,
		To:         m.To,
		Captured:   captured,
		Eliminated: len(eff.Eliminated),
		Remaining:  gs.Board.Occupants(),
		Timestamp:  time.Now().Unix(),
		MoveNumber: gs.TotalMoves + 1,
	}
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}

func moveKind(m Move, eff Effects) string {
	switch {
	case eff.Explosion != nil:
		return KindExplosion
	case eff.Transformed != nil:
		return KindAbsorb
	case m.DistanceCapture:
		return KindRanged
	case m.Push:
		return KindPush
	case m.Capture:
		return KindCapture
	default:
		return KindMove
	}
}
