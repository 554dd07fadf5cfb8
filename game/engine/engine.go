package engine

import "fmt"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	IsWon() bool

	// Play
	Select(pos Position) error
	Play(to Position) (*Result, error)
	ValidMoves() []Move

	// Level
	GetLevel() *Level

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; the service layer serializes access per session.
type GameEngine struct {
	state *GameState
	level *Level
}

// NewEngine creates a new game engine for the provided level
func NewEngine(level *Level) (*GameEngine, error) {
	if level == nil {
		return nil, fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}
	lvl := level.Clone()
	if err := lvl.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if err := ValidateLevel(lvl); err != nil {
		return nil, err
	}

	return &GameEngine{
		level: lvl,
		state: InitGameStateFromLevel(lvl),
	}, nil
}

// NewEngineWithDefaults creates a new game engine on the built-in level
func NewEngineWithDefaults() *GameEngine {
	lvl := DefaultLevel()
	return &GameEngine{level: lvl, state: InitGameStateFromLevel(lvl)}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if err := state.Board.Validate(); err != nil {
		return err
	}
	if state.Active != nil && !state.Board.At(*state.Active).HasPiece() {
		return fmt.Errorf("%w: active position %s is not occupied", ErrInvalidPrecondition, *state.Active)
	}
	if state.MoveHistory == nil {
		state.MoveHistory = []MoveHistoryEntry{}
	}
	if state.CurrentMoves == nil {
		state.CurrentMoves = []MoveHistoryEntry{}
	}
	e.state = state
	return nil
}

// Reset restores the level's starting board
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromLevel(e.level)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsGameOver returns whether the attempt is won or stuck
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// IsWon returns whether a single occupant remains
func (e *GameEngine) IsWon() bool {
	return e.state.Won
}

// GetLevel returns the level being played
func (e *GameEngine) GetLevel() *Level {
	return e.level
}

// Select makes the occupant at pos the active piece. Only allowed before the
// first move of the current attempt.
func (e *GameEngine) Select(pos Position) error {
	if e.state.CurrentMovesCount > 0 {
		return ErrSelectionLocked
	}
	if e.state.Won {
		return ErrGameOver
	}
	cell := e.state.Board.At(pos)
	if !e.state.Board.InBounds(pos) || !cell.HasPiece() {
		return fmt.Errorf("%w: no occupant at %s", ErrInvalidPrecondition, pos)
	}

	e.state.activate(pos)
	e.state.refresh()
	e.state.LastEffects = nil
	e.state.Message = fmt.Sprintf("%s selected at %s", cell.Piece, pos)
	if e.state.Stuck {
		e.state.Message = fmt.Sprintf("%s at %s has no moves", cell.Piece, pos)
	}
	return nil
}

// Play applies the offered move landing on to. On error the state is unchanged.
func (e *GameEngine) Play(to Position) (*Result, error) {
	s := e.state
	if s.GameOver {
		return nil, ErrGameOver
	}
	if s.Active == nil {
		return nil, fmt.Errorf("%w: no active occupant", ErrInvalidPrecondition)
	}
	m, ok := s.FindMove(to)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot reach %s", ErrIllegalMove, s.ActivePiece, to)
	}

	from := *s.Active
	mover := s.ActivePiece
	var captured PieceType
	if m.Capture {
		captured = s.Board.At(to).Piece
	}

	res, err := Apply(s.Board, from, m)
	if err != nil {
		return nil, err
	}

	s.Board = res.Board
	s.Active = res.Active
	s.ActivePiece = res.ActivePiece()
	s.ValidMoves = res.Moves
	eff := res.Effects
	s.LastEffects = &eff
	s.AddMoveToHistory(mover, from, m, captured, eff)
	s.refresh()

	switch {
	case s.Won:
		s.Stars = Rating(s.CurrentMovesCount, s.MinMoves)
		s.Message = fmt.Sprintf("Level cleared in %d moves! %d star(s)", s.CurrentMovesCount, s.Stars)
	case s.Stuck:
		s.Message = fmt.Sprintf("%s has no moves left with %d pieces on the board", s.ActivePiece, s.Remaining)
	default:
		s.Message = describeMove(mover, from, m, captured, eff)
	}

	return &res, nil
}

// ValidMoves returns the moves offered to the active occupant
func (e *GameEngine) ValidMoves() []Move {
	return e.state.ValidMoves
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

func describeMove(mover PieceType, from Position, m Move, captured PieceType, eff Effects) string {
	switch moveKind(m, eff) {
	case KindExplosion:
		return fmt.Sprintf("%s exploded at %s, %d pieces removed", captured, m.To, len(eff.Eliminated))
	case KindAbsorb:
		return fmt.Sprintf("%s absorbed %s and became it", mover, captured)
	case KindRanged:
		return fmt.Sprintf("%s shot %s at %s", mover, captured, m.To)
	case KindPush:
		return fmt.Sprintf("%s pushed %s to %s", mover, captured, eff.Pushed.To)
	case KindCapture:
		return fmt.Sprintf("%s captured %s at %s", mover, captured, m.To)
	default:
		return fmt.Sprintf("%s moved %s -> %s", mover, from, m.To)
	}
}
