package engine

import "fmt"

// Displacement records an occupant changing cells
type Displacement struct {
	From  Position  `json:"from"`
	To    Position  `json:"to"`
	Piece PieceType `json:"piece"`
}

// Elimination records an occupant removed from the board
type Elimination struct {
	At    Position  `json:"at"`
	Piece PieceType `json:"piece"`
}

// Transformation records an occupant changing type in place
type Transformation struct {
	At   Position  `json:"at"`
	From PieceType `json:"from"`
	To   PieceType `json:"to"`
}

// Effects describes what a move changed so a presentation layer can animate it
type Effects struct {
	Moved       *Displacement   `json:"moved,omitempty"`
	Eliminated  []Elimination   `json:"eliminated,omitempty"`
	Pushed      *Displacement   `json:"pushed,omitempty"`
	Explosion   *Position       `json:"explosion,omitempty"`
	Transformed *Transformation `json:"transformed,omitempty"`
}

// Result is the outcome of applying one move
type Result struct {
	Board   Board     `json:"board"`
	Active  *Position `json:"active,omitempty"`
	Moves   []Move    `json:"moves"`
	Effects Effects   `json:"effects"`
}

// ActivePiece returns the type of the new active occupant
func (r Result) ActivePiece() PieceType {
	if r.Active == nil {
		return NoPiece
	}
	return r.Board.At(*r.Active).Piece
}

// Apply executes m for the occupant at active and returns the next board, the
// next active position and its legal moves. m must be one of the moves
// Generate offers for active; anything else is rejected with ErrIllegalMove
// and no result. The input board is never modified.
func Apply(b Board, active Position, m Move) (Result, error) {
	if err := b.Validate(); err != nil {
		return Result{}, err
	}
	mover := b.At(active)
	if !b.InBounds(active) || !mover.HasPiece() {
		return Result{}, fmt.Errorf("%w: no occupant at %s", ErrInvalidPrecondition, active)
	}
	legal, err := Generate(b, active, mover.Piece)
	if err != nil {
		return Result{}, err
	}
	if !containsMove(legal, m) {
		return Result{}, fmt.Errorf("%w: %s cannot reach %s", ErrIllegalMove, mover.Piece, m)
	}

	moverRule := rules[mover.Piece]
	target := b.At(m.To)
	next := b.Clone()

	switch {
	case m.Capture && rules[target.Piece].Capture == CaptureExplode:
		return explode(next, active, mover.Piece, m.To, target.Piece)
	case m.Capture && moverRule.Capture == CaptureSwapAbsorb:
		return absorb(next, active, mover.Piece, m.To, target.Piece)
	case m.DistanceCapture:
		return rangedCapture(next, active, mover.Piece, m.To, target.Piece)
	case m.Push:
		return push(next, active, mover.Piece, m.To, target.Piece)
	case moverRule.Capture == CaptureStayInPlace:
		// Resolves exactly like a plain capture.
		return plainMove(next, active, mover.Piece, m, target.Piece)
	default:
		return plainMove(next, active, mover.Piece, m, target.Piece)
	}
}

// IsWon reports whether exactly one occupant remains on the board
func IsWon(b Board) bool {
	return b.Occupants() == 1
}

// explode removes the mover, then every occupant around the captured piece.
// The exploding piece stays and becomes active.
func explode(next Board, origin Position, mover PieceType, at Position, exploding PieceType) (Result, error) {
	eff := Effects{
		Eliminated: []Elimination{{At: origin, Piece: mover}},
		Explosion:  &at,
	}
	next.set(origin, EmptyCell())
	for _, d := range kingDirections {
		adj := at.Add(d)
		if c := next.At(adj); c.HasPiece() {
			next.set(adj, EmptyCell())
			eff.Eliminated = append(eff.Eliminated, Elimination{At: adj, Piece: c.Piece})
		}
	}
	return finish(next, at, exploding, eff)
}

// absorb turns the mover into the captured type at its origin and empties the target
func absorb(next Board, origin Position, mover PieceType, at Position, captured PieceType) (Result, error) {
	next.set(origin, PieceCell(captured))
	next.set(at, EmptyCell())
	eff := Effects{
		Eliminated:  []Elimination{{At: at, Piece: captured}},
		Transformed: &Transformation{At: origin, From: mover, To: captured},
	}
	return finish(next, origin, captured, eff)
}

// rangedCapture removes the target while the mover stays put
func rangedCapture(next Board, origin Position, mover PieceType, at Position, captured PieceType) (Result, error) {
	next.set(at, EmptyCell())
	eff := Effects{Eliminated: []Elimination{{At: at, Piece: captured}}}
	return finish(next, origin, mover, eff)
}

// push shoves the target one cell along the move direction and steps into its cell
func push(next Board, origin Position, mover PieceType, at Position, pushed PieceType) (Result, error) {
	landing := at.Add(at.Sub(origin))
	next.set(landing, PieceCell(pushed))
	next.set(at, PieceCell(mover))
	next.set(origin, EmptyCell())
	eff := Effects{
		Moved:  &Displacement{From: origin, To: at, Piece: mover},
		Pushed: &Displacement{From: at, To: landing, Piece: pushed},
	}
	return finish(next, at, mover, eff)
}

// plainMove relocates the mover, eliminating whatever occupied the destination
func plainMove(next Board, origin Position, mover PieceType, m Move, captured PieceType) (Result, error) {
	next.set(origin, EmptyCell())
	next.set(m.To, PieceCell(mover))
	eff := Effects{Moved: &Displacement{From: origin, To: m.To, Piece: mover}}
	if m.Capture {
		eff.Eliminated = []Elimination{{At: m.To, Piece: captured}}
	}
	return finish(next, m.To, mover, eff)
}

func finish(next Board, active Position, piece PieceType, eff Effects) (Result, error) {
	moves, err := generate(next, active, rules[piece])
	if err != nil {
		return Result{}, err
	}
	return Result{Board: next, Active: &active, Moves: moves, Effects: eff}, nil
}

func containsMove(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}
