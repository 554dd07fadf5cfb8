package engine

import "fmt"

// Generate lists the legal destinations of the occupant of type piece at from.
// Moves come out direction by direction in rule-table order and, along rays,
// by increasing distance. The result is never nil on success.
func Generate(b Board, from Position, piece PieceType) ([]Move, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	rule, ok := RuleFor(piece)
	if !ok {
		return nil, fmt.Errorf("%w: unknown piece type %d", ErrInvalidPrecondition, uint8(piece))
	}
	if !b.InBounds(from) {
		return nil, fmt.Errorf("%w: %s is outside the %dx%d board", ErrInvalidPrecondition, from, b.width, b.height)
	}
	if cell := b.At(from); !cell.HasPiece() || cell.Piece != piece {
		return nil, fmt.Errorf("%w: %s holds %s, not %s", ErrInvalidPrecondition, from, cell, piece)
	}
	return generate(b, from, rule)
}

// generate dispatches on the rule geometry; preconditions are already checked
func generate(b Board, from Position, rule Rule) ([]Move, error) {
	switch rule.Geometry {
	case GeometryStep, GeometryLeap:
		return offsetMoves(b, from, rule.Directions), nil
	case GeometryRay:
		return rayMoves(b, from, rule.Directions), nil
	case GeometryRayToEnd:
		return rayToEndMoves(b, from, rule.Directions), nil
	case GeometryTeleport:
		return teleportMoves(b, from), nil
	case GeometryDistance:
		return distanceMoves(b, from, rule.Directions, rule.MinRange, rule.MaxRange), nil
	case GeometryPierceRay:
		return pierceMoves(b, from, rule.Directions), nil
	case GeometryPushStep:
		return pushMoves(b, from, rule.Directions), nil
	}
	return nil, fmt.Errorf("%w: no move generator for geometry %s of %s", ErrInvalidPrecondition, rule.Geometry, rule.Piece)
}

// open reports whether a move may land on or travel through p
func open(b Board, p Position) bool {
	return b.InBounds(p) && !b.At(p).IsDisabled()
}

func offsetMoves(b Board, from Position, offsets []Offset) []Move {
	moves := make([]Move, 0, len(offsets))
	for _, o := range offsets {
		to := from.Add(o)
		if !open(b, to) {
			continue
		}
		moves = append(moves, Move{To: to, Capture: b.At(to).HasPiece()})
	}
	return moves
}

func rayMoves(b Board, from Position, dirs []Offset) []Move {
	moves := make([]Move, 0, len(dirs)*2)
	for _, d := range dirs {
		for to := from.Add(d); open(b, to); to = to.Add(d) {
			occupied := b.At(to).HasPiece()
			moves = append(moves, Move{To: to, Capture: occupied})
			if occupied {
				break
			}
		}
	}
	return moves
}

func rayToEndMoves(b Board, from Position, dirs []Offset) []Move {
	moves := make([]Move, 0, len(dirs))
	for _, d := range dirs {
		var last *Move
		for to := from.Add(d); open(b, to); to = to.Add(d) {
			m := Move{To: to, Capture: b.At(to).HasPiece()}
			last = &m
			if m.Capture {
				break
			}
		}
		if last != nil {
			moves = append(moves, *last)
		}
	}
	return moves
}

// teleportMoves scans the whole board; captures must stay adjacent
func teleportMoves(b Board, from Position) []Move {
	moves := make([]Move, 0, b.width*b.height)
	for row := 0; row < b.height; row++ {
		for col := 0; col < b.width; col++ {
			to := Position{Row: row, Col: col}
			if to == from {
				continue
			}
			cell := b.At(to)
			if cell.IsDisabled() {
				continue
			}
			if cell.HasPiece() && !from.Adjacent(to) {
				continue
			}
			moves = append(moves, Move{To: to, Capture: cell.HasPiece()})
		}
	}
	return moves
}

// distanceMoves only targets occupants at exactly minRange..maxRange cells away.
// Cells in between are not inspected.
func distanceMoves(b Board, from Position, dirs []Offset, minRange, maxRange int) []Move {
	moves := make([]Move, 0, len(dirs))
	for _, d := range dirs {
		for dist := minRange; dist <= maxRange; dist++ {
			to := from.Add(d.Scale(dist))
			if open(b, to) && b.At(to).HasPiece() {
				moves = append(moves, Move{To: to, Capture: true, DistanceCapture: true})
			}
		}
	}
	return moves
}

// pierceMoves slides past at most one occupant; a second occupant ends the ray
func pierceMoves(b Board, from Position, dirs []Offset) []Move {
	moves := make([]Move, 0, len(dirs)*2)
	for _, d := range dirs {
		pierced := false
		for to := from.Add(d); open(b, to); to = to.Add(d) {
			if b.At(to).HasPiece() {
				if pierced {
					break
				}
				moves = append(moves, Move{To: to, Capture: true})
				pierced = true
				continue
			}
			moves = append(moves, Move{To: to, Pierce: pierced})
		}
	}
	return moves
}

// pushMoves steps one cell; an occupied step is legal only if the cell beyond is free
func pushMoves(b Board, from Position, dirs []Offset) []Move {
	moves := make([]Move, 0, len(dirs))
	for _, d := range dirs {
		to := from.Add(d)
		if !open(b, to) {
			continue
		}
		if !b.At(to).HasPiece() {
			moves = append(moves, Move{To: to})
			continue
		}
		landing := to.Add(d)
		if open(b, landing) && b.At(landing).IsEmpty() {
			moves = append(moves, Move{To: to, Capture: true, Push: true})
		}
	}
	return moves
}
