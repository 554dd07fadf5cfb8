package engine

// CountPieces counts the occupants of each type on the board
func CountPieces(b Board) map[PieceType]int {
	counts := make(map[PieceType]int)
	for _, p := range b.Positions() {
		counts[b.At(p).Piece]++
	}
	return counts
}

// CountDisabled counts the disabled cells of the board
func CountDisabled(b Board) int {
	count := 0
	for _, c := range b.cells {
		if c.IsDisabled() {
			count++
		}
	}
	return count
}

// ChebyshevDistance is the number of king steps between two positions
func ChebyshevDistance(from, to Position) int {
	dr := abs(from.Row - to.Row)
	dc := abs(from.Col - to.Col)
	if dr > dc {
		return dr
	}
	return dc
}

// CaptureTargets returns the positions among moves that remove an occupant
func CaptureTargets(moves []Move) []Position {
	var out []Position
	for _, m := range moves {
		if m.Capture && !m.Push {
			out = append(out, m.To)
		}
	}
	return out
}
