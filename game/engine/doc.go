// Package engine provides the core rules of the Haunted Board puzzle.
//
// A level is a rectangular board of empty, disabled and occupied cells. The
// player controls one occupant at a time and must capture until a single
// piece remains. Every capture hands control to the piece that made it (or,
// for special pieces, to the piece the rules designate).
//
// The package is split in two layers:
//   - a pure rule engine: Board, the piece rule table (RuleFor), the move
//     generator (Generate) and the move executor (Apply). It never mutates
//     its input and returns structured Effects for the presentation layer.
//   - a play engine: GameEngine wraps one attempt at a Level with history,
//     victory and stuck detection and a star rating.
//
// Usage:
//
//	level := engine.DefaultLevel()
//	game, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := game.Play(engine.Position{Row: 1, Col: 1})
//	if errors.Is(err, engine.ErrIllegalMove) {
//		// ignore the click
//	}
//	state := game.GetState()
//
// Boards can also be written as glyph layouts for tests and level files:
//
//	b := engine.MustParseLayout(
//		"G.#",
//		".Z.",
//		"..H",
//	)
package engine
