// Package levels loads and stores puzzle levels for the Haunted Board game.
//
// Levels live as files in a directory, one level per file, named after the
// level id:
//   - <id>.json uses the editor export format: id, name, boardWidth,
//     boardHeight (or the legacy boardSize), board as rows of cell names
//     (null for empty, "DISABLED", or a piece name such as "GHOST") and
//     minMoves. A "layout" of glyph rows may replace the board.
//   - <id>.yaml / <id>.yml carry the same keys; empty cells are written as ~.
//
// Usage:
//
//	manager, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("level-3")
//	infos, err := manager.ListLevels() // sorted so level-2 precedes level-10
//
// Every loaded or saved level is normalized and validated with
// engine.ValidateLevel. Invalid files are skipped by ListLevels.
package levels
