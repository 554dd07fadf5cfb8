// Package mcp provides the Model Context Protocol interface of Haunted Board.
//
// The Client is a thin proxy: every tool calls the REST API and renders the
// response as text an agent can read, with the board drawn as glyph rows and
// coordinate rulers and the active occupant in brackets.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state, select_piece, move, bulk_move, reset_game, move_history
//   - list_levels, next_level, progress, list_pieces
//   - piece_moves: stateless move generation on any board
//   - describe_cell, game_instructions
//
// Coordinates are {row, col}, zero-based with row 0 at the top.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	http.Handle("/mcp", server.NewStreamableHTTPServer(client.GetMCPServer()))
package mcp
