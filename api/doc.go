// Package api provides HTTP REST API handlers for Haunted Board.
//
// The api package implements:
//   - Session management endpoints, including editor test plays
//   - Select, move, bulk move and reset endpoints
//   - Level listing, loading, saving and deletion
//   - A stateless rule engine for move generation and application
//   - WebSocket upgrade handling for spectators
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"level_id": "level-3"}; empty means the first level)
//   - POST /api/sessions/test - Create a test-play session from an unsaved level
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&level=ID)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/select - Choose the starting occupant ({"row":1,"col":1})
//   - POST /api/sessions/{id}/move - Move the active occupant ({"to":{"row":1,"col":1},"reset":false})
//   - POST /api/sessions/{id}/bulk-move - Up to 50 moves ({"moves":[{"row":1,"col":1}],"reset":false})
//   - POST /api/sessions/{id}/reset - Restore the starting board
//   - GET /api/sessions/{id}/history - Paginated history (?page=1&limit=20&order=desc)
//
// Levels and progress:
//   - GET /api/levels, POST /api/levels
//   - GET /api/levels/{id}, DELETE /api/levels/{id}
//   - GET /api/levels/{id}/next
//   - GET /api/progress, GET /api/pieces
//
// Rule engine:
//   - POST /api/engine/moves - {"layout":["G..",".Z.","..."],"from":{"row":0,"col":0}}
//   - POST /api/engine/apply - {"board":[[...]],"active":{"row":0,"col":0},"to":{"row":1,"col":1}}
//
// Boards are accepted either as JSON rows (null, "DISABLED" or a piece name
// per cell) or as glyph layout rows.
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and levels map
// to 404, malformed boards and invalid levels to 400, and violated engine
// preconditions to 422. A move the rules refuse is not an HTTP error: it comes
// back as 200 with success false and an attempted_to explanation.
package api
