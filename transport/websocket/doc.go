// Package websocket provides WebSocket transport for Haunted Board.
//
// The websocket package implements:
//   - Session-aware spectator connections
//   - State broadcasting after every mutation
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. The hub's client map is owned by the Run goroutine;
// broadcasts are queued and never block the HTTP handlers that publish them.
// Each client connection has a read and a write goroutine.
//
// Message Protocol:
//
// Clients connect with ?session=<id> and only receive. Every frame is one JSON
// Message:
//   - state_update: the complete GameState after a select, move or reset
//   - game_events: the typed events produced by the last operation
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
package websocket
