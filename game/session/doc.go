// Package session provides session management for Haunted Board.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation and validation
//   - Optional file persistence with lazy loading
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session owns its own engine instance and a snapshot of the level it
// plays, so later edits to the level file never affect a running attempt.
// Test-play sessions created from the level editor are flagged and are never
// counted as progress.
//
// Session Identifiers:
//
// Generated IDs are the first 8 hex characters of a random UUID. Custom IDs
// are accepted as long as they can be used as a file name. Lookups are
// case-insensitive.
//
// Persistence:
//
// FilePersistence stores one JSON document per session containing the level
// snapshot and the full game state. A manager created with persistence saves
// new sessions immediately, loads unknown IDs from disk on demand and can
// drop in-memory sessions whose files were removed by hand.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("./sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//
//	sess, err := manager.Create("", level, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
package session
