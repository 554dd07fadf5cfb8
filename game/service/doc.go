// Package service provides the business logic layer for Haunted Board.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Level loading, editing and test plays
//   - Move processing with typed events
//   - Progress recording for completed levels
//   - Move history tracking
//
// Core Interfaces:
//
// PuzzleService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads and stores level definitions and ProgressStore records
// the best result of every completed level.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP, TUI)
// and the game engine. Each session owns an engine instance; the service
// serializes mutations and saves the session after each one. Rejected
// selections and moves are not errors: they come back with Success false and
// an AttemptInfo explaining the refusal, with the state untouched.
//
// Usage:
//
//	sessions := session.NewManager()
//	levels, _ := levels.NewManager("levels")
//	store, _ := progress.NewFileStore("progress.json")
//	svc := service.NewPuzzleService(sessions, levels, store)
//
//	info, err := svc.CreateSession(ctx, "level-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.Move(ctx, info.ID, engine.Position{Row: 1, Col: 1}, false)
//
// Events:
//
// Every applied move yields one event named after its kind (move, capture,
// push, explosion, absorb, ranged) followed by victory or stuck when the
// attempt ends. Test-play sessions never touch progress.
package service
