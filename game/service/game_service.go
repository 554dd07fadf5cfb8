package service

import (
	"context"
	"time"

	"github.com/wricardo/haunted-board/game/engine"
)

// PuzzleService defines all game-related operations
type PuzzleService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	CreateTestSession(ctx context.Context, level *engine.Level) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Select(ctx context.Context, sessionID string, pos engine.Position) (*MoveResult, error)
	Move(ctx context.Context, sessionID string, to engine.Position, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.Level, error)
	NextLevel(ctx context.Context, levelID string) (*LevelInfo, error)
	SaveLevel(ctx context.Context, level *engine.Level) error
	DeleteLevel(ctx context.Context, levelID string) error

	// Progress and rules
	GetProgress(ctx context.Context) (*ProgressSummary, error)
	ListPieces(ctx context.Context) []PieceInfo
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.Level, testPlay bool) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.Level
	SaveLevel(level *engine.Level) error
	DeleteLevel(id string) error
}

// ProgressStore records completed levels
type ProgressStore interface {
	Record(levelID string, moves, minMoves int) (*LevelProgress, error)
	Get(levelID string) (*LevelProgress, bool)
	SetCurrentLevel(index int) error
	Summary() *ProgressSummary
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Level          *engine.Level
	TestPlay       bool // editor test play; never recorded in progress
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
