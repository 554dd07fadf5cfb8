package service

import (
	"time"

	"github.com/wricardo/haunted-board/game/engine"
)

// Event types emitted by the service
const (
	EventSelect    = "select"
	EventMove      = "move"
	EventCapture   = "capture"
	EventPush      = "push"
	EventExplosion = "explosion"
	EventAbsorb    = "absorb"
	EventRanged    = "ranged"
	EventVictory   = "victory"
	EventStuck     = "stuck"
	EventReset     = "reset"
)

// Stop reason codes reported by BulkMove
const (
	StopIllegalMove = "illegal_move"
	StopGameOver    = "game_over"
	StopVictory     = "victory"
	StopStuck       = "stuck"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	TestPlay       bool              `json:"test_play,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Level          *engine.Level     `json:"level"`
}

// MoveResult contains the result of a select or move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // illegal_move|game_over|victory|stuck
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartRemaining int `json:"start_remaining"`
	EndRemaining   int `json:"end_remaining"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	GameOver     bool          `json:"game_over"`
	GameOverCode string        `json:"game_over_code,omitempty"`
	Message      string        `json:"message,omitempty"`
	ValidMoves   []engine.Move `json:"valid_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx        int              `json:"idx"`
	Piece      engine.PieceType `json:"piece"`
	From       engine.Position  `json:"from"`
	To         engine.Position  `json:"to"`
	Kind       string           `json:"kind"`
	Captured   engine.PieceType `json:"captured,omitempty"`
	Eliminated int              `json:"eliminated"`
	Remaining  int              `json:"remaining"`
	Victory    bool             `json:"victory,omitempty"`
}

// AttemptInfo details a rejected destination
type AttemptInfo struct {
	To     engine.Position `json:"to"`
	Cell   string          `json:"cell"`
	Reason string          `json:"reason"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename string `json:"filename"`
	LevelID  string `json:"level_id"` // The identifier to use for session creation
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MinMoves int    `json:"min_moves"`
	Pieces   int    `json:"pieces"`
	Stars    int    `json:"stars,omitempty"`
}

// LevelProgress is the recorded result of a completed level
type LevelProgress struct {
	LevelID     string    `json:"level_id"`
	Moves       int       `json:"moves"`
	BestMoves   int       `json:"best_moves"`
	Stars       int       `json:"stars"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProgressSummary aggregates the progress of the player
type ProgressSummary struct {
	CurrentLevelIndex int                       `json:"current_level_index"`
	Completed         int                       `json:"completed"`
	TotalStars        int                       `json:"total_stars"`
	Levels            map[string]*LevelProgress `json:"completed_levels"`
}

// PieceInfo describes a piece type for clients
type PieceInfo struct {
	Type        engine.PieceType       `json:"type"`
	Name        string                 `json:"name"`
	Glyph       string                 `json:"glyph"`
	Emoji       string                 `json:"emoji"`
	Description string                 `json:"description"`
	Geometry    engine.Geometry        `json:"geometry"`
	Capture     engine.CaptureBehavior `json:"capture"`
}
