package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/haunted-board/game/engine"
)

var (
	ErrLevelRequired = errors.New("level is required")
	ErrNoNextLevel   = errors.New("no next level")
)

// puzzleServiceImpl implements the PuzzleService interface
type puzzleServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	progress ProgressStore // nil disables progress tracking
	mu       sync.RWMutex
}

// NewPuzzleService creates a new puzzle service instance. progress may be nil.
func NewPuzzleService(sessions SessionManager, levels LevelManager, progress ProgressStore) PuzzleService {
	return &puzzleServiceImpl{
		sessions: sessions,
		levels:   levels,
		progress: progress,
	}
}

func toSessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.Level.ID,
		TestPlay:       sess.TestPlay,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		Level:          sess.Level,
	}
}

// CreateSession creates a new game session on a level; an empty id plays the default level
func (s *puzzleServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	if levelID == "" {
		level = s.levels.GetDefault()
	} else {
		var err error
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			if available := s.levelIDs(); len(available) > 0 {
				return nil, fmt.Errorf("failed to load level %s (available levels: %v): %w", levelID, available, err)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	}

	session, err := s.sessions.Create("", level, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return toSessionInfo(session), nil
}

// CreateTestSession starts an editor test play of an unsaved level
func (s *puzzleServiceImpl) CreateTestSession(ctx context.Context, level *engine.Level) (*SessionInfo, error) {
	if level == nil {
		return nil, ErrLevelRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Create("", level, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}
	return toSessionInfo(session), nil
}

// GetSession retrieves session information
func (s *puzzleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return toSessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *puzzleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, toSessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *puzzleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Select chooses the starting occupant before the first move of an attempt.
// A refused selection is reported with Success false and leaves the state alone.
func (s *puzzleServiceImpl) Select(ctx context.Context, sessionID string, pos engine.Position) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	state := sess.Engine.GetState()
	if err := sess.Engine.Select(pos); err != nil {
		return &MoveResult{
			Success:     false,
			GameState:   state,
			Message:     err.Error(),
			AttemptedTo: attemptInfo(state, pos, err),
		}, nil
	}

	state = sess.Engine.GetState()
	result := &MoveResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events: []GameEvent{{
			Type:      EventSelect,
			Message:   state.Message,
			Timestamp: time.Now(),
			Position:  pos,
		}},
	}
	if state.Stuck {
		result.Events = append(result.Events, stuckEvent(state))
	}

	s.save(sessionID, "select")
	return result, nil
}

// Move plays the active occupant to a destination
func (s *puzzleServiceImpl) Move(ctx context.Context, sessionID string, to engine.Position, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	step, stepEvents, err := s.play(sess, to, 1)
	state := sess.Engine.GetState()
	result := &MoveResult{
		Success:   err == nil,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, stepEvents...),
		Step:      step,
	}
	if err != nil {
		result.Message = err.Error()
		result.AttemptedTo = attemptInfo(state, to, err)
	}

	if err == nil || reset {
		s.save(sessionID, "move")
	}
	return result, nil
}

// BulkMove plays destinations in order, stopping at the first rejected one
func (s *puzzleServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}
	result.StartRemaining = sess.Engine.GetState().Remaining

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, to := range moves {
		if sess.Engine.IsGameOver() {
			result.StoppedReason = fmt.Sprintf("game over before move %d", i+1)
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		step, events, err := s.play(sess, to, i+1)
		if err != nil {
			state := sess.Engine.GetState()
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d rejected: %v", i+1, err)
			result.StopReasonCode = StopIllegalMove
			result.StoppedOnMove = i + 1
			result.AttemptedTo = attemptInfo(state, to, err)
			break
		}

		result.MovesExecuted++
		result.Events = append(result.Events, events...)
		result.Steps = append(result.Steps, *step)
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndRemaining = endState.Remaining
	result.GameOver = endState.GameOver
	result.Message = endState.Message
	result.ValidMoves = endState.ValidMoves

	switch {
	case endState.Won:
		result.GameOverCode = StopVictory
	case endState.Stuck:
		result.GameOverCode = StopStuck
	}
	if result.StopReasonCode == "" && result.GameOverCode != "" && result.MovesExecuted < len(moves) {
		result.StopReasonCode = result.GameOverCode
	}

	if result.MovesExecuted > 0 || reset {
		s.save(sessionID, "bulk moves")
	}
	return result, nil
}

// Reset resets a game session to its level's starting board
func (s *puzzleServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	s.save(sessionID, "reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *puzzleServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *puzzleServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels returns the available levels with the stars earned on each
func (s *puzzleServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	infos, err := s.levels.ListLevels()
	if err != nil {
		return nil, err
	}
	if s.progress != nil {
		for _, info := range infos {
			if rec, ok := s.progress.Get(info.LevelID); ok {
				info.Stars = rec.Stars
			}
		}
	}
	return infos, nil
}

// LoadLevel loads a specific level
func (s *puzzleServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// NextLevel returns the level listed after levelID
func (s *puzzleServiceImpl) NextLevel(ctx context.Context, levelID string) (*LevelInfo, error) {
	infos, err := s.levels.ListLevels()
	if err != nil {
		return nil, err
	}
	for i, info := range infos {
		if info.LevelID == levelID {
			if i+1 < len(infos) {
				return infos[i+1], nil
			}
			return nil, ErrNoNextLevel
		}
	}
	return nil, fmt.Errorf("level %s is not listed: %w", levelID, ErrNoNextLevel)
}

// SaveLevel stores a level from the editor
func (s *puzzleServiceImpl) SaveLevel(ctx context.Context, level *engine.Level) error {
	if level == nil {
		return ErrLevelRequired
	}
	return s.levels.SaveLevel(level)
}

// DeleteLevel removes a level file
func (s *puzzleServiceImpl) DeleteLevel(ctx context.Context, levelID string) error {
	return s.levels.DeleteLevel(levelID)
}

// GetProgress returns the recorded progress
func (s *puzzleServiceImpl) GetProgress(ctx context.Context) (*ProgressSummary, error) {
	if s.progress == nil {
		return &ProgressSummary{Levels: map[string]*LevelProgress{}}, nil
	}
	return s.progress.Summary(), nil
}

// ListPieces describes every piece type in rule order
func (s *puzzleServiceImpl) ListPieces(ctx context.Context) []PieceInfo {
	rules := engine.Rules()
	pieces := make([]PieceInfo, 0, len(rules))
	for _, r := range rules {
		pieces = append(pieces, PieceInfo{
			Type:        r.Piece,
			Name:        r.Name,
			Glyph:       string(r.Glyph),
			Emoji:       r.Emoji,
			Description: r.Description,
			Geometry:    r.Geometry,
			Capture:     r.Capture,
		})
	}
	return pieces
}

// play applies one move and records progress on victory; callers hold s.mu
func (s *puzzleServiceImpl) play(sess *Session, to engine.Position, idx int) (*StepInfo, []GameEvent, error) {
	res, err := sess.Engine.Play(to)
	if err != nil {
		return nil, nil, err
	}

	state := sess.Engine.GetState()
	entry := sess.Engine.GetLastMove()
	step := &StepInfo{
		Idx:        idx,
		Piece:      entry.Piece,
		From:       entry.From,
		To:         entry.To,
		Kind:       entry.Kind,
		Captured:   entry.Captured,
		Eliminated: entry.Eliminated,
		Remaining:  entry.Remaining,
		Victory:    state.Won,
	}

	events := moveEvents(entry, res.Effects)
	switch {
	case state.Won:
		events = append(events, GameEvent{
			Type:      EventVictory,
			Message:   state.Message,
			Timestamp: time.Now(),
			Position:  entry.To,
		})
		s.recordWin(sess, state)
	case state.Stuck:
		events = append(events, stuckEvent(state))
	}
	return step, events, nil
}

// recordWin stores a finished non-test attempt and advances the current level
func (s *puzzleServiceImpl) recordWin(sess *Session, state *engine.GameState) {
	if sess.TestPlay || s.progress == nil {
		return
	}
	if _, err := s.progress.Record(sess.Level.ID, state.CurrentMovesCount, state.MinMoves); err != nil {
		fmt.Printf("Warning: Failed to record progress for level %s: %v\n", sess.Level.ID, err)
		return
	}

	infos, err := s.levels.ListLevels()
	if err != nil {
		return
	}
	current := s.progress.Summary().CurrentLevelIndex
	for i, info := range infos {
		if info.LevelID != sess.Level.ID {
			continue
		}
		next := i + 1
		if next >= len(infos) {
			next = i
		}
		if next > current {
			if err := s.progress.SetCurrentLevel(next); err != nil {
				fmt.Printf("Warning: Failed to store current level: %v\n", err)
			}
		}
		return
	}
}

// save persists a session after a mutation
func (s *puzzleServiceImpl) save(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after %s: %v\n", sessionID, after, err)
	}
}

func (s *puzzleServiceImpl) levelIDs() []string {
	infos, err := s.levels.ListLevels()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.LevelID)
	}
	return ids
}

// moveEvents turns the effects of one move into events
func moveEvents(entry *engine.MoveHistoryEntry, eff engine.Effects) []GameEvent {
	now := time.Now()
	ev := GameEvent{Timestamp: now, Position: entry.To}

	switch entry.Kind {
	case engine.KindExplosion:
		ev.Type = EventExplosion
		if eff.Explosion != nil {
			ev.Position = *eff.Explosion
		}
		ev.Message = fmt.Sprintf("%s exploded at %s removing %d pieces", entry.Captured, ev.Position, entry.Eliminated)
	case engine.KindAbsorb:
		ev.Type = EventAbsorb
		ev.Message = fmt.Sprintf("%s absorbed %s", entry.Piece, entry.Captured)
		if eff.Transformed != nil {
			ev.Position = eff.Transformed.At
			ev.Message = fmt.Sprintf("%s absorbed %s and became %s", entry.Piece, entry.Captured, eff.Transformed.To)
		}
	case engine.KindRanged:
		ev.Type = EventRanged
		ev.Message = fmt.Sprintf("%s shot %s at %s", entry.Piece, entry.Captured, entry.To)
	case engine.KindPush:
		ev.Type = EventPush
		ev.Message = fmt.Sprintf("%s pushed %s", entry.Piece, entry.Captured)
		if eff.Pushed != nil {
			ev.Message = fmt.Sprintf("%s pushed %s to %s", entry.Piece, entry.Captured, eff.Pushed.To)
		}
	case engine.KindCapture:
		ev.Type = EventCapture
		ev.Message = fmt.Sprintf("%s captured %s at %s", entry.Piece, entry.Captured, entry.To)
	default:
		ev.Type = EventMove
		ev.Message = fmt.Sprintf("%s moved %s -> %s", entry.Piece, entry.From, entry.To)
	}
	return []GameEvent{ev}
}

func stuckEvent(state *engine.GameState) GameEvent {
	ev := GameEvent{
		Type:      EventStuck,
		Message:   fmt.Sprintf("No moves left with %d pieces on the board", state.Remaining),
		Timestamp: time.Now(),
	}
	if state.Active != nil {
		ev.Position = *state.Active
	}
	return ev
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Level reset to its starting board",
		Timestamp: time.Now(),
	}
}

// attemptInfo describes a rejected select or move
func attemptInfo(state *engine.GameState, to engine.Position, err error) *AttemptInfo {
	reason := StopIllegalMove
	if errors.Is(err, engine.ErrGameOver) {
		reason = StopGameOver
	}
	cell := "OFF_BOARD"
	if state.Board.InBounds(to) {
		cell = state.Board.At(to).String()
	}
	return &AttemptInfo{To: to, Cell: cell, Reason: reason}
}
