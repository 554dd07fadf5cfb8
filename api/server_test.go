package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/levels"
	"github.com/wricardo/haunted-board/game/service"
	"github.com/wricardo/haunted-board/game/session"
	"github.com/wricardo/haunted-board/transport/websocket"
)

// MockPuzzleService implements service.PuzzleService for testing
type MockPuzzleService struct {
	// Session Management
	CreateSessionFunc     func(ctx context.Context, levelID string) (*service.SessionInfo, error)
	CreateTestSessionFunc func(ctx context.Context, level *engine.Level) (*service.SessionInfo, error)
	GetSessionFunc        func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc      func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc     func(ctx context.Context, sessionID string) error

	// Game Operations
	SelectFunc   func(ctx context.Context, sessionID string, pos engine.Position) (*service.MoveResult, error)
	MoveFunc     func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*service.BulkMoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Levels
	ListLevelsFunc  func(ctx context.Context) ([]*service.LevelInfo, error)
	LoadLevelFunc   func(ctx context.Context, levelID string) (*engine.Level, error)
	NextLevelFunc   func(ctx context.Context, levelID string) (*service.LevelInfo, error)
	SaveLevelFunc   func(ctx context.Context, level *engine.Level) error
	DeleteLevelFunc func(ctx context.Context, levelID string) error

	GetProgressFunc func(ctx context.Context) (*service.ProgressSummary, error)
}

// Session Management
func (m *MockPuzzleService) CreateSession(ctx context.Context, levelID string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, levelID)
	}
	return &service.SessionInfo{
		ID:        "test-session",
		LevelID:   levelID,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockPuzzleService) CreateTestSession(ctx context.Context, level *engine.Level) (*service.SessionInfo, error) {
	if m.CreateTestSessionFunc != nil {
		return m.CreateTestSessionFunc(ctx, level)
	}
	return &service.SessionInfo{ID: "test-play", TestPlay: true, CreatedAt: time.Now()}, nil
}

func (m *MockPuzzleService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:        sessionID,
		LevelID:   "level-1",
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockPuzzleService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockPuzzleService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockPuzzleService) Select(ctx context.Context, sessionID string, pos engine.Position) (*service.MoveResult, error) {
	if m.SelectFunc != nil {
		return m.SelectFunc(ctx, sessionID, pos)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockPuzzleService) Move(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, to, reset)
	}
	return &service.MoveResult{
		Success:   true,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockPuzzleService) BulkMove(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{
		Success:   true,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockPuzzleService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

// Game State
func (m *MockPuzzleService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockPuzzleService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		TotalMoves: 0,
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Levels
func (m *MockPuzzleService) ListLevels(ctx context.Context) ([]*service.LevelInfo, error) {
	if m.ListLevelsFunc != nil {
		return m.ListLevelsFunc(ctx)
	}
	return []*service.LevelInfo{}, nil
}

func (m *MockPuzzleService) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	if m.LoadLevelFunc != nil {
		return m.LoadLevelFunc(ctx, levelID)
	}
	level := engine.DefaultLevel()
	level.ID = levelID
	return level, nil
}

func (m *MockPuzzleService) NextLevel(ctx context.Context, levelID string) (*service.LevelInfo, error) {
	if m.NextLevelFunc != nil {
		return m.NextLevelFunc(ctx, levelID)
	}
	return &service.LevelInfo{LevelID: "level-2"}, nil
}

func (m *MockPuzzleService) SaveLevel(ctx context.Context, level *engine.Level) error {
	if m.SaveLevelFunc != nil {
		return m.SaveLevelFunc(ctx, level)
	}
	return nil
}

func (m *MockPuzzleService) DeleteLevel(ctx context.Context, levelID string) error {
	if m.DeleteLevelFunc != nil {
		return m.DeleteLevelFunc(ctx, levelID)
	}
	return nil
}

// Progress and rules
func (m *MockPuzzleService) GetProgress(ctx context.Context) (*service.ProgressSummary, error) {
	if m.GetProgressFunc != nil {
		return m.GetProgressFunc(ctx)
	}
	return &service.ProgressSummary{Levels: map[string]*service.LevelProgress{}}, nil
}

func (m *MockPuzzleService) ListPieces(ctx context.Context) []service.PieceInfo {
	return []service.PieceInfo{{
		Type:     engine.Ghost,
		Name:     "Ghost",
		Glyph:    "G",
		Geometry: engine.GeometryPierceRay,
		Capture:  engine.CapturePlain,
	}}
}

// Test helpers
func setupTestServer(mockService *MockPuzzleService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	return resp["error"]
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default level",
			requestBody: nil,
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, levelID string) (*service.SessionInfo, error) {
					if levelID != "" {
						t.Errorf("Expected empty level id, got %s", levelID)
					}
					return &service.SessionInfo{
						ID:             "sess-123",
						LevelID:        "level-1",
						CreatedAt:      time.Now(),
						LastAccessedAt: time.Now(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with specific level",
			requestBody: map[string]string{"level_id": "level-4"},
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, levelID string) (*service.SessionInfo, error) {
					if levelID != "level-4" {
						t.Errorf("Expected level id 'level-4', got %s", levelID)
					}
					return &service.SessionInfo{ID: "sess-456", LevelID: levelID, CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.LevelID != "level-4" {
					t.Errorf("Expected level id 'level-4', got %s", resp.LevelID)
				}
			},
		},
		{
			name:        "Unknown level",
			requestBody: map[string]string{"level_id": "missing"},
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, levelID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("level %s: %w", levelID, levels.ErrLevelNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Handle service error",
			requestBody: nil,
			setupMock: func(m *MockPuzzleService) {
				m.CreateSessionFunc = func(ctx context.Context, levelID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); msg != "service error" {
					t.Errorf("Expected error message 'service error', got %s", msg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions", tt.requestBody)

			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateTestSession(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
	}{
		{
			name: "Layout level",
			body: map[string]interface{}{
				"level": map[string]interface{}{
					"id":     "draft",
					"name":   "Draft",
					"layout": []string{"G..", ".Z.", "..."},
				},
			},
			setupMock: func(m *MockPuzzleService) {
				m.CreateTestSessionFunc = func(ctx context.Context, level *engine.Level) (*service.SessionInfo, error) {
					if level == nil || level.ID != "draft" || len(level.Layout) != 3 {
						t.Errorf("Unexpected level %+v", level)
					}
					return &service.SessionInfo{ID: "tp-1", LevelID: "draft", TestPlay: true}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing level",
			body: map[string]interface{}{},
			setupMock: func(m *MockPuzzleService) {
				m.CreateTestSessionFunc = func(ctx context.Context, level *engine.Level) (*service.SessionInfo, error) {
					return nil, service.ErrLevelRequired
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unplayable level",
			body: map[string]interface{}{"level": map[string]interface{}{"id": "x"}},
			setupMock: func(m *MockPuzzleService) {
				m.CreateTestSessionFunc = func(ctx context.Context, level *engine.Level) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: name is required", engine.ErrInvalidLevel)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed board",
			body:           map[string]interface{}{"level": map[string]interface{}{"board": [][]interface{}{{nil}, {nil, nil}}}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/test", tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "sess-1", LevelID: "level-1", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
			{ID: "sess-2", LevelID: "level-2", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
			{ID: "sess-3", LevelID: "level-1", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
		}
	}

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		expectedIDs    []string
		expectedTotal  int
	}{
		{
			name:           "Default sort by last access",
			query:          "",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"sess-1", "sess-2", "sess-3"},
			expectedTotal:  3,
		},
		{
			name:           "Sort by creation ascending",
			query:          "?sort=created&order=asc",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"sess-1", "sess-2", "sess-3"},
			expectedTotal:  3,
		},
		{
			name:           "Sort by creation descending with limit",
			query:          "?sort=created&limit=2",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"sess-3", "sess-2"},
			expectedTotal:  3,
		},
		{
			name:           "Filter by level",
			query:          "?level=level-1",
			expectedStatus: http.StatusOK,
			expectedIDs:    []string{"sess-1", "sess-3"},
			expectedTotal:  2,
		},
		{
			name:  "Handle service error",
			query: "",
			setupMock: func(m *MockPuzzleService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return nil, fmt.Errorf("database error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, resp.Total)
			}
			if resp.Count != len(tt.expectedIDs) {
				t.Fatalf("Expected count %d, got %d", len(tt.expectedIDs), resp.Count)
			}
			for i, id := range tt.expectedIDs {
				if resp.Sessions[i].ID != id {
					t.Errorf("Expected session %d to be %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		setupMock      func(*MockPuzzleService)
		expectedStatus int
	}{
		{
			name:           "Existing session",
			sessionID:      "sess-123",
			expectedStatus: http.StatusOK,
		},
		{
			name:      "Session not found",
			sessionID: "nonexistent",
			setupMock: func(m *MockPuzzleService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/"+tt.sessionID, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusOK {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != tt.sessionID {
					t.Errorf("Expected session ID %s, got %s", tt.sessionID, resp.ID)
				}
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		deleteErr      error
		expectedStatus int
	}{
		{"Delete existing session", "sess-123", nil, http.StatusOK},
		{"Delete missing session", "gone", session.ErrSessionNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var deleted string
			mockService := &MockPuzzleService{
				DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
					deleted = sessionID
					return tt.deleteErr
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/"+tt.sessionID, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if deleted != tt.sessionID {
				t.Errorf("Expected delete of %s, got %s", tt.sessionID, deleted)
			}
		})
	}
}

// Game Operation Tests

func TestSelect(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		expectSuccess  bool
	}{
		{
			name: "Select occupant",
			body: map[string]int{"row": 1, "col": 1},
			setupMock: func(m *MockPuzzleService) {
				m.SelectFunc = func(ctx context.Context, sessionID string, pos engine.Position) (*service.MoveResult, error) {
					if pos != (engine.Position{Row: 1, Col: 1}) {
						t.Errorf("Expected position (1,1), got %s", pos)
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{ActivePiece: engine.Zombie, Remaining: 2},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectSuccess:  true,
		},
		{
			name: "Selection refused",
			body: map[string]int{"row": 3, "col": 3},
			setupMock: func(m *MockPuzzleService) {
				m.SelectFunc = func(ctx context.Context, sessionID string, pos engine.Position) (*service.MoveResult, error) {
					return &service.MoveResult{
						Success:     false,
						Message:     "no occupant",
						AttemptedTo: &service.AttemptInfo{To: pos, Cell: "EMPTY", Reason: service.StopIllegalMove},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			expectSuccess:  false,
		},
		{
			name:           "Invalid body",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/select", tt.body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp service.MoveResult
			parseResponse(t, w, &resp)
			if resp.Success != tt.expectSuccess {
				t.Errorf("Expected success %v, got %v", tt.expectSuccess, resp.Success)
			}
		})
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		requestBody    map[string]interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Capture move",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"to": map[string]int{"row": 1, "col": 1}},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
					if to != (engine.Position{Row: 1, Col: 1}) {
						t.Errorf("Expected destination (1,1), got %s", to)
					}
					if reset {
						t.Error("Expected reset to be false")
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{Remaining: 1, Won: true, GameOver: true},
						Step: &service.StepInfo{
							Idx: 1, Piece: engine.Ghost, To: to, Kind: engine.KindCapture, Remaining: 1, Victory: true,
						},
						Events: []service.GameEvent{{Type: service.EventCapture}, {Type: service.EventVictory}},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if !resp.Success {
					t.Error("Expected success to be true")
				}
				if !resp.GameState.Won {
					t.Error("Expected the game to be won")
				}
				if len(resp.Events) != 2 {
					t.Errorf("Expected 2 events, got %d", len(resp.Events))
				}
			},
		},
		{
			name:        "Move with reset",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"to": map[string]int{"row": 1, "col": 1}, "reset": true},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
					if !reset {
						t.Error("Expected reset to be true")
					}
					return &service.MoveResult{Success: true, GameState: &engine.GameState{Remaining: 1}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Rejected move",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"to": map[string]int{"row": 3, "col": 0}},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
					return &service.MoveResult{
						Success:     false,
						GameState:   &engine.GameState{Remaining: 2},
						Message:     engine.ErrIllegalMove.Error(),
						AttemptedTo: &service.AttemptInfo{To: to, Cell: "EMPTY", Reason: service.StopIllegalMove},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				if resp.Success {
					t.Error("Expected success to be false")
				}
				if resp.AttemptedTo == nil || resp.AttemptedTo.Reason != service.StopIllegalMove {
					t.Errorf("Expected attempt info with reason %s, got %+v", service.StopIllegalMove, resp.AttemptedTo)
				}
			},
		},
		{
			name:           "Missing destination",
			sessionID:      "sess-123",
			requestBody:    map[string]interface{}{"invalid": "field"},
			expectedStatus: http.StatusBadRequest,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if msg := errorMessage(t, w); msg != "Destination 'to' is required" {
					t.Errorf("Unexpected error %q", msg)
				}
			},
		},
		{
			name:        "Session not found",
			sessionID:   "nonexistent",
			requestBody: map[string]interface{}{"to": map[string]int{"row": 0, "col": 1}},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("session %s: %w", sessionID, session.ErrSessionNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Unexpected failure",
			sessionID:   "sess-123",
			requestBody: map[string]interface{}{"to": map[string]int{"row": 0, "col": 1}},
			setupMock: func(m *MockPuzzleService) {
				m.MoveFunc = func(ctx context.Context, sessionID string, to engine.Position, reset bool) (*service.MoveResult, error) {
					return nil, fmt.Errorf("disk full")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := makeRequest("POST", "/api/sessions/"+tt.sessionID+"/move", tt.requestBody)
			req = mux.SetURLVars(req, map[string]string{"id": tt.sessionID})

			server.handleMove(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		setupMock      func(*MockPuzzleService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Execute sequence",
			requestBody: map[string]interface{}{
				"moves": []map[string]int{{"row": 1, "col": 1}, {"row": 2, "col": 2}},
			},
			setupMock: func(m *MockPuzzleService) {
				m.BulkMoveFunc = func(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*service.BulkMoveResult, error) {
					if len(moves) != 2 || moves[1] != (engine.Position{Row: 2, Col: 2}) {
						t.Errorf("Unexpected moves %v", moves)
					}
					return &service.BulkMoveResult{
						MovesExecuted:  2,
						RequestedMoves: 2,
						Success:        true,
						GameState:      &engine.GameState{Remaining: 1, Won: true},
						StopReasonCode: service.StopVictory,
						StartRemaining: 3,
						EndRemaining:   1,
						GameOver:       true,
						GameOverCode:   service.StopVictory,
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.BulkMoveResult
				parseResponse(t, w, &resp)
				if resp.MovesExecuted != 2 {
					t.Errorf("Expected 2 moves executed, got %d", resp.MovesExecuted)
				}
				if resp.GameOverCode != service.StopVictory {
					t.Errorf("Expected game over code %s, got %s", service.StopVictory, resp.GameOverCode)
				}
			},
		},
		{
			name:        "Stops on illegal move",
			requestBody: map[string]interface{}{"moves": []map[string]int{{"row": 3, "col": 3}}, "reset": true},
			setupMock: func(m *MockPuzzleService) {
				m.BulkMoveFunc = func(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*service.BulkMoveResult, error) {
					if !reset {
						t.Error("Expected reset to be true")
					}
					return &service.BulkMoveResult{
						RequestedMoves: 1,
						GameState:      &engine.GameState{Remaining: 2},
						StopReasonCode: service.StopIllegalMove,
						StoppedOnMove:  1,
						StartRemaining: 2,
						EndRemaining:   2,
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.BulkMoveResult
				parseResponse(t, w, &resp)
				if resp.StopReasonCode != service.StopIllegalMove || resp.StoppedOnMove != 1 {
					t.Errorf("Expected stop on move 1 (%s), got %d (%s)", service.StopIllegalMove, resp.StoppedOnMove, resp.StopReasonCode)
				}
			},
		},
		{
			name:        "Session not found",
			requestBody: map[string]interface{}{"moves": []map[string]int{}},
			setupMock: func(m *MockPuzzleService) {
				m.BulkMoveFunc = func(ctx context.Context, sessionID string, moves []engine.Position, reset bool) (*service.BulkMoveResult, error) {
					return nil, session.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/bulk-move", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestReset(t *testing.T) {
	mockService := &MockPuzzleService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "sess-1" {
				return nil, session.ErrSessionNotFound
			}
			return engine.InitGameStateFromLevel(engine.DefaultLevel()), nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Remaining != 2 {
		t.Errorf("Expected fresh state with 2 occupants, got %+v", resp.State)
	}
	if resp.State.ActivePiece != engine.Ghost {
		t.Errorf("Expected the ghost to be active, got %s", resp.State.ActivePiece)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/other/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedOpts service.HistoryOptions
	}{
		{"Defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"Custom paging", "?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"Invalid values ignored", "?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockPuzzleService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page, PageSize: opts.Limit}, nil
				},
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.expectedOpts {
				t.Errorf("Expected options %+v, got %+v", tt.expectedOpts, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockPuzzleService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, session.ErrSessionNotFound
			}
			return engine.InitGameStateFromLevel(engine.DefaultLevel()), nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var state engine.GameState
	parseResponse(t, w, &state)
	if !state.Board.Equal(engine.DefaultLevel().Board) {
		t.Errorf("Expected the default board, got\n%s", state.Board)
	}
	if len(state.ValidMoves) == 0 {
		t.Error("Expected valid moves for the active ghost")
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/missing/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Level Tests

func TestLevels(t *testing.T) {
	var saved *engine.Level
	mockService := &MockPuzzleService{
		ListLevelsFunc: func(ctx context.Context) ([]*service.LevelInfo, error) {
			return []*service.LevelInfo{
				{LevelID: "level-1", Name: "First steps", Width: 4, Height: 4, MinMoves: 1, Stars: 3},
				{LevelID: "level-2", Name: "Two hops", Width: 4, Height: 4, MinMoves: 2},
			}, nil
		},
		LoadLevelFunc: func(ctx context.Context, levelID string) (*engine.Level, error) {
			if levelID != "level-1" {
				return nil, fmt.Errorf("%s: %w", levelID, levels.ErrLevelNotFound)
			}
			return engine.DefaultLevel(), nil
		},
		NextLevelFunc: func(ctx context.Context, levelID string) (*service.LevelInfo, error) {
			if levelID == "level-2" {
				return nil, service.ErrNoNextLevel
			}
			return &service.LevelInfo{LevelID: "level-2"}, nil
		},
		SaveLevelFunc: func(ctx context.Context, level *engine.Level) error {
			if level.Name == "" {
				return fmt.Errorf("%w: name is required", levels.ErrInvalidLevel)
			}
			saved = level
			return nil
		},
		DeleteLevelFunc: func(ctx context.Context, levelID string) error {
			if levelID != "custom" {
				return levels.ErrLevelNotFound
			}
			return nil
		},
	}
	server := setupTestServer(mockService)

	t.Run("List", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels", nil))
		var infos []*service.LevelInfo
		parseResponse(t, w, &infos)
		if len(infos) != 2 || infos[0].Stars != 3 {
			t.Errorf("Unexpected level list %+v", infos)
		}
	})

	t.Run("Get", func(t *testing.T) {
		for _, path := range []string{"/api/levels/level-1", "/api/levels/level-1.json"} {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", path, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("%s: expected status 200, got %d", path, w.Code)
			}
			var level engine.Level
			parseResponse(t, w, &level)
			if level.Board.Occupants() != 2 {
				t.Errorf("Expected 2 occupants, got %d", level.Board.Occupants())
			}
		}

		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/nope", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("Next", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/level-1/next", nil))
		var info service.LevelInfo
		parseResponse(t, w, &info)
		if info.LevelID != "level-2" {
			t.Errorf("Expected level-2, got %s", info.LevelID)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/levels/level-2/next", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404 after the last level, got %d", w.Code)
		}
	})

	t.Run("Save", func(t *testing.T) {
		body := map[string]interface{}{"id": "custom", "name": "Custom", "layout": []string{"G..", ".Z.", "..."}, "minMoves": 1}
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", body))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		if saved == nil || saved.ID != "custom" || len(saved.Layout) != 3 {
			t.Errorf("Unexpected saved level %+v", saved)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", map[string]string{"name": "No id"}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 without id, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("POST", "/api/levels", map[string]string{"id": "x"}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for an invalid level, got %d", w.Code)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("DELETE", "/api/levels/custom", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("DELETE", "/api/levels/level-9", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestProgressAndPieces(t *testing.T) {
	mockService := &MockPuzzleService{
		GetProgressFunc: func(ctx context.Context) (*service.ProgressSummary, error) {
			return &service.ProgressSummary{
				CurrentLevelIndex: 1,
				Completed:         1,
				TotalStars:        3,
				Levels: map[string]*service.LevelProgress{
					"level-1": {LevelID: "level-1", Moves: 1, BestMoves: 1, Stars: 3},
				},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/progress", nil))
	var summary service.ProgressSummary
	parseResponse(t, w, &summary)
	if summary.TotalStars != 3 || summary.Levels["level-1"] == nil {
		t.Errorf("Unexpected progress %+v", summary)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/pieces", nil))
	var pieces []service.PieceInfo
	parseResponse(t, w, &pieces)
	if len(pieces) != 1 || pieces[0].Type != engine.Ghost {
		t.Fatalf("Unexpected pieces %+v", pieces)
	}
	if pieces[0].Geometry != engine.GeometryPierceRay || pieces[0].Capture != engine.CapturePlain {
		t.Errorf("Expected pierce_ray/plain, got %s/%s", pieces[0].Geometry, pieces[0].Capture)
	}
}

// Stateless engine tests

func TestEngineMoves(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectCapture  bool
	}{
		{
			name:           "Layout board",
			body:           map[string]interface{}{"layout": []string{"G...", ".Z..", "....", "...."}, "from": map[string]int{"row": 0, "col": 0}},
			expectedStatus: http.StatusOK,
			expectCapture:  true,
		},
		{
			name: "JSON board",
			body: map[string]interface{}{
				"board": [][]interface{}{{"GHOST", nil, nil}, {nil, "ZOMBIE", nil}, {nil, nil, "DISABLED"}},
				"from":  map[string]int{"row": 0, "col": 0},
			},
			expectedStatus: http.StatusOK,
			expectCapture:  true,
		},
		{
			name:           "Empty origin",
			body:           map[string]interface{}{"layout": []string{"G..", "...", "..Z"}, "from": map[string]int{"row": 1, "col": 1}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "Missing board",
			body:           map[string]interface{}{"from": map[string]int{"row": 0, "col": 0}},
			expectedStatus: http.StatusBadRequest,
		},
	}

	server := setupTestServer(&MockPuzzleService{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/engine/moves", tt.body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp struct {
				Piece engine.PieceType `json:"piece"`
				Moves []engine.Move    `json:"moves"`
			}
			parseResponse(t, w, &resp)
			if resp.Piece != engine.Ghost {
				t.Errorf("Expected GHOST, got %s", resp.Piece)
			}

			found := false
			for _, m := range resp.Moves {
				if m.To == (engine.Position{Row: 1, Col: 1}) && m.Capture {
					found = true
				}
			}
			if found != tt.expectCapture {
				t.Errorf("Expected capture at (1,1): %v, moves %v", tt.expectCapture, resp.Moves)
			}
		})
	}
}

func TestEngineApply(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{})

	body := map[string]interface{}{
		"layout": []string{"G...", ".Z..", "....", "...."},
		"active": map[string]int{"row": 0, "col": 0},
		"to":     map[string]int{"row": 1, "col": 1},
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/engine/apply", body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Won    bool     `json:"won"`
		Layout []string `json:"layout"`
	}
	parseResponse(t, w, &resp)
	if !resp.Won {
		t.Error("Expected the capture to win the board")
	}
	if len(resp.Layout) != 4 || resp.Layout[1] != ".G.." {
		t.Errorf("Expected the ghost on (1,1), got %v", resp.Layout)
	}

	body["to"] = map[string]int{"row": 3, "col": 1}
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/engine/apply", body))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for an unreachable cell, got %d", w.Code)
	}
}

// Infrastructure

func TestHealth(t *testing.T) {
	server := setupTestServer(&MockPuzzleService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]string
	parseResponse(t, w, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("Expected healthy, got %s", resp["status"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{session.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", levels.ErrLevelNotFound), http.StatusNotFound},
		{engine.ErrMalformedBoard, http.StatusBadRequest},
		{fmt.Errorf("x: %w", engine.ErrInvalidLevel), http.StatusBadRequest},
		{engine.ErrIllegalMove, http.StatusUnprocessableEntity},
		{fmt.Errorf("other"), http.StatusTeapot},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err, http.StatusTeapot); got != tt.expected {
			t.Errorf("statusFor(%v): expected %d, got %d", tt.err, tt.expected, got)
		}
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockPuzzleService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockPuzzleService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, session.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Valid session",
			queryParams:    "?session=sess-123",
			expectedStatus: http.StatusSwitchingProtocols,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockPuzzleService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/ws"+tt.queryParams, nil)

			if tt.expectedStatus == http.StatusSwitchingProtocols {
				req.Header.Set("Upgrade", "websocket")
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
				req.Header.Set("Sec-WebSocket-Version", "13")
			}

			server.handleWebSocket(w, req)

			// httptest.ResponseRecorder is not a Hijacker; a 500 means the upgrade was attempted
			if tt.expectedStatus == http.StatusSwitchingProtocols && w.Code == http.StatusInternalServerError {
				return
			}

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocketDisabled(t *testing.T) {
	server := NewServer(&MockPuzzleService{}, nil)
	w := httptest.NewRecorder()
	server.handleWebSocket(w, httptest.NewRequest("GET", "/ws?session=a", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	// Broadcasting without a hub is a no-op
	server.broadcast("a", &engine.GameState{}, []service.GameEvent{{Type: service.EventMove}})
}
