package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

var ErrInvalidRecord = errors.New("invalid progress record")

// record is the on-disk entry of one completed level
type record struct {
	Moves       int       `json:"moves"`
	BestMoves   int       `json:"bestMoves"`
	Stars       int       `json:"stars"`
	CompletedAt time.Time `json:"completedAt"`
}

// file is the on-disk progress document
type file struct {
	CompletedLevels   map[string]*record `json:"completedLevels"`
	CurrentLevelIndex int                `json:"currentLevelIndex"`
}

// FileStore keeps player progress in a single JSON file. An empty path keeps
// progress in memory only.
type FileStore struct {
	path string
	data file
	mu   sync.Mutex
}

// NewFileStore opens the progress file at path, starting empty if it does not exist
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		data: file{CompletedLevels: make(map[string]*record)},
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse progress file: %w", err)
	}
	if s.data.CompletedLevels == nil {
		s.data.CompletedLevels = make(map[string]*record)
	}
	return s, nil
}

// Record stores a winning attempt. The last move count always replaces the
// previous one; best moves and stars only improve.
func (s *FileStore) Record(levelID string, moves, minMoves int) (*service.LevelProgress, error) {
	if levelID == "" {
		return nil, fmt.Errorf("%w: level id is required", ErrInvalidRecord)
	}
	if moves < 1 {
		return nil, fmt.Errorf("%w: moves must be positive, got %d", ErrInvalidRecord, moves)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{BestMoves: moves}
	if prev, exists := s.data.CompletedLevels[levelID]; exists {
		copied := *prev
		rec = &copied
	}
	rec.Moves = moves
	if moves < rec.BestMoves {
		rec.BestMoves = moves
	}
	if stars := engine.Rating(moves, minMoves); stars > rec.Stars {
		rec.Stars = stars
	}
	rec.CompletedAt = time.Now()

	doc := s.data.clone()
	doc.CompletedLevels[levelID] = rec
	if err := s.commit(doc); err != nil {
		return nil, err
	}
	return toProgress(levelID, rec), nil
}

// Get returns the recorded progress of a level
func (s *FileStore) Get(levelID string) (*service.LevelProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.CompletedLevels[levelID]
	if !ok {
		return nil, false
	}
	return toProgress(levelID, rec), true
}

// SetCurrentLevel stores the index of the level the player should play next
func (s *FileStore) SetCurrentLevel(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: negative level index %d", ErrInvalidRecord, index)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.data.clone()
	doc.CurrentLevelIndex = index
	return s.commit(doc)
}

// Summary returns a copy of all progress
func (s *FileStore) Summary() *service.ProgressSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &service.ProgressSummary{
		CurrentLevelIndex: s.data.CurrentLevelIndex,
		Levels:            make(map[string]*service.LevelProgress, len(s.data.CompletedLevels)),
	}
	for id, rec := range s.data.CompletedLevels {
		summary.Levels[id] = toProgress(id, rec)
		summary.Completed++
		summary.TotalStars += rec.Stars
	}
	return summary
}

// Reset forgets all progress
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(file{CompletedLevels: make(map[string]*record)})
}

// clone copies the document and its level map; records are shared
func (f file) clone() file {
	levels := make(map[string]*record, len(f.CompletedLevels)+1)
	for id, rec := range f.CompletedLevels {
		levels[id] = rec
	}
	f.CompletedLevels = levels
	return f
}

// commit writes doc and makes it current only if the write succeeds.
// Callers hold s.mu.
func (s *FileStore) commit(doc file) error {
	if err := s.flush(doc); err != nil {
		return err
	}
	s.data = doc
	return nil
}

// flush writes doc through a temp file
func (s *FileStore) flush(doc file) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create progress directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	return nil
}

func toProgress(levelID string, rec *record) *service.LevelProgress {
	return &service.LevelProgress{
		LevelID:     levelID,
		Moves:       rec.Moves,
		BestMoves:   rec.BestMoves,
		Stars:       rec.Stars,
		CompletedAt: rec.CompletedAt,
	}
}
