package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

var (
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)

// DefaultLevelID is the level used when none is requested
const DefaultLevelID = "level-1"

// extensions are tried in order when resolving a level id to a file
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles level loading and caching
type Manager struct {
	levelsDir    string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelsDir string) (*Manager, error) {
	if _, err := os.Stat(levelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
	}

	m := &Manager{
		levelsDir: levelsDir,
		levels:    make(map[string]*engine.Level),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level by id. The returned level is a copy.
func (m *Manager) LoadLevel(id string) (*engine.Level, error) {
	id = strings.TrimSpace(id)
	if err := checkID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level.Clone(), nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level.Clone(), nil
	}

	path, ok := m.findFile(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}

	level, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	// The file name is the address of a level
	level.ID = id

	m.levels[id] = level
	return level.Clone(), nil
}

// ListLevels returns information about all valid levels, in play order
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	seen := make(map[string]bool)
	var infos []*service.LevelInfo

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || !Supported(ext) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		if seen[id] {
			continue
		}

		level, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			fmt.Printf("Warning: Skipping level file %s: %v\n", entry.Name(), err)
			continue
		}
		seen[id] = true

		infos = append(infos, &service.LevelInfo{
			Filename: entry.Name(),
			LevelID:  id,
			Name:     level.Name,
			Width:    level.Board.Width(),
			Height:   level.Board.Height(),
			MinMoves: level.MinMoves,
			Pieces:   level.Board.Occupants(),
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return LevelLess(infos[i].LevelID, infos[j].LevelID)
	})

	return infos, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel.Clone()
}

// SetDefault sets the default level by id
func (m *Manager) SetDefault(id string) error {
	level, err := m.LoadLevel(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops all cached levels and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// SaveLevel validates a level and writes it as <id>.json
func (m *Manager) SaveLevel(level *engine.Level) error {
	if level == nil {
		return fmt.Errorf("%w: level is nil", ErrInvalidLevel)
	}
	lvl := level.Clone()
	lvl.ID = strings.TrimSpace(lvl.ID)
	if err := checkID(lvl.ID); err != nil {
		return err
	}
	if err := lvl.Normalize(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if err := engine.ValidateLevel(lvl); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	// The board is authoritative once saved
	lvl.Layout = nil
	if lvl.BoardWidth == 0 || lvl.BoardHeight == 0 {
		lvl.BoardWidth = lvl.Board.Width()
		lvl.BoardHeight = lvl.Board.Height()
	}

	data, err := json.MarshalIndent(lvl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A saved level replaces any YAML definition with the same id
	for _, ext := range extensions[1:] {
		os.Remove(filepath.Join(m.levelsDir, lvl.ID+ext))
	}

	path := filepath.Join(m.levelsDir, lvl.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.levels[lvl.ID] = lvl
	if m.defaultLevel != nil && m.defaultLevel.ID == lvl.ID {
		m.defaultLevel = lvl
	}
	return nil
}

// DeleteLevel removes every file defining the level
func (m *Manager) DeleteLevel(id string) error {
	id = strings.TrimSpace(id)
	if err := checkID(id); err != nil {
		return err
	}

	m.mu.Lock()
	removed := false
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(m.levelsDir, id+ext))
		if err == nil {
			removed = true
		} else if !os.IsNotExist(err) {
			m.mu.Unlock()
			return fmt.Errorf("failed to delete level file: %w", err)
		}
	}
	delete(m.levels, id)
	wasDefault := m.defaultLevel != nil && m.defaultLevel.ID == id
	m.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}
	if wasDefault {
		return m.loadDefaultLevel()
	}
	return nil
}

// Count returns the number of cached levels
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.levels)
}

// loadDefaultLevel picks level-1, then the first listed level, then the built-in one
func (m *Manager) loadDefaultLevel() error {
	level, err := m.LoadLevel(DefaultLevelID)
	if err != nil {
		infos, listErr := m.ListLevels()
		if listErr != nil || len(infos) == 0 {
			m.setDefault(engine.DefaultLevel())
			return nil
		}

		level, err = m.LoadLevel(infos[0].LevelID)
		if err != nil {
			m.setDefault(engine.DefaultLevel())
			return nil
		}
	}

	m.setDefault(level)
	return nil
}

func (m *Manager) setDefault(level *engine.Level) {
	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
}

func (m *Manager) findFile(id string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(m.levelsDir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// yamlLevel mirrors engine.Level for YAML files, where the board is a grid of
// cell names (~ for empty). Rows hold pointers because yaml.v3 drops null
// entries from a []string.
type yamlLevel struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	BoardSize   int        `yaml:"boardSize"`
	BoardWidth  int        `yaml:"boardWidth"`
	BoardHeight int        `yaml:"boardHeight"`
	Board       [][]*string `yaml:"board"`
	Layout      []string   `yaml:"layout"`
	MinMoves    int        `yaml:"minMoves"`
}

func (y *yamlLevel) toLevel() (*engine.Level, error) {
	level := &engine.Level{
		ID:          y.ID,
		Name:        y.Name,
		BoardSize:   y.BoardSize,
		BoardWidth:  y.BoardWidth,
		BoardHeight: y.BoardHeight,
		Layout:      y.Layout,
		MinMoves:    y.MinMoves,
	}
	if len(y.Board) > 0 {
		rows := make([][]engine.Cell, len(y.Board))
		for r, names := range y.Board {
			rows[r] = make([]engine.Cell, len(names))
			for c, name := range names {
				if name == nil {
					rows[r][c] = engine.EmptyCell()
					continue
				}
				cell, err := engine.ParseCell(*name)
				if err != nil {
					return nil, fmt.Errorf("cell (%d,%d): %w", r, c, err)
				}
				rows[r][c] = cell
			}
		}
		b, err := engine.BoardFromRows(rows)
		if err != nil {
			return nil, err
		}
		level.Board = b
	}
	return level, nil
}

// ReadFile parses, normalizes and validates a JSON or YAML level file
func ReadFile(path string) (*engine.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level *engine.Level
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var y yamlLevel
		if err := yaml.Unmarshal(data, &y); err != nil {
			return nil, fmt.Errorf("failed to parse level: %w", err)
		}
		level, err = y.toLevel()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
	default:
		level = &engine.Level{}
		if err := json.Unmarshal(data, level); err != nil {
			return nil, fmt.Errorf("failed to parse level: %w", err)
		}
	}

	if level.ID == "" {
		level.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := level.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if err := engine.ValidateLevel(level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	return level, nil
}

// Supported reports whether ext is a level file extension
func Supported(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// checkID rejects ids that cannot be used as a file name
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, id)
	}
	return nil
}

// LevelLess orders ids so that level-2 sorts before level-10
func LevelLess(a, b string) bool {
	pa, na, oka := splitNumber(a)
	pb, nb, okb := splitNumber(b)
	if oka && okb && pa == pb && na != nb {
		return na < nb
	}
	return a < b
}

func splitNumber(id string) (string, int, bool) {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == len(id) {
		return id, 0, false
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil {
		return id, 0, false
	}
	return id[:i], n, true
}
