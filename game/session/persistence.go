package session

import (
	"time"

	"github.com/wricardo/haunted-board/game/engine"
	"github.com/wricardo/haunted-board/game/service"
)

// SessionPersistence stores play sessions outside the process. Ids are the
// lower-cased session ids.
type SessionPersistence interface {
	Save(session *service.Session) error
	// Load rebuilds the session engine from the stored level and state
	Load(id string) (*service.Session, error)
	Delete(id string) error
	ListAll() ([]string, error)
	Exists(id string) bool
}

// PersistedSessionData is the on-disk form of a session. It carries the level
// snapshot the session was started from; restoring never rereads level files,
// so test plays of unsaved levels come back too.
type PersistedSessionData struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	TestPlay       bool              `json:"test_play,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Level          *engine.Level     `json:"level"`
	GameState      *engine.GameState `json:"game_state"`
}
