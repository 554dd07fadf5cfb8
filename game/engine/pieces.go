package engine

import "fmt"

// Geometry is the movement pattern a piece type uses to reach destinations
type Geometry uint8

const (
	GeometryStep Geometry = iota + 1
	GeometryRay
	GeometryRayToEnd
	GeometryLeap
	GeometryTeleport
	GeometryDistance
	GeometryPierceRay
	GeometryPushStep
)

var geometryNames = map[Geometry]string{
	GeometryStep:      "step",
	GeometryRay:       "ray",
	GeometryRayToEnd:  "ray_to_end",
	GeometryLeap:      "leap",
	GeometryTeleport:  "teleport",
	GeometryDistance:  "distance",
	GeometryPierceRay: "pierce_ray",
	GeometryPushStep:  "push_step",
}

func (g Geometry) String() string {
	if name, ok := geometryNames[g]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the geometry name. Unknown geometries do not encode.
func (g Geometry) MarshalText() ([]byte, error) {
	name, ok := geometryNames[g]
	if !ok {
		return nil, fmt.Errorf("unknown geometry %d", uint8(g))
	}
	return []byte(name), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (g *Geometry) UnmarshalText(text []byte) error {
	for k, name := range geometryNames {
		if name == string(text) {
			*g = k
			return nil
		}
	}
	return fmt.Errorf("unknown geometry %q", text)
}

// CaptureBehavior selects how the executor resolves a capture
type CaptureBehavior uint8

const (
	CapturePlain CaptureBehavior = iota + 1
	CaptureSwapAbsorb
	CaptureStayInPlace
	CapturePushRelocate
	CaptureExplode
)

var captureNames = map[CaptureBehavior]string{
	CapturePlain:        "plain",
	CaptureSwapAbsorb:   "swap_absorb",
	CaptureStayInPlace:  "stay_in_place",
	CapturePushRelocate: "push_relocate",
	CaptureExplode:      "explode",
}

func (c CaptureBehavior) String() string {
	if name, ok := captureNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the capture behavior name. Unknown behaviors do not encode.
func (c CaptureBehavior) MarshalText() ([]byte, error) {
	name, ok := captureNames[c]
	if !ok {
		return nil, fmt.Errorf("unknown capture behavior %d", uint8(c))
	}
	return []byte(name), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (c *CaptureBehavior) UnmarshalText(text []byte) error {
	for k, name := range captureNames {
		if name == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown capture behavior %q", text)
}

// Rule is one row of the piece rule table
type Rule struct {
	Piece       PieceType       `json:"piece"`
	Name        string          `json:"name"`
	Glyph       rune            `json:"-"`
	Emoji       string          `json:"emoji"`
	Description string          `json:"description"`
	Geometry    Geometry        `json:"geometry"`
	Directions  []Offset        `json:"directions,omitempty"`
	MinRange    int             `json:"min_range,omitempty"`
	MaxRange    int             `json:"max_range,omitempty"`
	Capture     CaptureBehavior `json:"capture"`
}

var (
	// kingDirections is the declared scan order for 8-direction pieces
	kingDirections = []Offset{
		{-1, -1}, {-1, 0}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 0}, {1, 1},
	}
	diagonalDirections   = []Offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	orthogonalDirections = []Offset{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	knightOffsets        = []Offset{
		{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2},
		{1, -2}, {1, 2}, {2, -1}, {2, 1},
	}
)

var rules = [pieceCount]Rule{
	Ghost: {
		Piece: Ghost, Name: "Ghost", Glyph: 'G', Emoji: "👻",
		Description: "Slides in 8 directions and may pass over one occupant before stopping",
		Geometry:    GeometryPierceRay, Directions: kingDirections, Capture: CapturePlain,
	},
	Bat: {
		Piece: Bat, Name: "Bat", Glyph: 'B', Emoji: "🦇",
		Description: "Teleports to any empty cell, captures only adjacent occupants",
		Geometry:    GeometryTeleport, Capture: CapturePlain,
	},
	Zombie: {
		Piece: Zombie, Name: "Zombie", Glyph: 'Z', Emoji: "🧟",
		Description: "Steps one cell in any direction",
		Geometry:    GeometryStep, Directions: kingDirections, Capture: CapturePlain,
	},
	Frankenstein: {
		Piece: Frankenstein, Name: "Frankenstein", Glyph: 'F', Emoji: "🧟‍♂️",
		Description: "Slides diagonally like a bishop",
		Geometry:    GeometryRay, Directions: diagonalDirections, Capture: CapturePlain,
	},
	Vampire: {
		Piece: Vampire, Name: "Vampire", Glyph: 'V', Emoji: "🧛",
		Description: "Slides along rows and columns like a rook",
		Geometry:    GeometryRay, Directions: orthogonalDirections, Capture: CapturePlain,
	},
	Spider: {
		Piece: Spider, Name: "Spider", Glyph: 'S', Emoji: "🕷️",
		Description: "Slides like a queen but must go as far as possible",
		Geometry:    GeometryRayToEnd, Directions: kingDirections, Capture: CapturePlain,
	},
	Web: {
		Piece: Web, Name: "Web", Glyph: 'W', Emoji: "🕸️",
		Description: "Captures around itself; the captured piece takes its place",
		Geometry:    GeometryStep, Directions: kingDirections, Capture: CaptureSwapAbsorb,
	},
	Skull: {
		Piece: Skull, Name: "Skull", Glyph: 'K', Emoji: "💀",
		Description: "Leaps in an L like a knight",
		Geometry:    GeometryLeap, Directions: knightOffsets, Capture: CapturePlain,
	},
	Cat: {
		Piece: Cat, Name: "Cat", Glyph: 'C', Emoji: "🐱‍👤",
		Description: "Captures at range 2 or 3 without moving",
		Geometry:    GeometryDistance, Directions: kingDirections, MinRange: 2, MaxRange: 3,
		Capture: CapturePlain,
	},
	Witch: {
		Piece: Witch, Name: "Witch", Glyph: 'X', Emoji: "🧙‍♀️",
		Description: "Slides in 8 directions like a queen",
		Geometry:    GeometryRay, Directions: kingDirections, Capture: CapturePlain,
	},
	Broom: {
		Piece: Broom, Name: "Broom", Glyph: 'R', Emoji: "🧹",
		Description: "Steps one cell and pushes an adjacent occupant one cell further",
		Geometry:    GeometryPushStep, Directions: kingDirections, Capture: CapturePushRelocate,
	},
	Hand: {
		Piece: Hand, Name: "Hand", Glyph: 'H', Emoji: "🖐️",
		Description: "Explodes when captured, clearing its neighbours but staying in place",
		Geometry:    GeometryStep, Directions: kingDirections, Capture: CaptureExplode,
	},
	Tombstone: {
		Piece: Tombstone, Name: "Tombstone", Glyph: 'T', Emoji: "🪦",
		Description: "Steps one cell and captures normally",
		Geometry:    GeometryStep, Directions: kingDirections, Capture: CaptureStayInPlace,
	},
	Moon: {
		Piece: Moon, Name: "Moon", Glyph: 'M', Emoji: "🌙",
		Description: "Slides in 8 directions like a queen",
		Geometry:    GeometryRay, Directions: kingDirections, Capture: CapturePlain,
	},
}

// RuleFor returns the rule table entry for p
func RuleFor(p PieceType) (Rule, bool) {
	if !p.Valid() {
		return Rule{}, false
	}
	return rules[p], true
}

// Pieces lists every playable piece type in declaration order
func Pieces() []PieceType {
	out := make([]PieceType, 0, pieceCount-1)
	for p := Ghost; p < pieceCount; p++ {
		out = append(out, p)
	}
	return out
}

// Rules returns a copy of the whole rule table in declaration order
func Rules() []Rule {
	out := make([]Rule, 0, pieceCount-1)
	for _, p := range Pieces() {
		out = append(out, rules[p])
	}
	return out
}
