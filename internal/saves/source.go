// Package saves reads game-produced save data. The files are written by an
// uncontrolled external process and may be mid-write, partial, or stale at
// any time, so every query here is best-effort: misses and parse failures
// degrade to zero values, never errors.
package saves

import (
	"time"

	"github.com/google/uuid"
)

// Criterion identifies a completed sub-condition of an advancement.
type Criterion struct {
	Advancement string
	Criterion   string
}

// Source is the query surface the sync engine reads a save through.
// Implementations must be safe for concurrent readers.
type Source interface {
	// IsEmpty reports whether the save has no player data at all.
	IsEmpty() bool

	// PlayerIDs enumerates every player with data in the save.
	PlayerIDs() []uuid.UUID

	// AdvancementCompletions reports which players completed the given
	// advancement and when. ok is false when nobody has it.
	AdvancementCompletions(id string) (map[uuid.UUID]time.Time, bool)

	// CriteriaCompletions reports, per player, the completed sub-criteria
	// of the given advancement.
	CriteriaCompletions(advID string) map[uuid.UUID][]Criterion

	// AchievementHolders reports which players hold the given legacy
	// achievement. ok is false when nobody has it.
	AchievementHolders(id string) ([]uuid.UUID, bool)

	// Statistics. Item, block and mob ids may be passed with or without
	// the "minecraft:" namespace.
	InGameTime() time.Duration
	TotalDeaths() int
	TotalJumps() int
	TotalSleeps() int
	TotalDamageTaken() int
	TotalDamageDealt() int
	TotalSaveAndQuits() int
	KilometersFlown() float64
	ItemsEnchanted() int
	TimesUsed(item string) int
	TimesMined(block string) int
	TimesPickedUp(item string) (int, map[uuid.UUID]int)
	TimesDropped(item string) (int, map[uuid.UUID]int)
	KillsOf(mob string) int

	// BlockUseHolders reports the players with a positive use count for
	// the given block. ok is false when the count is zero everywhere.
	BlockUseHolders(block string) ([]uuid.UUID, bool)
}

// LogSource provides the live game log for death-message scanning.
type LogSource interface {
	// CurrentLog returns the current session's log text. ok is false when
	// no log is available, which callers treat as a no-op, not an error.
	CurrentLog() (string, bool)
}
