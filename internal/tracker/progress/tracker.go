package progress

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/saves"
	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
)

// IdentityQueue receives player ids whose display names/avatars should be
// resolved out-of-band. Enqueue must never block.
type IdentityQueue interface {
	Enqueue(id uuid.UUID)
	Name(id uuid.UUID) (string, bool)
}

// Tracker owns the published WorldState. Snapshots are immutable; Sync
// builds a complete replacement and swaps it in atomically, so a reader
// always holds either the previous or the next fully built snapshot.
type Tracker struct {
	catalog    *catalog.Catalog
	logs       saves.LogSource
	identities IdentityQueue

	// Optional overrides for the primary tracked player.
	mainPlayer uuid.UUID
	mainName   string

	current atomic.Pointer[WorldState]
	syncing atomic.Bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMainPlayer pins the primary tracked player instead of deriving it
// from the save's player set.
func WithMainPlayer(id uuid.UUID) Option {
	return func(t *Tracker) { t.mainPlayer = id }
}

// WithMainPlayerName overrides the tracked player's display name used for
// death-message scanning, bypassing identity resolution.
func WithMainPlayerName(name string) Option {
	return func(t *Tracker) { t.mainName = name }
}

func NewTracker(cat *catalog.Catalog, logs saves.LogSource, identities IdentityQueue, opts ...Option) *Tracker {
	t := &Tracker{
		catalog:    cat,
		logs:       logs,
		identities: identities,
	}
	for _, opt := range opts {
		opt(t)
	}
	empty := NewWorldState()
	empty.GameCategory = string(cat.Category)
	empty.GameVersion = cat.Version
	t.current.Store(empty)
	return t
}

// State returns the current snapshot. Never nil; before the first sync it
// is the empty state.
func (t *Tracker) State() *WorldState { return t.current.Load() }

// Catalog returns the active objective catalogue.
func (t *Tracker) Catalog() *catalog.Catalog { return t.catalog }

// Sync runs one full pass against the save source and publishes the
// result. It reports false without doing anything when a pass is already
// in flight; the poll loop coalesces triggers rather than queueing them.
func (t *Tracker) Sync(src saves.Source) bool {
	if !t.syncing.CompareAndSwap(false, true) {
		return false
	}
	defer t.syncing.Store(false)

	// Deaths live in the log, not the save; a pass starts from an empty
	// death set and SyncDeathMessages re-augments it from the log.
	next := buildState(t.catalog, src, t.pickMainPlayer(src))

	t.current.Store(next)
	t.catalog.RefreshStates(next)

	if t.identities != nil {
		for id := range next.Players {
			t.identities.Enqueue(id)
		}
	}
	return true
}

// SyncDeathMessages rescans the session log for catalogued death messages
// and republishes the snapshot when new deaths appear. Requires both the
// log text and the tracked player's name; missing either is a no-op.
func (t *Tracker) SyncDeathMessages() {
	if t.logs == nil {
		return
	}
	logText, ok := t.logs.CurrentLog()
	if !ok {
		return
	}
	name, ok := t.MainPlayerName()
	if !ok {
		return
	}

	state := t.current.Load()
	observed := scanDeathMessages(t.catalog, logText, name)
	for id := range state.DeathMessages {
		observed.Add(id)
	}
	if len(observed) == len(state.DeathMessages) {
		return
	}

	next := state.withDeathMessages(observed)
	t.current.Store(next)
	t.catalog.RefreshStates(next)
}

// MainPlayerName resolves the tracked player's display name, preferring
// the configured override.
func (t *Tracker) MainPlayerName() (string, bool) {
	if t.mainName != "" {
		return t.mainName, true
	}
	if t.identities == nil {
		return "", false
	}
	return t.identities.Name(t.current.Load().MainPlayerID)
}

// EncodeState serializes the current snapshot, stamped with the active
// catalogue's category and version.
func (t *Tracker) EncodeState() []byte {
	return Encode(t.State(), string(t.catalog.Category), t.catalog.Version)
}

// Restore replaces the published snapshot with one decoded from durable
// storage. Decoding is fail-soft; garbage input restores the empty state.
// Identity lookups for the restored players are dispatched to the resolver
// queue and never awaited.
func (t *Tracker) Restore(data []byte) {
	state := Decode(data)
	if t.identities != nil {
		for id := range state.Players {
			t.identities.Enqueue(id)
		}
	}
	t.current.Store(state)
	t.catalog.RefreshStates(state)
}

// pickMainPlayer returns the configured main player, or the smallest uuid
// in the save so the choice is stable across passes.
func (t *Tracker) pickMainPlayer(src saves.Source) uuid.UUID {
	if t.mainPlayer != uuid.Nil {
		return t.mainPlayer
	}
	if src == nil {
		return uuid.Nil
	}
	var main uuid.UUID
	for _, id := range src.PlayerIDs() {
		if main == uuid.Nil || id.String() < main.String() {
			main = id
		}
	}
	return main
}
