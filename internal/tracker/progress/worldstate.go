// Package progress maintains the authoritative snapshot of a co-op run:
// who has accomplished what, and when. Snapshots are immutable once
// published; all mutation happens while building the next snapshot, which
// is then swapped in atomically so readers never observe a torn state.
package progress

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
)

// CritKey builds the composite key a completed (advancement, criterion)
// pair is stored under. "|" cannot occur in resource ids.
func CritKey(advID, critID string) string {
	return advID + "|" + critID
}

// Set is a string set that serializes as a sorted JSON array.
type Set map[string]struct{}

func (s Set) Add(id string)           { s[id] = struct{}{} }
func (s Set) Contains(id string) bool { _, ok := s[id]; return ok }

func (s Set) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = make(Set, len(ids))
	for _, id := range ids {
		(*s)[id] = struct{}{}
	}
	return nil
}

// WorldState is the aggregate snapshot of all progress across all players.
// Once published by the tracker it must not be mutated; build a new one
// instead.
type WorldState struct {
	Players map[uuid.UUID]*Contribution `json:"players"`

	CompletedAdvancements Set `json:"completed_advancements"`
	CompletedCriteria     Set `json:"completed_criteria"`
	BlocksPlaced          Set `json:"blocks_placed"`
	DeathMessages         Set `json:"death_messages"`

	PickupTotals map[string]int `json:"pickup_totals"`
	DropTotals   map[string]int `json:"drop_totals"`
	KillTotals   map[string]int `json:"kill_totals"`

	InGameTime time.Duration `json:"in_game_time"`

	GameCategory string `json:"game_category"`
	GameVersion  string `json:"game_version"`

	MainPlayerID uuid.UUID `json:"main_player"`

	Deaths       int `json:"deaths"`
	DamageTaken  int `json:"damage_taken"`
	DamageDealt  int `json:"damage_dealt"`
	Jumps        int `json:"jumps"`
	Sleeps       int `json:"sleeps"`
	SaveAndQuits int `json:"save_and_quits"`

	KilometersFlown   float64 `json:"kilometers_flown"`
	BreadEaten        int     `json:"bread_eaten"`
	ItemsEnchanted    int     `json:"items_enchanted"`
	EnderPearlsThrown int     `json:"ender_pearls_thrown"`
	TemplesRaided     int     `json:"temples_raided"`
	TNTPickedUp       int     `json:"tnt_picked_up"`
	TNTPlaced         int     `json:"tnt_placed"`

	CreepersKilled        int `json:"creepers_killed"`
	DrownedKilled         int `json:"drowned_killed"`
	WitherSkeletonsKilled int `json:"wither_skeletons_killed"`
	FishCollected         int `json:"fish_collected"`
	PhantomsKilled        int `json:"phantoms_killed"`

	SugarcaneCollected int `json:"sugarcane_collected"`
	LecternsMined      int `json:"lecterns_mined"`
	NetherrackMined    int `json:"netherrack_mined"`
	GoldMined          int `json:"gold_mined"`
	EnderChestsMined   int `json:"ender_chests_mined"`

	GoldIngotsPickedUp int `json:"gold_ingots_picked_up"`
	GoldIngotsDropped  int `json:"gold_ingots_dropped"`

	AnyoneHasGodApple bool `json:"anyone_has_god_apple"`
}

// NewWorldState returns an empty snapshot with every collection allocated.
func NewWorldState() *WorldState {
	return &WorldState{
		Players:               map[uuid.UUID]*Contribution{},
		CompletedAdvancements: Set{},
		CompletedCriteria:     Set{},
		BlocksPlaced:          Set{},
		DeathMessages:         Set{},
		PickupTotals:          map[string]int{},
		DropTotals:            map[string]int{},
		KillTotals:            map[string]int{},
	}
}

func (s *WorldState) IsAdvancementCompleted(id string) bool {
	return s.CompletedAdvancements.Contains(id)
}

func (s *WorldState) IsBlockPlaced(id string) bool {
	return s.BlocksPlaced.Contains(id)
}

func (s *WorldState) IsCriterionCompleted(advID, critID string) bool {
	return s.CompletedCriteria.Contains(CritKey(advID, critID))
}

// PickedUp reports how many of the item have been picked up, 0 if never.
func (s *WorldState) PickedUp(item string) int { return s.PickupTotals[item] }

// Dropped reports how many of the item have been dropped, 0 if never.
func (s *WorldState) Dropped(item string) int { return s.DropTotals[item] }

// KillCount reports how many of the mob have been killed, 0 if never.
func (s *WorldState) KillCount(mob string) int { return s.KillTotals[mob] }

// CompletionsOf compiles every player who completed the objective, with a
// timestamp at the precision the objective kind supports.
func (s *WorldState) CompletionsOf(obj catalog.Objective) map[uuid.UUID]time.Time {
	if obj == nil {
		return map[uuid.UUID]time.Time{}
	}
	return obj.Completions(s)
}

// catalog.Snapshot implementation.

func (s *WorldState) PlayersWithAdvancement(id string) map[uuid.UUID]time.Time {
	out := map[uuid.UUID]time.Time{}
	for pid, c := range s.Players {
		if at, ok := c.Advancements[id]; ok {
			out[pid] = at
		}
	}
	return out
}

func (s *WorldState) PlayersWithCriterion(advID, critID string) []uuid.UUID {
	key := CritKey(advID, critID)
	var out []uuid.UUID
	for pid, c := range s.Players {
		if c.Criteria.Contains(key) {
			out = append(out, pid)
		}
	}
	return out
}

func (s *WorldState) PlayersWithBlock(id string) []uuid.UUID {
	var out []uuid.UUID
	for pid, c := range s.Players {
		if c.IncludesBlock(id) {
			out = append(out, pid)
		}
	}
	return out
}

func (s *WorldState) DeathObserved(id string) bool {
	return s.DeathMessages.Contains(id)
}

func (s *WorldState) MainPlayer() uuid.UUID { return s.MainPlayerID }

// withDeathMessages returns a shallow copy publishing a different death
// set. Every other collection is shared with the receiver, which is safe
// because published snapshots are never mutated.
func (s *WorldState) withDeathMessages(deaths Set) *WorldState {
	next := *s
	next.DeathMessages = deaths
	return &next
}
