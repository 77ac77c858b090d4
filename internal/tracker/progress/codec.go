package progress

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Encode serializes a snapshot to its durable textual form. The active
// catalogue category and version are stamped into the encoded text rather
// than onto the state, which stays immutable after publication.
func Encode(s *WorldState, category, version string) []byte {
	data, err := json.Marshal(s)
	if err != nil {
		// Only unmarshalable field types can trip Marshal here, and the
		// struct has none; keep the contract total anyway.
		data = []byte("{}")
	}
	data, _ = sjson.SetBytes(data, "game_category", category)
	data, _ = sjson.SetBytes(data, "game_version", version)
	return data
}

// Decode reconstructs a snapshot from its textual form. It never fails:
// malformed input yields a fresh empty state. Decoding runs in two passes.
// The typed pass fills the scalar fields; the collection fields are then
// re-extracted independently from the raw text, because the set and map
// fields have shifted encoding shape across snapshot versions (sets as
// arrays vs. id->bool objects) and a decoder tied to one shape would
// silently drop a differently-shaped blob's collections.
func Decode(data []byte) *WorldState {
	if !gjson.ValidBytes(data) {
		return NewWorldState()
	}
	s := NewWorldState()
	if err := json.Unmarshal(data, s); err != nil {
		// A shape mismatch in one field aborts the whole typed pass; start
		// over from an empty state and let the raw pass recover what it can.
		s = NewWorldState()
	}

	root := gjson.ParseBytes(data)
	s.Players = decodePlayers(root.Get("players"))
	s.CompletedAdvancements = decodeSet(root.Get("completed_advancements"))
	s.CompletedCriteria = decodeSet(root.Get("completed_criteria"))
	s.BlocksPlaced = decodeSet(root.Get("blocks_placed"))
	s.DeathMessages = decodeSet(root.Get("death_messages"))
	s.PickupTotals = decodeCounts(root.Get("pickup_totals"))
	s.DropTotals = decodeCounts(root.Get("drop_totals"))
	s.KillTotals = decodeCounts(root.Get("kill_totals"))
	return s
}

// decodeSet accepts both encoding shapes a set has had: a JSON array of
// ids, and an object of id -> truthy value.
func decodeSet(v gjson.Result) Set {
	set := Set{}
	switch {
	case v.IsArray():
		v.ForEach(func(_, item gjson.Result) bool {
			set.Add(item.String())
			return true
		})
	case v.IsObject():
		v.ForEach(func(key, val gjson.Result) bool {
			if val.Bool() {
				set.Add(key.String())
			}
			return true
		})
	}
	return set
}

func decodeCounts(v gjson.Result) map[string]int {
	counts := map[string]int{}
	if v.IsObject() {
		v.ForEach(func(key, val gjson.Result) bool {
			counts[key.String()] = int(val.Int())
			return true
		})
	}
	return counts
}

func decodePlayers(v gjson.Result) map[uuid.UUID]*Contribution {
	players := map[uuid.UUID]*Contribution{}
	if !v.IsObject() {
		return players
	}
	v.ForEach(func(key, val gjson.Result) bool {
		id, err := uuid.Parse(key.String())
		if err != nil {
			return true
		}
		players[id] = decodeContribution(id, val)
		return true
	})
	return players
}

func decodeContribution(id uuid.UUID, v gjson.Result) *Contribution {
	c := NewContribution(id)
	v.Get("advancements").ForEach(func(key, val gjson.Result) bool {
		at, err := time.Parse(time.RFC3339Nano, val.String())
		if err != nil {
			at = time.Time{}
		}
		c.Advancements[key.String()] = at
		return true
	})
	c.Criteria = decodeSet(v.Get("criteria"))
	c.Blocks = decodeSet(v.Get("blocks"))
	c.ItemCounts = decodeCounts(v.Get("item_counts"))
	c.DropCounts = decodeCounts(v.Get("drop_counts"))
	c.HasGodApple = v.Get("has_god_apple").Bool()
	return c
}
