package saves

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Advancement files store criterion timestamps in this layout.
const advTimeLayout = "2006-01-02 15:04:05 -0700"

// Statistic group keys in modern (1.13+) stats files.
const (
	groupCustom   = "minecraft:custom"
	groupUsed     = "minecraft:used"
	groupMined    = "minecraft:mined"
	groupPickedUp = "minecraft:picked_up"
	groupDropped  = "minecraft:dropped"
	groupKilled   = "minecraft:killed"
)

// One in-game tick is 50ms; distance counters are in centimeters.
const (
	ticksPerSecond = 20
	cmPerKilometer = 100_000
)

// WorldFolder reads a Minecraft-format save directory:
// advancements/<uuid>.json and stats/<uuid>.json, one pair per player.
// Refresh rescans the directory; queries serve the last good scan. The
// files are schemaless player-produced JSON, so parsing goes through gjson
// rather than typed decoding.
type WorldFolder struct {
	dir string

	mu      sync.RWMutex
	players map[uuid.UUID]*playerData
}

type playerData struct {
	id uuid.UUID

	advDone     map[string]time.Time
	advCriteria map[string][]string

	achievements map[string]bool
	achCriteria  map[string][]string

	stats map[string]map[string]int
}

func NewWorldFolder(dir string) *WorldFolder {
	return &WorldFolder{dir: dir, players: map[uuid.UUID]*playerData{}}
}

// Dir returns the save directory this reader is bound to.
func (w *WorldFolder) Dir() string { return w.dir }

// Refresh rescans the save directory. Unreadable or corrupt player files
// are skipped; the scan itself only fails softly by producing fewer
// players. Refresh never returns partial state to readers: the player map
// is swapped in whole under the lock.
func (w *WorldFolder) Refresh() {
	players := map[uuid.UUID]*playerData{}

	for id, path := range w.playerFiles("advancements") {
		p := ensurePlayer(players, id)
		parseAdvancementFile(p, path)
	}
	for id, path := range w.playerFiles("stats") {
		p := ensurePlayer(players, id)
		parseStatsFile(p, path)
	}

	w.mu.Lock()
	w.players = players
	w.mu.Unlock()
}

// playerFiles maps player uuid -> file path for every well-named .json file
// in the given subdirectory. Files not named after a uuid are ignored.
func (w *WorldFolder) playerFiles(sub string) map[uuid.UUID]string {
	out := map[uuid.UUID]string{}
	entries, err := os.ReadDir(filepath.Join(w.dir, sub))
	if err != nil {
		return out
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out[id] = filepath.Join(w.dir, sub, name)
	}
	return out
}

func ensurePlayer(players map[uuid.UUID]*playerData, id uuid.UUID) *playerData {
	if p, ok := players[id]; ok {
		return p
	}
	p := &playerData{
		id:           id,
		advDone:      map[string]time.Time{},
		advCriteria:  map[string][]string{},
		achievements: map[string]bool{},
		achCriteria:  map[string][]string{},
		stats:        map[string]map[string]int{},
	}
	players[id] = p
	return p
}

func parseAdvancementFile(p *playerData, path string) {
	raw, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(raw) {
		return
	}
	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if id == "DataVersion" || !value.IsObject() {
			return true
		}

		var crits []string
		var latest time.Time
		value.Get("criteria").ForEach(func(ck, cv gjson.Result) bool {
			crits = append(crits, ck.String())
			if at, err := time.Parse(advTimeLayout, cv.String()); err == nil && at.After(latest) {
				latest = at
			}
			return true
		})

		if len(crits) > 0 {
			p.advCriteria[id] = crits
		}
		if value.Get("done").Bool() {
			// The game stamps no completion time on the advancement
			// itself; the newest criterion timestamp stands in.
			p.advDone[id] = latest
		}
		return true
	})
}

func parseStatsFile(p *playerData, path string) {
	raw, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(raw) {
		return
	}

	if stats := gjson.GetBytes(raw, "stats"); stats.Exists() {
		stats.ForEach(func(group, counters gjson.Result) bool {
			g := map[string]int{}
			counters.ForEach(func(k, v gjson.Result) bool {
				g[k.String()] = int(v.Int())
				return true
			})
			p.stats[group.String()] = g
			return true
		})
		return
	}

	// Legacy (pre-1.13) flat layout. Achievements live alongside stats;
	// multi-part achievements carry a "progress" list of completed parts.
	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		if !strings.HasPrefix(id, "achievement.") {
			return true
		}
		switch {
		case value.IsObject():
			if value.Get("value").Int() > 0 {
				p.achievements[id] = true
			}
			value.Get("progress").ForEach(func(_, part gjson.Result) bool {
				p.achCriteria[id] = append(p.achCriteria[id], part.String())
				return true
			})
		case value.Int() > 0:
			p.achievements[id] = true
		}
		return true
	})
}

func (w *WorldFolder) snapshot() map[uuid.UUID]*playerData {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.players
}

func (w *WorldFolder) IsEmpty() bool {
	return len(w.snapshot()) == 0
}

func (w *WorldFolder) PlayerIDs() []uuid.UUID {
	players := w.snapshot()
	ids := make([]uuid.UUID, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	return ids
}

func (w *WorldFolder) AdvancementCompletions(id string) (map[uuid.UUID]time.Time, bool) {
	out := map[uuid.UUID]time.Time{}
	for pid, p := range w.snapshot() {
		if at, ok := p.advDone[id]; ok {
			out[pid] = at
		}
	}
	return out, len(out) > 0
}

func (w *WorldFolder) CriteriaCompletions(advID string) map[uuid.UUID][]Criterion {
	out := map[uuid.UUID][]Criterion{}
	for pid, p := range w.snapshot() {
		for _, crit := range p.advCriteria[advID] {
			out[pid] = append(out[pid], Criterion{Advancement: advID, Criterion: crit})
		}
		for _, crit := range p.achCriteria[advID] {
			out[pid] = append(out[pid], Criterion{Advancement: advID, Criterion: crit})
		}
	}
	return out
}

func (w *WorldFolder) AchievementHolders(id string) ([]uuid.UUID, bool) {
	var holders []uuid.UUID
	for pid, p := range w.snapshot() {
		if p.achievements[id] {
			holders = append(holders, pid)
		}
	}
	return holders, len(holders) > 0
}

// custom returns the summed value of one minecraft:custom counter.
func (w *WorldFolder) custom(key string) int {
	total := 0
	for _, p := range w.snapshot() {
		total += p.stats[groupCustom][qualify(key)]
	}
	return total
}

// grouped returns the total and per-player breakdown of one counter in the
// given statistic group.
func (w *WorldFolder) grouped(group, id string) (int, map[uuid.UUID]int) {
	total := 0
	byPlayer := map[uuid.UUID]int{}
	for pid, p := range w.snapshot() {
		if n := p.stats[group][qualify(id)]; n > 0 {
			total += n
			byPlayer[pid] = n
		}
	}
	return total, byPlayer
}

// InGameTime reports the longest play time across players, which tracks the
// age of the world in a co-op run.
func (w *WorldFolder) InGameTime() time.Duration {
	longest := 0
	for _, p := range w.snapshot() {
		ticks := p.stats[groupCustom]["minecraft:play_time"]
		if ticks == 0 {
			// Renamed from play_one_minute in 1.17.
			ticks = p.stats[groupCustom]["minecraft:play_one_minute"]
		}
		if ticks > longest {
			longest = ticks
		}
	}
	return time.Duration(longest/ticksPerSecond) * time.Second
}

func (w *WorldFolder) TotalDeaths() int       { return w.custom("deaths") }
func (w *WorldFolder) TotalJumps() int        { return w.custom("jump") }
func (w *WorldFolder) TotalSleeps() int       { return w.custom("sleep_in_bed") }
func (w *WorldFolder) TotalDamageTaken() int  { return w.custom("damage_taken") }
func (w *WorldFolder) TotalDamageDealt() int  { return w.custom("damage_dealt") }
func (w *WorldFolder) TotalSaveAndQuits() int { return w.custom("leave_game") }
func (w *WorldFolder) ItemsEnchanted() int    { return w.custom("enchant_item") }

func (w *WorldFolder) KilometersFlown() float64 {
	return float64(w.custom("aviate_one_cm")) / cmPerKilometer
}

func (w *WorldFolder) TimesUsed(item string) int {
	n, _ := w.grouped(groupUsed, item)
	return n
}

func (w *WorldFolder) TimesMined(block string) int {
	n, _ := w.grouped(groupMined, block)
	return n
}

func (w *WorldFolder) TimesPickedUp(item string) (int, map[uuid.UUID]int) {
	return w.grouped(groupPickedUp, item)
}

func (w *WorldFolder) TimesDropped(item string) (int, map[uuid.UUID]int) {
	return w.grouped(groupDropped, item)
}

func (w *WorldFolder) KillsOf(mob string) int {
	n, _ := w.grouped(groupKilled, mob)
	return n
}

func (w *WorldFolder) BlockUseHolders(block string) ([]uuid.UUID, bool) {
	_, byPlayer := w.grouped(groupUsed, block)
	if len(byPlayer) == 0 {
		return nil, false
	}
	holders := make([]uuid.UUID, 0, len(byPlayer))
	for pid := range byPlayer {
		holders = append(holders, pid)
	}
	return holders, true
}

// qualify prefixes the default namespace when the id has none, so callers
// can use "tnt" and "minecraft:tnt" interchangeably.
func qualify(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return "minecraft:" + id
}
