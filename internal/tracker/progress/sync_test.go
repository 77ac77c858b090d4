package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/saves"
	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ghost = uuid.MustParse("99999999-9999-9999-9999-999999999999")
)

// fakeSource is an in-memory saves.Source for sync tests.
type fakeSource struct {
	empty   bool
	players []uuid.UUID

	advancements map[string]map[uuid.UUID]time.Time
	criteria     map[string]map[uuid.UUID][]saves.Criterion
	achievements map[string][]uuid.UUID

	inGameTime time.Duration
	deaths     int

	used     map[string]int
	mined    map[string]int
	pickedUp map[string]map[uuid.UUID]int
	dropped  map[string]map[uuid.UUID]int
	kills    map[string]int
	blockUse map[string][]uuid.UUID
}

func (f *fakeSource) IsEmpty() bool          { return f.empty }
func (f *fakeSource) PlayerIDs() []uuid.UUID { return f.players }

func (f *fakeSource) AdvancementCompletions(id string) (map[uuid.UUID]time.Time, bool) {
	m := f.advancements[id]
	return m, len(m) > 0
}

func (f *fakeSource) CriteriaCompletions(advID string) map[uuid.UUID][]saves.Criterion {
	return f.criteria[advID]
}

func (f *fakeSource) AchievementHolders(id string) ([]uuid.UUID, bool) {
	holders := f.achievements[id]
	return holders, len(holders) > 0
}

func (f *fakeSource) InGameTime() time.Duration { return f.inGameTime }
func (f *fakeSource) TotalDeaths() int          { return f.deaths }
func (f *fakeSource) TotalJumps() int           { return 0 }
func (f *fakeSource) TotalSleeps() int          { return 0 }
func (f *fakeSource) TotalDamageTaken() int     { return 0 }
func (f *fakeSource) TotalDamageDealt() int     { return 0 }
func (f *fakeSource) TotalSaveAndQuits() int    { return 0 }
func (f *fakeSource) KilometersFlown() float64  { return 0 }
func (f *fakeSource) ItemsEnchanted() int       { return 0 }

func (f *fakeSource) TimesUsed(item string) int   { return f.used[item] }
func (f *fakeSource) TimesMined(block string) int { return f.mined[block] }

func (f *fakeSource) TimesPickedUp(item string) (int, map[uuid.UUID]int) {
	byPlayer := f.pickedUp[item]
	total := 0
	for _, n := range byPlayer {
		total += n
	}
	return total, byPlayer
}

func (f *fakeSource) TimesDropped(item string) (int, map[uuid.UUID]int) {
	byPlayer := f.dropped[item]
	total := 0
	for _, n := range byPlayer {
		total += n
	}
	return total, byPlayer
}

func (f *fakeSource) KillsOf(mob string) int { return f.kills[mob] }

func (f *fakeSource) BlockUseHolders(block string) ([]uuid.UUID, bool) {
	holders := f.blockUse[block]
	return holders, len(holders) > 0
}

type fakeLog struct {
	text string
	ok   bool
}

func (f *fakeLog) CurrentLog() (string, bool) { return f.text, f.ok }

func testCatalog(t *testing.T, category catalog.Category) *catalog.Catalog {
	t.Helper()
	version := "1.16"
	if category == catalog.AllAchievements {
		version = "1.11"
	}
	cat, err := catalog.Load("../../../configs", category, version)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestSync_EmptySourceYieldsEmptyState(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	tr := NewTracker(cat, nil, nil)

	if !tr.Sync(&fakeSource{empty: true}) {
		t.Fatalf("sync reported busy")
	}
	s := tr.State()

	if len(s.Players) != 0 || len(s.CompletedAdvancements) != 0 ||
		len(s.CompletedCriteria) != 0 || len(s.BlocksPlaced) != 0 ||
		len(s.DeathMessages) != 0 || len(s.PickupTotals) != 0 ||
		len(s.DropTotals) != 0 || len(s.KillTotals) != 0 {
		t.Fatalf("expected all collections empty: %+v", s)
	}
	if s.InGameTime != 0 || s.Deaths != 0 || s.TemplesRaided != 0 || s.KilometersFlown != 0 {
		t.Fatalf("expected all statistics zero")
	}
	if s.GameCategory != string(catalog.AllAdvancements) || s.GameVersion != "1.16" {
		t.Fatalf("category/version not stamped: %q %q", s.GameCategory, s.GameVersion)
	}
}

func TestSync_AdvancementsAggregateAndPerPlayerAgree(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	at := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		advancements: map[string]map[uuid.UUID]time.Time{
			"minecraft:story/mine_stone": {alice: at},
			"minecraft:end/kill_dragon":  {alice: at, bob: at.Add(time.Minute)},
		},
		criteria: map[string]map[uuid.UUID][]saves.Criterion{
			"minecraft:nether/explore_nether": {
				bob: {
					{Advancement: "minecraft:nether/explore_nether", Criterion: "minecraft:crimson_forest"},
					{Advancement: "minecraft:nether/explore_nether", Criterion: "minecraft:warped_forest"},
				},
			},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	s := tr.State()

	for _, advID := range []string{"minecraft:story/mine_stone", "minecraft:end/kill_dragon"} {
		if !s.IsAdvancementCompleted(advID) {
			t.Fatalf("%s should be completed", advID)
		}
		holders := s.PlayersWithAdvancement(advID)
		if len(holders) == 0 {
			t.Fatalf("%s completed but no player contribution records it", advID)
		}
	}
	if s.IsAdvancementCompleted("minecraft:story/smelt_iron") {
		t.Fatalf("smelt_iron should not be completed")
	}

	if got := s.Players[alice].Advancements["minecraft:story/mine_stone"]; !got.Equal(at) {
		t.Fatalf("alice mine_stone time = %v, want %v", got, at)
	}

	if !s.IsCriterionCompleted("minecraft:nether/explore_nether", "minecraft:crimson_forest") {
		t.Fatalf("crimson_forest criterion should be completed")
	}
	if !s.Players[bob].Criteria.Contains(CritKey("minecraft:nether/explore_nether", "minecraft:warped_forest")) {
		t.Fatalf("bob's contribution missing warped_forest")
	}
	if s.IsCriterionCompleted("minecraft:nether/explore_nether", "minecraft:basalt_deltas") {
		t.Fatalf("basalt_deltas should not be completed")
	}
}

func TestSync_UnknownPlayerEntriesAreSkipped(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	src := &fakeSource{
		players: []uuid.UUID{alice},
		advancements: map[string]map[uuid.UUID]time.Time{
			// ghost never appeared in the enumerated player set.
			"minecraft:story/mine_stone": {alice: time.Now(), ghost: time.Now()},
		},
		criteria: map[string]map[uuid.UUID][]saves.Criterion{
			"minecraft:nether/explore_nether": {
				ghost: {{Advancement: "minecraft:nether/explore_nether", Criterion: "minecraft:nether_wastes"}},
			},
		},
		pickedUp: map[string]map[uuid.UUID]int{
			"minecraft:gold_ingot": {ghost: 7},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	s := tr.State()

	if _, ok := s.Players[ghost]; ok {
		t.Fatalf("ghost player must not gain a contribution")
	}
	if !s.IsAdvancementCompleted("minecraft:story/mine_stone") {
		t.Fatalf("aggregate completion should still be recorded")
	}
	// Aggregate totals still count the orphaned pickups.
	if got := s.PickedUp("minecraft:gold_ingot"); got != 7 {
		t.Fatalf("gold ingot pickups = %d, want 7", got)
	}
}

func TestSync_GodAppleProxyViaBannerRecipe(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		advancements: map[string]map[uuid.UUID]time.Time{
			BannerRecipe: {bob: time.Now()},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	s := tr.State()

	if !s.AnyoneHasGodApple {
		t.Fatalf("banner recipe holder should set the god apple flag")
	}
	if !s.Players[bob].HasGodApple {
		t.Fatalf("bob should be flagged")
	}
	if s.Players[alice].HasGodApple {
		t.Fatalf("alice should not be flagged")
	}
}

func TestSync_DerivedStatistics(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)

	for _, tc := range []struct {
		tntMined    int
		wantTemples int
	}{
		{tntMined: 27, wantTemples: 3},
		{tntMined: 0, wantTemples: 0},
	} {
		src := &fakeSource{
			players: []uuid.UUID{alice},
			mined:   map[string]int{"tnt": tc.tntMined},
			kills:   map[string]int{"cod": 4, "salmon": 2},
		}
		tr := NewTracker(cat, nil, nil)
		tr.Sync(src)
		s := tr.State()

		if s.TemplesRaided != tc.wantTemples {
			t.Fatalf("tnt mined %d: temples = %d, want %d", tc.tntMined, s.TemplesRaided, tc.wantTemples)
		}
		if s.FishCollected != 6 {
			t.Fatalf("fish collected = %d, want 6", s.FishCollected)
		}
	}
}

func TestSync_PickupsDropsAndBlocks(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		pickedUp: map[string]map[uuid.UUID]int{
			"minecraft:gold_ingot": {alice: 3, bob: 5},
		},
		dropped: map[string]map[uuid.UUID]int{
			"minecraft:gold_ingot": {bob: 2},
		},
		blockUse: map[string][]uuid.UUID{
			"minecraft:lectern": {alice},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	s := tr.State()

	if got := s.PickedUp("minecraft:gold_ingot"); got != 8 {
		t.Fatalf("pickup total = %d, want 8", got)
	}
	if got := s.Players[alice].ItemCounts["minecraft:gold_ingot"]; got != 3 {
		t.Fatalf("alice pickups = %d, want 3", got)
	}
	if got := s.Dropped("minecraft:gold_ingot"); got != 2 {
		t.Fatalf("drop total = %d, want 2", got)
	}
	if !s.IsBlockPlaced("minecraft:lectern") {
		t.Fatalf("lectern should be placed")
	}
	if !s.Players[alice].IncludesBlock("minecraft:lectern") {
		t.Fatalf("alice should be credited with the lectern")
	}
	if s.Players[bob].IncludesBlock("minecraft:lectern") {
		t.Fatalf("bob should not be credited with the lectern")
	}
}

func TestSync_DefaultZeroOnUnknownIDs(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	tr := NewTracker(cat, nil, nil)
	tr.Sync(&fakeSource{players: []uuid.UUID{alice}})
	s := tr.State()

	if s.PickedUp("nonexistent_item") != 0 {
		t.Fatalf("unknown item pickups should be 0")
	}
	if s.Dropped("nonexistent_item") != 0 {
		t.Fatalf("unknown item drops should be 0")
	}
	if s.KillCount("nonexistent_mob") != 0 {
		t.Fatalf("unknown mob kills should be 0")
	}
}

func TestSync_IdempotentOnUnchangedSource(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		advancements: map[string]map[uuid.UUID]time.Time{
			"minecraft:story/mine_stone": {alice: at},
		},
		pickedUp: map[string]map[uuid.UUID]int{
			"minecraft:tnt": {bob: 4},
		},
		mined: map[string]int{"tnt": 18},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	first := Encode(tr.State(), "all_advancements", "1.16")
	tr.Sync(src)
	second := Encode(tr.State(), "all_advancements", "1.16")

	if string(first) != string(second) {
		t.Fatalf("two syncs over an unchanged source diverged:\n%s\n%s", first, second)
	}
}

func TestSync_AchievementModeUsesAchievementSource(t *testing.T) {
	cat := testCatalog(t, catalog.AllAchievements)
	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		achievements: map[string][]uuid.UUID{
			"achievement.openInventory": {alice, bob},
			"achievement.diamonds":      {bob},
		},
		criteria: map[string]map[uuid.UUID][]saves.Criterion{
			"achievement.exploreAllBiomes": {
				alice: {{Advancement: "achievement.exploreAllBiomes", Criterion: "Beach"}},
			},
		},
		advancements: map[string]map[uuid.UUID]time.Time{
			// Must be ignored in achievement mode.
			BannerRecipe: {alice: time.Now()},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	s := tr.State()

	if !s.IsAdvancementCompleted("achievement.openInventory") {
		t.Fatalf("openInventory should be completed")
	}
	if !s.IsAdvancementCompleted("achievement.diamonds") {
		t.Fatalf("diamonds should be completed")
	}
	if !s.IsCriterionCompleted("achievement.exploreAllBiomes", "Beach") {
		t.Fatalf("Beach biome criterion should be completed")
	}
	if s.AnyoneHasGodApple {
		t.Fatalf("legacy ruleset has no god apple proxy")
	}
}

func TestSync_SnapshotSwapKeepsOldStateIntact(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	src := &fakeSource{
		players: []uuid.UUID{alice},
		advancements: map[string]map[uuid.UUID]time.Time{
			"minecraft:story/mine_stone": {alice: time.Now()},
		},
	}

	tr := NewTracker(cat, nil, nil)
	tr.Sync(src)
	old := tr.State()

	tr.Sync(&fakeSource{empty: true})

	// The reader that grabbed the old snapshot must still see it whole.
	if !old.IsAdvancementCompleted("minecraft:story/mine_stone") {
		t.Fatalf("previously published snapshot was mutated by a later sync")
	}
	if tr.State().IsAdvancementCompleted("minecraft:story/mine_stone") {
		t.Fatalf("new snapshot should be empty")
	}
}

func TestCompletionsOf_DispatchesByVariant(t *testing.T) {
	cat := testCatalog(t, catalog.AllAdvancements)
	at := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		players: []uuid.UUID{alice, bob},
		advancements: map[string]map[uuid.UUID]time.Time{
			"minecraft:end/kill_dragon": {alice: at},
		},
		criteria: map[string]map[uuid.UUID][]saves.Criterion{
			"minecraft:husbandry/balanced_diet": {
				bob: {{Advancement: "minecraft:husbandry/balanced_diet", Criterion: "bread"}},
			},
		},
		blockUse: map[string][]uuid.UUID{
			"minecraft:beacon": {bob},
		},
	}

	tr := NewTracker(cat, nil, nil, WithMainPlayer(alice), WithMainPlayerName("Alice"))
	tr.Sync(src)
	s := tr.State()

	adv, _ := cat.Advancement("minecraft:end/kill_dragon")
	got := s.CompletionsOf(adv)
	if len(got) != 1 || !got[alice].Equal(at) {
		t.Fatalf("advancement completions = %v", got)
	}

	crit, ok := cat.Criterion("minecraft:husbandry/balanced_diet", "bread")
	if !ok {
		t.Fatalf("bread criterion missing from catalog")
	}
	if holders := s.CompletionsOf(crit); len(holders) != 1 {
		t.Fatalf("criterion completions = %v", holders)
	} else if _, ok := holders[bob]; !ok {
		t.Fatalf("bread criterion should be attributed to bob")
	}

	block := cat.Blocks["minecraft:beacon"]
	if holders := s.CompletionsOf(block); len(holders) != 1 {
		t.Fatalf("block completions = %v", holders)
	}

	if got := s.CompletionsOf(nil); len(got) != 0 {
		t.Fatalf("nil objective should yield an empty map")
	}

	pickup := cat.Pickups["minecraft:elytra"]
	if got := s.CompletionsOf(pickup); len(got) != 0 {
		t.Fatalf("pickup completions should be empty, got %v", got)
	}
}
