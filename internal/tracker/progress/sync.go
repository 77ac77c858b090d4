package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/saves"
	"github.com/LuizLoyola/AATool/internal/tracker/catalog"
)

// Holding an enchanted golden apple unlocks the mojang banner pattern
// recipe, so the recipe advancement doubles as a "someone has the god
// apple" signal even when the apple never left a chest.
const (
	EGapItem     = "minecraft:enchanted_golden_apple"
	BannerRecipe = "minecraft:recipes/misc/mojang_banner_pattern"
)

// buildState runs one full synchronization pass against the save source
// and returns a freshly built snapshot. The source being nil or empty is a
// valid "no data" outcome, not an error. Nothing here touches the
// previously published snapshot.
func buildState(cat *catalog.Catalog, src saves.Source, main uuid.UUID) *WorldState {
	s := NewWorldState()
	s.GameCategory = string(cat.Category)
	s.GameVersion = cat.Version
	s.MainPlayerID = main

	if src == nil || src.IsEmpty() {
		return s
	}

	if cat.Category == catalog.AllAchievements {
		s.syncAchievements(cat, src)
	} else {
		s.syncAdvancements(cat, src)
	}
	s.syncStatistics(cat, src)
	return s
}

func (s *WorldState) syncAdvancements(cat *catalog.Catalog, src saves.Source) {
	for _, id := range src.PlayerIDs() {
		s.Players[id] = NewContribution(id)
	}

	for _, advID := range cat.AdvancementOrder {
		adv := cat.Advancements[advID]

		if completions, ok := src.AdvancementCompletions(advID); ok {
			s.CompletedAdvancements.Add(advID)
			for pid, at := range completions {
				// The save may reference a player that vanished
				// between enumeration and this query; skip it.
				if player, ok := s.Players[pid]; ok {
					player.AddAdvancement(advID, at)
				}
			}
		}

		if adv.HasCriteria() {
			for pid, crits := range src.CriteriaCompletions(advID) {
				player, ok := s.Players[pid]
				if !ok {
					continue
				}
				for _, crit := range crits {
					player.AddCriterion(crit.Advancement, crit.Criterion)
					s.CompletedCriteria.Add(CritKey(crit.Advancement, crit.Criterion))
				}
			}
		}
	}

	s.AnyoneHasGodApple = false
	if holders, ok := src.AdvancementCompletions(BannerRecipe); ok {
		for pid := range holders {
			if player, ok := s.Players[pid]; ok {
				player.HasGodApple = true
				s.AnyoneHasGodApple = true
			}
		}
	}
}

// syncAchievements is the legacy-ruleset mirror of syncAdvancements.
// Achievements carry no completion timestamps and no god-apple proxy.
func (s *WorldState) syncAchievements(cat *catalog.Catalog, src saves.Source) {
	for _, id := range src.PlayerIDs() {
		s.Players[id] = NewContribution(id)
	}

	for _, achID := range cat.AdvancementOrder {
		ach := cat.Advancements[achID]

		if holders, ok := src.AchievementHolders(achID); ok {
			s.CompletedAdvancements.Add(achID)
			for _, pid := range holders {
				if player, ok := s.Players[pid]; ok {
					player.AddAdvancement(achID, time.Time{})
				}
			}
		}

		if ach.HasCriteria() {
			for pid, crits := range src.CriteriaCompletions(achID) {
				player, ok := s.Players[pid]
				if !ok {
					continue
				}
				for _, crit := range crits {
					player.AddCriterion(crit.Advancement, crit.Criterion)
					s.CompletedCriteria.Add(CritKey(crit.Advancement, crit.Criterion))
				}
			}
		}
	}
}

func (s *WorldState) syncStatistics(cat *catalog.Catalog, src saves.Source) {
	s.InGameTime = src.InGameTime()

	s.Deaths = src.TotalDeaths()
	s.Jumps = src.TotalJumps()
	s.Sleeps = src.TotalSleeps()
	s.DamageTaken = src.TotalDamageTaken()
	s.DamageDealt = src.TotalDamageDealt()
	s.SaveAndQuits = src.TotalSaveAndQuits()

	s.KilometersFlown = src.KilometersFlown()
	s.BreadEaten = src.TimesUsed("bread")
	s.ItemsEnchanted = src.ItemsEnchanted()
	s.EnderPearlsThrown = src.TimesUsed("ender_pearl")
	s.TNTPickedUp, _ = src.TimesPickedUp("minecraft:tnt")
	s.TNTPlaced = src.TimesUsed("tnt")
	// Desert temples hide 9 TNT under the floor.
	s.TemplesRaided = src.TimesMined("tnt") / 9

	s.CreepersKilled = src.KillsOf("creeper")
	s.DrownedKilled = src.KillsOf("drowned")
	s.WitherSkeletonsKilled = src.KillsOf("wither_skeleton")
	s.FishCollected = src.KillsOf("cod") + src.KillsOf("salmon")
	s.PhantomsKilled = src.KillsOf("phantom")

	s.LecternsMined = src.TimesMined("lectern")
	s.SugarcaneCollected, _ = src.TimesPickedUp("minecraft:sugar_cane")
	s.NetherrackMined = src.TimesMined("netherrack")
	s.GoldMined = src.TimesMined("gold_block")
	s.EnderChestsMined = src.TimesMined("ender_chest")

	s.GoldIngotsPickedUp, _ = src.TimesPickedUp("minecraft:gold_ingot")
	s.GoldIngotsDropped, _ = src.TimesDropped("minecraft:gold_ingot")

	for _, item := range cat.TrackedItems() {
		pickups, pickupsByPlayer := src.TimesPickedUp(item)
		if pickups > 0 {
			s.PickupTotals[item] += pickups
			for pid, n := range pickupsByPlayer {
				if player, ok := s.Players[pid]; ok {
					player.AddItemCount(item, n)
				}
			}
		}

		drops, dropsByPlayer := src.TimesDropped(item)
		if drops > 0 {
			s.DropTotals[item] += drops
			for pid, n := range dropsByPlayer {
				if player, ok := s.Players[pid]; ok {
					player.AddDropCount(item, n)
				}
			}
		}
	}

	s.syncKillTotals(cat, src)

	for _, blockID := range cat.BlockOrder {
		holders, ok := src.BlockUseHolders(blockID)
		if !ok {
			continue
		}
		s.BlocksPlaced.Add(blockID)
		for _, pid := range holders {
			if player, ok := s.Players[pid]; ok {
				player.AddBlock(blockID)
			}
		}
	}
}

// syncKillTotals records the aggregate kill counters the read surface and
// the serialized snapshot expose via KillCount.
func (s *WorldState) syncKillTotals(cat *catalog.Catalog, src saves.Source) {
	for _, mob := range trackedMobs {
		if n := src.KillsOf(mob); n > 0 {
			s.KillTotals[mob] = n
		}
	}
}

// Mobs whose kill totals feed the run-completion statistics.
var trackedMobs = []string{
	"creeper",
	"drowned",
	"wither_skeleton",
	"cod",
	"salmon",
	"phantom",
}
