package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/LuizLoyola/AATool/internal/tracker/progress"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func passState(players int, done []string, deaths int) *progress.WorldState {
	s := progress.NewWorldState()
	s.GameCategory = "all_advancements"
	s.GameVersion = "1.16"
	s.InGameTime = 30 * time.Minute
	s.Deaths = deaths
	for i := 0; i < players; i++ {
		id := uuid.New()
		s.Players[id] = progress.NewContribution(id)
	}
	for _, adv := range done {
		s.CompletedAdvancements.Add(adv)
	}
	return s
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("empty path should fail")
	}
}

func TestRecordPass_AndLastPasses(t *testing.T) {
	s := openTestIndex(t)

	s.RecordPass(passState(2, []string{"minecraft:story/mine_stone"}, 1))
	s.RecordPass(passState(3, []string{"minecraft:story/mine_stone", "minecraft:end/kill_dragon"}, 4))
	s.Flush()

	passes, err := s.LastPasses(context.Background(), 10)
	if err != nil {
		t.Fatalf("last passes: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("passes = %d, want 2", len(passes))
	}
	// Newest first.
	if passes[0].Players != 3 || passes[0].AdvancementsDone != 2 || passes[0].Deaths != 4 {
		t.Fatalf("newest pass = %+v", passes[0])
	}
	if passes[1].Players != 2 || passes[1].AdvancementsDone != 1 {
		t.Fatalf("older pass = %+v", passes[1])
	}
	if passes[0].InGameTime != 30*time.Minute {
		t.Fatalf("in-game time = %v", passes[0].InGameTime)
	}
	if passes[0].Category != "all_advancements" || passes[0].Version != "1.16" {
		t.Fatalf("stamp = %q %q", passes[0].Category, passes[0].Version)
	}

	limited, err := s.LastPasses(context.Background(), 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit ignored: %v %d", err, len(limited))
	}
}

func TestFirstCompletion_IsImmutable(t *testing.T) {
	s := openTestIndex(t)
	player := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	later := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	at := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)

	state := progress.NewWorldState()
	state.Players[player] = progress.NewContribution(player)
	state.Players[player].AddAdvancement("minecraft:end/kill_dragon", at)
	s.RecordPass(state)
	s.Flush()

	who, when, ok, err := s.FirstCompletion(context.Background(), "minecraft:end/kill_dragon")
	if err != nil || !ok {
		t.Fatalf("first completion missing: ok=%v err=%v", ok, err)
	}
	if who != player.String() || when != at.Format(time.RFC3339) {
		t.Fatalf("first completion = %q %q", who, when)
	}

	// A second player completing later must not displace the record.
	replay := progress.NewWorldState()
	replay.Players[later] = progress.NewContribution(later)
	replay.Players[later].AddAdvancement("minecraft:end/kill_dragon", at.Add(time.Hour))
	s.RecordPass(replay)
	s.Flush()

	who2, when2, ok, err := s.FirstCompletion(context.Background(), "minecraft:end/kill_dragon")
	if err != nil || !ok {
		t.Fatalf("first completion lost: ok=%v err=%v", ok, err)
	}
	if who2 != who || when2 != when {
		t.Fatalf("first completion moved: %q %q -> %q %q", who, when, who2, when2)
	}

	if _, _, ok, err := s.FirstCompletion(context.Background(), "minecraft:never/observed"); err != nil || ok {
		t.Fatalf("unknown advancement: ok=%v err=%v", ok, err)
	}
}

func TestRecordPass_AfterCloseIsNoOp(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Must not panic on the closed channel.
	s.RecordPass(passState(1, nil, 0))
	s.Flush()

	var nilIndex *SQLiteIndex
	nilIndex.RecordPass(passState(1, nil, 0))
	nilIndex.Flush()
}
