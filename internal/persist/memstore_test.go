package persist

import (
	"context"
	"testing"
)

func TestMemStoreLoadMissing(t *testing.T) {
	store := NewMemStore()
	row, err := store.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if row != nil {
		t.Fatalf("row for an unknown player: %+v", row)
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()
	saved := &ProfileRow{
		PlayerID:   42,
		Name:       "Ana",
		Stats:      map[string]float64{"click_damage_add": 3},
		Rewards:    map[string]RewardRow{"crab": {Count: 2, CPS: 12}},
		Gems:       7,
		BestReward: 24,
	}
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	row, err := store.Load(context.Background(), 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if row == nil {
		t.Fatal("no row")
	}
	if row.Name != "Ana" || row.Gems != 7 || row.BestReward != 24 {
		t.Errorf("row = %+v", row)
	}
	if row.Stats["click_damage_add"] != 3 {
		t.Errorf("stats = %v", row.Stats)
	}
	if r := row.Rewards["crab"]; r.Count != 2 || r.CPS != 12 {
		t.Errorf("rewards = %v", row.Rewards)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d", store.Count())
	}
}

// Stored rows must not share maps with the caller in either direction —
// saves run on I/O goroutines while the loop keeps mutating its copy.
func TestMemStoreCopiesRows(t *testing.T) {
	store := NewMemStore()
	saved := &ProfileRow{
		PlayerID: 42,
		Stats:    map[string]float64{"gem_find_add": 1},
		Rewards:  map[string]RewardRow{"crab": {Count: 1, CPS: 12}},
	}
	store.Save(context.Background(), saved)

	// Mutating the saved row after the fact must not leak into the store.
	saved.Stats["gem_find_add"] = 99
	saved.Rewards["slug"] = RewardRow{Count: 5}

	row, _ := store.Load(context.Background(), 42)
	if row.Stats["gem_find_add"] != 1 {
		t.Error("store shares the saver's stats map")
	}
	if _, ok := row.Rewards["slug"]; ok {
		t.Error("store shares the saver's rewards map")
	}

	// And mutating a loaded row must not corrupt the store.
	row.Stats["gem_find_add"] = 77
	again, _ := store.Load(context.Background(), 42)
	if again.Stats["gem_find_add"] != 1 {
		t.Error("store shares the loaded row's stats map")
	}
}

func TestMemStoreSaveOverwrites(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	store.Save(ctx, &ProfileRow{PlayerID: 42, Gems: 1})
	store.Save(ctx, &ProfileRow{PlayerID: 42, Gems: 5})

	row, _ := store.Load(ctx, 42)
	if row.Gems != 5 {
		t.Errorf("gems = %d", row.Gems)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d", store.Count())
	}
}
