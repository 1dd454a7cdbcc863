package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotclick/server/internal/core/event"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/scripting"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

func TestClickFeedback(t *testing.T) {
	deps, rec := newTestDeps()
	addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	combat.processClick(inst.ID, 101, base)

	cs := deps.World.Combat(inst.ID)
	if cs.Clicks != 1 {
		t.Fatalf("clicks = %v, want 1", cs.Clicks)
	}
	if rec.count(101, notify.KindShake) != 1 {
		t.Error("first click should shake")
	}
	if rec.count(101, notify.KindHealthCreate) != 1 {
		t.Error("first click should create the indicator")
	}
	if rec.count(101, notify.KindHighlightOn) != 1 {
		t.Error("first click should highlight")
	}
	if rec.count(101, notify.KindCrit) != 0 {
		t.Error("no crit expected at 0% chance")
	}

	// Second click: past the cooldown, inside the shake throttle.
	combat.processClick(inst.ID, 101, base.Add(150*time.Millisecond))
	if cs.Clicks != 2 {
		t.Fatalf("clicks = %v, want 2", cs.Clicks)
	}
	if rec.count(101, notify.KindShake) != 1 {
		t.Error("shake should be throttled on the second click")
	}
	if rec.count(101, notify.KindHealthCreate) != 1 {
		t.Error("indicator should be created once")
	}
	if rec.count(101, notify.KindHealthUpdate) != 1 {
		t.Error("second click should update the indicator")
	}

	health, ok := rec.last(101, notify.KindHealthUpdate).Data.(notify.Health)
	if !ok {
		t.Fatal("health payload has wrong type")
	}
	if health.Instance != inst.ID || health.Clicks != 2 || health.Required != 10 {
		t.Errorf("health payload wrong: %+v", health)
	}
}

func TestClickCooldownDebounce(t *testing.T) {
	deps, _ := newTestDeps()
	addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	combat.processClick(inst.ID, 101, base)
	combat.processClick(inst.ID, 101, base.Add(50*time.Millisecond))

	if got := deps.World.Combat(inst.ID).Clicks; got != 1 {
		t.Errorf("clicks = %v, want 1 (second click inside cooldown)", got)
	}
}

func TestClickIgnoresUnknownTargets(t *testing.T) {
	deps, rec := newTestDeps()
	addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// No combat state for this ID.
	combat.processClick(999999, 101, base)
	if len(rec.sent) != 0 {
		t.Error("unknown instance produced feedback")
	}

	// Unknown player.
	combat.processClick(inst.ID, 555, base)
	if deps.World.Combat(inst.ID).Clicks != 0 {
		t.Error("unknown player dealt damage")
	}

	// Dead state is frozen.
	cs := deps.World.Combat(inst.ID)
	cs.Dead = true
	combat.processClick(inst.ID, 101, base)
	if cs.Clicks != 0 {
		t.Error("dead instance accumulated damage")
	}
}

func TestClickCritDoublesDamage(t *testing.T) {
	deps, rec := newTestDeps()
	deps.Config.Balance.BaseCritChance = 100
	addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	combat.processClick(inst.ID, 101, base)

	if got := deps.World.Combat(inst.ID).Clicks; got != 2 {
		t.Fatalf("clicks = %v, want 2 (crit at base multiplier)", got)
	}
	crit, ok := rec.last(101, notify.KindCrit).Data.(notify.Crit)
	if !ok {
		t.Fatal("crit payload missing")
	}
	if crit.Instance != inst.ID || crit.Damage != 2 {
		t.Errorf("crit payload wrong: %+v", crit)
	}
}

func TestTenClicksKill(t *testing.T) {
	deps, rec := newTestDeps()
	deps.Config.Balance.BaseGemChance = 0 // deterministic payout
	killer := addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	var killed []event.InstanceKilled
	event.Subscribe(deps.Bus, func(ev event.InstanceKilled) {
		killed = append(killed, ev)
	})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var last time.Time
	for i := 0; i < 10; i++ {
		last = base.Add(time.Duration(i) * 150 * time.Millisecond)
		combat.processClick(inst.ID, 101, last)
	}

	// The threshold crossing tears the instance down in the same pass.
	if deps.World.Combat(inst.ID) != nil {
		t.Error("combat state survived the kill")
	}
	if deps.World.GetInstance(inst.ID) != nil {
		t.Error("instance still live after the kill")
	}
	if !inst.Anchored {
		t.Error("pooled instance lost its anchor flag")
	}
	if inst.Active {
		t.Error("released instance still marked active")
	}
	if deps.World.Pool.FreeCount("crab") != 1 {
		t.Errorf("pool free count = %d, want 1", deps.World.Pool.FreeCount("crab"))
	}
	if deps.World.SpawnRecordCount() != 0 {
		t.Error("spawn record survived the kill")
	}

	// Reward: one unit at the template's coin rate.
	owned := killer.Profile.Rewards["crab"]
	if owned == nil || owned.Count != 1 || owned.CPS != 12 {
		t.Fatalf("reward grant wrong: %+v", owned)
	}
	if killer.Profile.BestReward != 12 {
		t.Errorf("best reward = %v, want 12", killer.Profile.BestReward)
	}
	if killer.Profile.Gems != 0 {
		t.Errorf("gems awarded at 0%% chance: %d", killer.Profile.Gems)
	}
	if !killer.Dirty {
		t.Error("kill should dirty the profile")
	}

	reward, ok := rec.last(101, notify.KindReward).Data.(notify.Reward)
	if !ok {
		t.Fatal("reward notification missing")
	}
	if reward.Template != "crab" || reward.Count != 1 || reward.Coins != 12 || reward.Gems != 0 {
		t.Errorf("reward payload wrong: %+v", reward)
	}

	// Attacker UI teardown plus the unthrottled death feedback.
	if rec.count(101, notify.KindHealthDestroy) != 1 {
		t.Error("health indicator not destroyed")
	}
	if rec.count(101, notify.KindHighlightOff) != 1 {
		t.Error("highlight not removed")
	}
	if rec.count(101, notify.KindFocus) != 1 {
		t.Error("death focus missing")
	}
	lastShake, ok := rec.last(101, notify.KindShake).Data.(notify.Shake)
	if !ok || lastShake.Kind != notify.ShakeDeath {
		t.Errorf("final shake should be the death kind, got %+v", lastShake)
	}

	// Respawn was scheduled at the template's delay.
	due := deps.World.DueRespawns(last.Add(time.Hour))
	if len(due) != 1 {
		t.Fatalf("expected 1 respawn task, got %d", len(due))
	}
	if due[0].Template != "crab" || due[0].Area != "meadow" {
		t.Errorf("task wrong: %+v", due[0])
	}
	if !due[0].Due.Equal(last.Add(2 * time.Second)) {
		t.Errorf("due = %v, want kill+2s", due[0].Due)
	}

	// The kill event lands on the next tick.
	deps.Bus.SwapBuffers()
	deps.Bus.DispatchAll()
	if len(killed) != 1 {
		t.Fatalf("expected 1 kill event, got %d", len(killed))
	}
	if killed[0].InstanceID != inst.ID || killed[0].KillerID != 101 {
		t.Errorf("kill event wrong: %+v", killed[0])
	}

	// Clicking the corpse does nothing.
	combat.processClick(inst.ID, 101, last.Add(time.Second))
	if killer.Profile.Rewards["crab"].Count != 1 {
		t.Error("corpse click granted another reward")
	}
}

func TestDeathIsIdempotent(t *testing.T) {
	deps, _ := newTestDeps()
	deps.Config.Balance.BaseGemChance = 0
	killer := addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	cs := deps.World.Combat(inst.ID)
	cs.Clicks = 9
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	combat.processClick(inst.ID, 101, base)

	if !cs.Dead {
		t.Fatal("threshold crossing did not mark death")
	}

	// A stale reference re-entering the death path must be a no-op.
	combat.handleDeath(inst.ID, cs, killer, base)

	if killer.Profile.Rewards["crab"].Count != 1 {
		t.Errorf("double death granted %d rewards", killer.Profile.Rewards["crab"].Count)
	}
	if deps.World.PendingRespawns() != 1 {
		t.Errorf("double death scheduled %d respawns", deps.World.PendingRespawns())
	}
}

func TestKillAwardsGems(t *testing.T) {
	deps, rec := newTestDeps()
	deps.Config.Balance.BaseGemChance = 100
	killer := addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	cs := deps.World.Combat(inst.ID)
	cs.Clicks = 9
	combat.processClick(inst.ID, 101, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if killer.Profile.Gems < 1 || killer.Profile.Gems > 10 {
		t.Fatalf("gem award %d outside the weighted table range", killer.Profile.Gems)
	}
	reward, _ := rec.last(101, notify.KindReward).Data.(notify.Reward)
	if reward.Gems != killer.Profile.Gems {
		t.Errorf("notified gems %d != granted %d", reward.Gems, killer.Profile.Gems)
	}
}

func TestTwoPlayersShareTheKill(t *testing.T) {
	deps, rec := newTestDeps()
	deps.Config.Balance.BaseGemChance = 0
	p1 := addPlayer(deps, 1, 101, "ana")
	p2 := addPlayer(deps, 2, 102, "bo")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		pid := int64(101)
		if i%2 == 1 {
			pid = 102
		}
		combat.processClick(inst.ID, pid, base.Add(time.Duration(i)*120*time.Millisecond))
	}

	// The tenth click came from player 102: the whole payout is theirs.
	if p2.Profile.Rewards["crab"] == nil || p2.Profile.Rewards["crab"].Count != 1 {
		t.Error("killer missing the reward")
	}
	if p1.Profile.Rewards["crab"] != nil {
		t.Error("non-killer received a reward")
	}
	if rec.count(101, notify.KindReward) != 0 || rec.count(102, notify.KindReward) != 1 {
		t.Error("reward notification misrouted")
	}

	// Both attackers lose their indicators.
	if rec.count(101, notify.KindHealthDestroy) != 1 || rec.count(102, notify.KindHealthDestroy) != 1 {
		t.Error("teardown should reach every tracked attacker")
	}

	// Death feedback goes to the killer only.
	if rec.count(101, notify.KindFocus) != 0 || rec.count(102, notify.KindFocus) != 1 {
		t.Error("death focus misrouted")
	}
}

func TestRewardCPSSticksAcrossKills(t *testing.T) {
	deps, _ := newTestDeps()
	deps.Config.Balance.BaseGemChance = 0
	killer := addPlayer(deps, 1, 101, "ana")
	combat := NewCombatSystem(deps)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	inst := spawnOne(t, deps, "crab", "meadow")
	deps.World.Combat(inst.ID).Clicks = 9
	combat.processClick(inst.ID, 101, base)

	// Buy a coin upgrade between kills: the stored rate must not move.
	killer.Profile.Stats[world.StatCoinMultAdd] = 1

	inst2 := spawnOne(t, deps, "crab", "meadow")
	deps.World.Combat(inst2.ID).Clicks = 9
	combat.processClick(inst2.ID, 101, base.Add(time.Second))

	owned := killer.Profile.Rewards["crab"]
	if owned.Count != 2 {
		t.Errorf("count = %d, want 2", owned.Count)
	}
	if owned.CPS != 12 {
		t.Errorf("CPS moved to %v, should stay at first-grant 12", owned.CPS)
	}
	if killer.Profile.BestReward != 24 {
		t.Errorf("best reward = %v, want 24 (12 at 2x coin factor)", killer.Profile.BestReward)
	}
}

func TestKillCoinsLuaHook(t *testing.T) {
	deps, _ := newTestDeps()
	deps.Config.Balance.BaseGemChance = 0

	dir := t.TempDir()
	script := `function calc_kill_coins(ctx) return ctx.base_coins * 2 end`
	if err := os.WriteFile(filepath.Join(dir, "hooks.lua"), []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	eng, err := scripting.NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer eng.Close()
	deps.Scripting = eng

	killer := addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	deps.World.Combat(inst.ID).Clicks = 9
	combat.processClick(inst.ID, 101, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if got := killer.Profile.Rewards["crab"].CPS; got != 24 {
		t.Errorf("hook-adjusted CPS = %v, want 24", got)
	}
}

func TestQueueDrainsOnUpdate(t *testing.T) {
	deps, _ := newTestDeps()
	addPlayer(deps, 1, 101, "ana")
	inst := spawnOne(t, deps, "crab", "meadow")
	combat := NewCombatSystem(deps)

	combat.QueueClick(handler.ClickRequest{PlayerID: 101, InstanceID: inst.ID})
	combat.Update(0)

	if got := deps.World.Combat(inst.ID).Clicks; got != 1 {
		t.Errorf("queued click not applied: clicks = %v", got)
	}
	if len(combat.requests) != 0 {
		t.Errorf("queue not drained: %d left", len(combat.requests))
	}
}
