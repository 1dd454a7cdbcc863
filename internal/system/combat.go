package system

import (
	"time"

	"github.com/rotclick/server/internal/core/event"
	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/scripting"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

// CombatSystem resolves queued clicks (Phase Update). Handlers parse
// messages and call QueueClick; damage, feedback and threshold-crossing
// death handling all run here, so a death sequence completes before the
// next click is looked at.
type CombatSystem struct {
	deps     *handler.Deps
	requests []handler.ClickRequest
}

func NewCombatSystem(deps *handler.Deps) *CombatSystem {
	return &CombatSystem{deps: deps}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// QueueClick implements handler.CombatQueue.
func (s *CombatSystem) QueueClick(req handler.ClickRequest) {
	s.requests = append(s.requests, req)
}

func (s *CombatSystem) Update(_ time.Duration) {
	now := time.Now()
	for _, req := range s.requests {
		s.processClick(req.InstanceID, req.PlayerID, now)
	}
	s.requests = s.requests[:0]
}

// processClick applies one click to a live instance: debounce, damage roll,
// clicker feedback, tracking, and death when the threshold is crossed.
func (s *CombatSystem) processClick(instanceID, playerID int64, now time.Time) {
	ws := s.deps.World
	cs := ws.Combat(instanceID)
	if cs == nil || cs.Dead {
		return
	}
	player := ws.GetByPlayerID(playerID)
	if player == nil {
		return
	}

	// Per-instance cooldown soaks up click spam that got past the network
	// rate cap.
	if !cs.LastClick.IsZero() && now.Sub(cs.LastClick) < s.deps.Config.Balance.ClickCooldown.Std() {
		return
	}
	cs.LastClick = now

	st := EffectiveStats(player.Profile, &s.deps.Config.Balance)
	crit := rollPercent(ws.Rng, st.CritChance)
	delta := st.Damage
	if crit {
		delta *= st.CritMult
	}
	cs.Clicks += delta

	// Feedback goes to the clicker only. Shake is throttled globally per
	// player so rapid clicking doesn't strobe the camera.
	if ws.ShakeGate.Allow(playerID, now, s.deps.Config.Balance.ShakeThrottle.Std()) {
		s.deps.Notifier.SendTo(playerID, notify.KindShake, notify.Shake{Kind: notify.ShakeClick})
	}
	if crit {
		s.deps.Notifier.SendTo(playerID, notify.KindCrit, notify.Crit{
			Instance: instanceID,
			Damage:   delta,
		})
	}

	cs.Tracking[playerID] = struct{}{}
	health := notify.Health{Instance: instanceID, Clicks: cs.Clicks, Required: cs.ClicksRequired}
	if _, shown := cs.UIShown[playerID]; !shown {
		cs.UIShown[playerID] = struct{}{}
		s.deps.Notifier.SendTo(playerID, notify.KindHealthCreate, health)
	} else {
		s.deps.Notifier.SendTo(playerID, notify.KindHealthUpdate, health)
	}
	s.deps.Notifier.SendTo(playerID, notify.KindHighlightOn, notify.Target{Instance: instanceID})

	if cs.Clicks >= cs.ClicksRequired {
		s.handleDeath(instanceID, cs, player, now)
	}
}

// handleDeath runs the full kill sequence: UI teardown, record removal,
// reward + gem grants, killer feedback, pool release and the respawn task.
// Idempotent via the Dead flag — Clicks and Tracking freeze once it is set.
func (s *CombatSystem) handleDeath(instanceID int64, cs *world.CombatState, killer *world.PlayerInfo, now time.Time) {
	if cs.Dead {
		return
	}
	cs.Dead = true

	ws := s.deps.World
	bal := &s.deps.Config.Balance

	// Tear down attacker UI first so nobody keeps a health bar for a corpse.
	tracked := cs.TrackedPlayers()
	cs.ClearTracking()
	for _, pid := range tracked {
		s.deps.Notifier.SendTo(pid, notify.KindHealthDestroy, notify.Target{Instance: instanceID})
		s.deps.Notifier.SendTo(pid, notify.KindHighlightOff, notify.Target{Instance: instanceID})
	}

	ws.RemoveSpawnRecord(instanceID)

	// One reward unit for the killer. The coin value sticks on first grant;
	// the Lua hook may adjust it before that.
	st := EffectiveStats(killer.Profile, bal)
	baseCoins := 1.0
	if tmpl := s.deps.Brainrots.Get(cs.Template); tmpl != nil && tmpl.CoinsPerSecond > 0 {
		baseCoins = tmpl.CoinsPerSecond
	}
	coins := baseCoins * st.CoinFactor
	if s.deps.Scripting != nil {
		coins = s.deps.Scripting.CalcKillCoins(scripting.KillCoinsContext{
			Template:   cs.Template,
			Area:       cs.Area,
			KillerID:   killer.PlayerID,
			BaseCoins:  coins,
			CoinFactor: st.CoinFactor,
		})
	}
	owned := killer.Profile.GrantReward(cs.Template, coins)

	var gems int64
	if rollPercent(ws.Rng, st.GemChance) {
		gems = scaleGems(DrawGemAmount(ws.Rng, bal.GemWeights), st.GemYield)
		// Independent bonus roll doubles the award. Disabled by default.
		if bal.BonusGemChance > 0 && rollPercent(ws.Rng, bal.BonusGemChance) {
			gems *= 2
		}
		killer.Profile.AddGems(gems)
	}
	killer.Dirty = true

	s.deps.Notifier.SendTo(killer.PlayerID, notify.KindReward, notify.Reward{
		Template: cs.Template,
		Count:    owned.Count,
		Coins:    owned.CPS,
		Gems:     gems,
	})

	// Death feedback bypasses the shake throttle — a kill always lands.
	s.deps.Notifier.SendTo(killer.PlayerID, notify.KindShake, notify.Shake{Kind: notify.ShakeDeath})
	s.deps.Notifier.SendTo(killer.PlayerID, notify.KindFocus, notify.Target{Instance: instanceID})

	if inst := ws.RemoveInstance(instanceID); inst != nil {
		ws.Pool.Release(inst)
	}

	respawn := cs.RespawnTime
	if respawn <= 0 {
		respawn = bal.RespawnFallback
	}
	ws.ScheduleRespawn(world.RespawnTask{
		Template: cs.Template,
		Area:     cs.Area,
		Due:      now.Add(time.Duration(respawn * float64(time.Second))),
	})

	s.deps.Log.Info("instance killed",
		zap.Int64("instance", instanceID),
		zap.String("template", cs.Template),
		zap.String("area", cs.Area),
		zap.String("killer", killer.Name),
		zap.Int64("gems", gems),
	)

	if s.deps.Bus != nil {
		event.Emit(s.deps.Bus, event.InstanceKilled{
			InstanceID: instanceID,
			Template:   cs.Template,
			Area:       cs.Area,
			KillerID:   killer.PlayerID,
		})
	}

	ws.RemoveCombat(instanceID)
}
