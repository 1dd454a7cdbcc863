package system

import (
	"time"

	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/world"
)

// SweepSystem walks every live combat state each tick: abandoned damage
// decays back to zero, and accumulating damage is re-broadcast to attackers
// on a throttle so multiple clickers stay in sync without per-click spam.
// Phase 2 (PostUpdate) — runs after combat so a killed instance is already
// gone.
type SweepSystem struct {
	deps *handler.Deps
}

func NewSweepSystem(deps *handler.Deps) *SweepSystem {
	return &SweepSystem{deps: deps}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SweepSystem) Update(_ time.Duration) {
	now := time.Now()
	bal := &s.deps.Config.Balance

	s.deps.World.EachCombat(func(instanceID int64, cs *world.CombatState) {
		if cs.Dead || cs.Clicks <= 0 {
			return
		}

		if now.Sub(cs.LastClick) >= bal.IdleReset.Std() {
			s.resetIdle(instanceID, cs)
			return
		}

		if now.Sub(cs.LastHealthBroadcast) >= bal.HealthBroadcastInterval.Std() {
			cs.LastHealthBroadcast = now
			s.broadcastHealth(instanceID, cs)
		}
	})
}

// resetIdle models damage decay on an abandoned target: progress zeroes and
// every attacker's indicator is removed exactly once.
func (s *SweepSystem) resetIdle(instanceID int64, cs *world.CombatState) {
	cs.Clicks = 0
	tracked := cs.TrackedPlayers()
	cs.ClearTracking()
	for _, pid := range tracked {
		s.deps.Notifier.SendTo(pid, notify.KindHealthDestroy, notify.Target{Instance: instanceID})
		s.deps.Notifier.SendTo(pid, notify.KindHighlightOff, notify.Target{Instance: instanceID})
	}
}

func (s *SweepSystem) broadcastHealth(instanceID int64, cs *world.CombatState) {
	health := notify.Health{Instance: instanceID, Clicks: cs.Clicks, Required: cs.ClicksRequired}
	for pid := range cs.Tracking {
		if _, shown := cs.UIShown[pid]; !shown {
			cs.UIShown[pid] = struct{}{}
			s.deps.Notifier.SendTo(pid, notify.KindHealthCreate, health)
		} else {
			s.deps.Notifier.SendTo(pid, notify.KindHealthUpdate, health)
		}
	}
}
