package system

import (
	"context"
	"time"

	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/persist"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

const saveTimeout = 5 * time.Second

// PersistenceSystem autosaves dirty profiles every interval. Rows are
// snapshotted on the game loop and written off it, so storage latency never
// stalls a tick. Phase 4 (Persist).
type PersistenceSystem struct {
	deps      *handler.Deps
	tickCount int
	interval  int // autosave every N ticks
}

func NewPersistenceSystem(deps *handler.Deps, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{deps: deps, interval: intervalTicks}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.autosave()
}

func (s *PersistenceSystem) autosave() {
	if s.deps.Profiles == nil {
		return
	}
	count := 0
	s.deps.World.AllPlayers(func(p *world.PlayerInfo) {
		if p.Guest || !p.Loaded || !p.Dirty {
			return
		}
		saveProfileAsync(p, s.deps)
		count++
	})
	if count > 0 {
		s.deps.Log.Info("autosave dispatched", zap.Int("players", count))
	}
}

// SaveAll persists every loaded non-guest profile synchronously, ignoring
// dirty flags. Called on graceful shutdown, bounded by ctx.
func (s *PersistenceSystem) SaveAll(ctx context.Context) {
	if s.deps.Profiles == nil {
		return
	}
	count := 0
	s.deps.World.AllPlayers(func(p *world.PlayerInfo) {
		if p.Guest || !p.Loaded {
			return
		}
		if err := s.deps.Profiles.Save(ctx, buildProfileRow(p)); err != nil {
			s.deps.Log.Error("shutdown save failed",
				zap.Int64("player", p.PlayerID), zap.Error(err))
			return
		}
		p.Dirty = false
		count++
	})
	if count > 0 {
		s.deps.Log.Info("shutdown save complete", zap.Int("players", count))
	}
}

// saveProfileAsync snapshots the profile on the game loop and writes it from
// a goroutine. A failed save loses that delta; the next dirty change
// schedules another attempt.
func saveProfileAsync(p *world.PlayerInfo, deps *handler.Deps) {
	row := buildProfileRow(p)
	p.Dirty = false
	store := deps.Profiles
	log := deps.Log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.Save(ctx, row); err != nil {
			log.Error("profile save failed",
				zap.Int64("player", row.PlayerID), zap.Error(err))
		}
	}()
}

// buildProfileRow deep-copies the live profile into its storage form.
func buildProfileRow(p *world.PlayerInfo) *persist.ProfileRow {
	prof := p.Profile
	stats := make(map[string]float64, len(prof.Stats))
	for k, v := range prof.Stats {
		stats[k] = v
	}
	rewards := make(map[string]persist.RewardRow, len(prof.Rewards))
	for tmpl, r := range prof.Rewards {
		rewards[tmpl] = persist.RewardRow{Count: r.Count, CPS: r.CPS}
	}
	return &persist.ProfileRow{
		PlayerID:   p.PlayerID,
		Name:       p.Name,
		Stats:      stats,
		Rewards:    rewards,
		Gems:       prof.Gems,
		BestReward: prof.BestReward,
	}
}

// mergeProfile lays a stored row under what the session earned while the
// fetch was in flight: stats come from the store (they only change
// externally), reward counts and gems stack, CPS keeps the original
// first-grant value, best reward is a high-water mark.
func mergeProfile(live *world.Profile, row *persist.ProfileRow) {
	live.Stats = make(map[string]float64, len(row.Stats))
	for k, v := range row.Stats {
		live.Stats[k] = v
	}
	for tmpl, stored := range row.Rewards {
		if cur, ok := live.Rewards[tmpl]; ok {
			cur.Count += stored.Count
			cur.CPS = stored.CPS
		} else {
			live.Rewards[tmpl] = &world.OwnedReward{Count: stored.Count, CPS: stored.CPS}
		}
	}
	live.Gems += row.Gems
	if row.BestReward > live.BestReward {
		live.BestReward = row.BestReward
	}
}
