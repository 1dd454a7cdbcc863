package system

import (
	"time"

	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	"go.uber.org/zap"
)

// RespawnSystem fires due respawn tasks each tick. Tasks are fire-and-forget:
// the template and area are re-validated here because either may have gone
// away between death and now. Phase 1 (Update).
type RespawnSystem struct {
	deps    *handler.Deps
	spawner *Spawner
}

func NewRespawnSystem(deps *handler.Deps, spawner *Spawner) *RespawnSystem {
	return &RespawnSystem{deps: deps, spawner: spawner}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *RespawnSystem) Update(_ time.Duration) {
	due := s.deps.World.DueRespawns(time.Now())
	for _, task := range due {
		tmpl := s.deps.Brainrots.Get(task.Template)
		if tmpl == nil {
			s.deps.Log.Debug("respawn skipped: template gone",
				zap.String("template", task.Template))
			continue
		}
		area := s.deps.Areas.Get(task.Area)
		if area == nil {
			s.deps.Log.Debug("respawn skipped: area gone",
				zap.String("area", task.Area))
			continue
		}

		if _, err := s.spawner.Spawn(tmpl, area); err != nil {
			// Worst case the creature never comes back; the world stays up.
			s.deps.Log.Error("respawn failed",
				zap.String("template", task.Template),
				zap.String("area", task.Area),
				zap.Error(err),
			)
		}
	}
}
