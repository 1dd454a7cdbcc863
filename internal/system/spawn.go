package system

import (
	"errors"

	"github.com/rotclick/server/internal/core/event"
	"github.com/rotclick/server/internal/data"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

// ErrMissingGeometry marks a template with no anchorable geometry. The
// acquired instance has already been released when this is returned.
var ErrMissingGeometry = errors.New("template has no anchorable geometry")

// Spawner stands instances up: pool acquire, placement, combat state and the
// spawn announcement. Used at boot for the initial population and by the
// respawn system afterwards. Game loop only.
type Spawner struct {
	deps *handler.Deps
}

func NewSpawner(deps *handler.Deps) *Spawner {
	return &Spawner{deps: deps}
}

// Spawn places one instance of the template in the area. A Lua veto returns
// (nil, nil) — not an error, the hook declined. Missing geometry aborts the
// attempt and the instance goes back to the pool.
func (sp *Spawner) Spawn(tmpl *data.BrainrotTemplate, area *data.Area) (*world.Instance, error) {
	deps := sp.deps
	if deps.Scripting != nil && !deps.Scripting.CanSpawn(tmpl.Name, area.Name) {
		deps.Log.Debug("spawn vetoed by script",
			zap.String("template", tmpl.Name), zap.String("area", area.Name))
		return nil, nil
	}

	ws := deps.World
	inst := ws.Pool.Acquire(tmpl)

	if !tmpl.HasGeometry() {
		ws.Pool.Release(inst)
		deps.Log.Error("spawn aborted: no geometry",
			zap.String("template", tmpl.Name), zap.String("area", area.Name))
		return nil, ErrMissingGeometry
	}

	pos, ok := world.PickPosition(
		ws.Rng,
		area,
		inst.Radius,
		ws.SpawnRecords(area.Name),
		deps.Config.Game.MinSeparation,
		deps.Config.Game.PlacementAttempts,
	)
	if !ok {
		deps.Log.Debug("placement budget exhausted, using clamped point",
			zap.String("template", tmpl.Name), zap.String("area", area.Name))
	}

	inst.Area = area.Name
	inst.Pos = pos
	inst.Active = true

	// Static target: pooled reuse may carry stale physics state. Sound
	// attachments stick to the instance identity across reuse.
	inst.Anchored = true
	inst.Collides = false
	inst.SoundsAttached = true

	ws.AddSpawnRecord(&world.SpawnRecord{
		InstanceID: inst.ID,
		Template:   tmpl.Name,
		Area:       area.Name,
		Pos:        pos,
		Radius:     inst.Radius,
	})

	required := tmpl.ClicksRequired
	if required <= 0 {
		required = deps.Config.Balance.DefaultClicksRequired
	}
	respawn := tmpl.RespawnTime
	if respawn <= 0 {
		respawn = deps.Config.Balance.RespawnFallback
	}
	ws.SetCombat(inst.ID, world.NewCombatState(tmpl.Name, area.Name, pos, required, respawn))

	ws.AddInstance(inst)
	inst.ClickBound = true

	if deps.Bus != nil {
		event.Emit(deps.Bus, event.InstanceSpawned{
			InstanceID: inst.ID,
			Template:   tmpl.Name,
			Area:       area.Name,
			X:          pos.X,
			Y:          pos.Y,
			Z:          pos.Z,
		})
	}

	deps.Log.Debug("instance spawned",
		zap.Int64("instance", inst.ID),
		zap.String("template", tmpl.Name),
		zap.String("area", area.Name),
	)
	return inst, nil
}
