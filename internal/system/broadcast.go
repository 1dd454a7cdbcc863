package system

import (
	"time"

	"github.com/rotclick/server/internal/core/event"
	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/notify"
)

// BroadcastSystem turns last tick's lifecycle events into world-wide
// announcements and flushes every client's output buffer. Phase 3 (Output) —
// last phase that touches the wire, so everything any earlier phase queued
// this tick leaves in one batch.
type BroadcastSystem struct {
	deps *handler.Deps
}

func NewBroadcastSystem(deps *handler.Deps) *BroadcastSystem {
	s := &BroadcastSystem{deps: deps}

	event.Subscribe(deps.Bus, func(ev event.InstanceSpawned) {
		deps.Notifier.Broadcast(notify.KindSpawn, notify.Spawned{
			Instance: ev.InstanceID,
			Template: ev.Template,
			Area:     ev.Area,
			X:        ev.X,
			Y:        ev.Y,
			Z:        ev.Z,
		})
	})
	event.Subscribe(deps.Bus, func(ev event.InstanceKilled) {
		deps.Notifier.Broadcast(notify.KindDeath, notify.Died{
			Instance: ev.InstanceID,
			Template: ev.Template,
			Area:     ev.Area,
			Killer:   ev.KillerID,
		})
	})

	return s
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *BroadcastSystem) Update(_ time.Duration) {
	s.deps.Bus.DispatchAll()
	if s.deps.Gateway != nil {
		s.deps.Gateway.FlushAll()
	}
}
