package system

import (
	"testing"
	"time"

	"github.com/rotclick/server/internal/world"
)

func TestRespawnFiresDueTasks(t *testing.T) {
	deps, _ := newTestDeps()
	rs := NewRespawnSystem(deps, NewSpawner(deps))

	deps.World.ScheduleRespawn(world.RespawnTask{
		Template: "crab",
		Area:     "meadow",
		Due:      time.Now().Add(-time.Second),
	})

	rs.Update(0)

	if deps.World.InstanceCount() != 1 {
		t.Errorf("instance count = %d, want 1", deps.World.InstanceCount())
	}
	if deps.World.PendingRespawns() != 0 {
		t.Errorf("task not consumed: %d pending", deps.World.PendingRespawns())
	}
}

func TestRespawnLeavesFutureTasks(t *testing.T) {
	deps, _ := newTestDeps()
	rs := NewRespawnSystem(deps, NewSpawner(deps))

	deps.World.ScheduleRespawn(world.RespawnTask{
		Template: "crab",
		Area:     "meadow",
		Due:      time.Now().Add(time.Hour),
	})

	rs.Update(0)

	if deps.World.InstanceCount() != 0 {
		t.Error("future task fired early")
	}
	if deps.World.PendingRespawns() != 1 {
		t.Errorf("future task dropped: %d pending", deps.World.PendingRespawns())
	}
}

func TestRespawnSkipsStaleReferences(t *testing.T) {
	deps, _ := newTestDeps()
	rs := NewRespawnSystem(deps, NewSpawner(deps))
	past := time.Now().Add(-time.Second)

	deps.World.ScheduleRespawn(world.RespawnTask{Template: "extinct", Area: "meadow", Due: past})
	deps.World.ScheduleRespawn(world.RespawnTask{Template: "crab", Area: "atlantis", Due: past})

	rs.Update(0)

	if deps.World.InstanceCount() != 0 {
		t.Error("stale task spawned something")
	}
	if deps.World.PendingRespawns() != 0 {
		t.Error("stale tasks should be consumed, not retried")
	}
}
