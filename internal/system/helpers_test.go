package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rotclick/server/internal/config"
	"github.com/rotclick/server/internal/core/event"
	"github.com/rotclick/server/internal/data"
	"github.com/rotclick/server/internal/handler"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

// sentMsg is one captured notification.
type sentMsg struct {
	Player int64
	Kind   string
	Data   any
}

// recorder captures notifications instead of writing to sockets.
type recorder struct {
	sent       []sentMsg
	broadcasts []sentMsg
}

func (r *recorder) SendTo(playerID int64, kind string, data any) {
	r.sent = append(r.sent, sentMsg{Player: playerID, Kind: kind, Data: data})
}

func (r *recorder) Broadcast(kind string, data any) {
	r.broadcasts = append(r.broadcasts, sentMsg{Kind: kind, Data: data})
}

func (r *recorder) count(player int64, kind string) int {
	n := 0
	for _, m := range r.sent {
		if m.Player == player && m.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(player int64, kind string) *sentMsg {
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].Player == player && r.sent[i].Kind == kind {
			return &r.sent[i]
		}
	}
	return nil
}

func (r *recorder) reset() {
	r.sent = r.sent[:0]
	r.broadcasts = r.broadcasts[:0]
}

func testTemplates() []data.BrainrotTemplate {
	return []data.BrainrotTemplate{
		{
			Name:           "crab",
			Rarity:         "common",
			ClicksRequired: 10,
			RespawnTime:    2,
			CoinsPerSecond: 12,
			Area:           "meadow",
			PrimarySize:    data.Extent{X: 2, Y: 2, Z: 2},
		},
		{
			Name:        "slug",
			Rarity:      "common",
			Area:        "meadow",
			PrimarySize: data.Extent{X: 1, Y: 1, Z: 1},
		},
		{
			Name:   "ghost",
			Rarity: "rare",
			Area:   "meadow",
		},
	}
}

func testAreas() []data.Area {
	return []data.Area{
		{Name: "meadow", MinX: 0, MinZ: 0, MaxX: 100, MaxZ: 100, FloorY: 0},
		{Name: "rooftop", MinX: 0, MinZ: 0, MaxX: 40, MaxZ: 40, FloorY: 18},
	}
}

// newTestDeps builds the dependency set systems run against in tests: a
// seeded world, captured notifications, in-memory data tables and an event
// bus. Gateway, Tickets, Scripting and Profiles stay nil unless a test
// needs them.
func newTestDeps() (*handler.Deps, *recorder) {
	ws := world.NewState()
	ws.Rng = rand.New(rand.NewSource(7))
	rec := &recorder{}
	deps := &handler.Deps{
		Config:    config.Defaults(),
		Log:       zap.NewNop(),
		World:     ws,
		Notifier:  rec,
		Brainrots: data.NewBrainrotTable(testTemplates()),
		Areas:     data.NewAreaTable(testAreas()),
		Bus:       event.NewBus(),
	}
	return deps, rec
}

func addPlayer(deps *handler.Deps, session uint64, player int64, name string) *world.PlayerInfo {
	p := &world.PlayerInfo{
		SessionID: session,
		PlayerID:  player,
		Name:      name,
		Profile:   world.NewProfile(),
		Loaded:    true,
	}
	deps.World.AddPlayer(p)
	return p
}

func spawnOne(t *testing.T, deps *handler.Deps, template, area string) *world.Instance {
	t.Helper()
	sp := NewSpawner(deps)
	inst, err := sp.Spawn(deps.Brainrots.Get(template), deps.Areas.Get(area))
	if err != nil {
		t.Fatalf("spawn %s in %s: %v", template, area, err)
	}
	if inst == nil {
		t.Fatalf("spawn %s in %s was vetoed", template, area)
	}
	return inst
}

func timeBase() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// waitFor polls until cond holds or the deadline passes. For asserting on
// work dispatched to goroutines.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
