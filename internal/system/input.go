package system

import (
	"time"

	coresys "github.com/rotclick/server/internal/core/system"
	"github.com/rotclick/server/internal/handler"
	gonet "github.com/rotclick/server/internal/net"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

// InputSystem drains the gateway channels each tick: new clients into the
// registry, inbound messages into their handlers, completed profile loads
// into player state, and dead connections into cleanup. Phase 0 (Input).
type InputSystem struct {
	deps *handler.Deps
}

func NewInputSystem(deps *handler.Deps) *InputSystem {
	return &InputSystem{deps: deps}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	gw := s.deps.Gateway

	// Accept new connections.
	for {
		select {
		case c := <-gw.Connects():
			gw.Register(c)
		default:
			goto doneConnects
		}
	}
doneConnects:

	// Dispatch inbound messages. The shared queue drains at most
	// maxPerTick × connected clients, bounding per-tick work the way a
	// per-connection cap would.
	budget := s.deps.Config.Network.MaxMessagesPerTick * (gw.ClientCount() + 1)
	for i := 0; i < budget; i++ {
		select {
		case msg := <-gw.Inbound():
			s.dispatch(msg)
		default:
			goto doneInbound
		}
	}
doneInbound:

	// Apply completed profile loads.
	for {
		select {
		case res := <-s.deps.Loads:
			s.applyProfileLoad(res)
		default:
			goto doneLoads
		}
	}
doneLoads:

	// Dead channel is the prompt path; the registry sweep below is
	// authoritative in case a dead notification was dropped.
	for {
		select {
		case id := <-gw.Dead():
			s.handleDisconnect(id)
		default:
			goto doneDead
		}
	}
doneDead:

	for _, c := range gw.Clients() {
		if c.IsClosed() {
			s.handleDisconnect(c.ID)
		}
	}
}

func (s *InputSystem) dispatch(msg gonet.Inbound) {
	switch msg.T {
	case gonet.MsgJoin:
		handler.HandleJoin(msg.Client, msg.D, s.deps)
	case gonet.MsgClick:
		handler.HandleClick(msg.Client, msg.D, s.deps)
	case gonet.MsgLeave:
		handler.HandleLeave(msg.Client, msg.D, s.deps)
	default:
		// Unknown message types are ignored.
	}
}

// applyProfileLoad merges a fetched row into the live profile. The stored
// row is the base; anything earned while the fetch was in flight stacks on
// top. A failed load leaves Loaded false, which keeps every save path away
// from the stored row.
func (s *InputSystem) applyProfileLoad(res handler.ProfileLoad) {
	p := s.deps.World.GetByPlayerID(res.PlayerID)
	if p == nil {
		return // left before the row arrived
	}
	if res.Err != nil {
		s.deps.Log.Warn("profile load failed, session keeps defaults",
			zap.Int64("player", res.PlayerID), zap.Error(res.Err))
		return
	}
	if res.Row != nil {
		mergeProfile(p.Profile, res.Row)
		s.deps.Notifier.SendTo(p.PlayerID, notify.KindProfile, handler.SnapshotProfile(p.Profile))
	}
	p.Loaded = true
}

// handleDisconnect cleans up one connection: registry drop, world removal,
// combat tracking scrub and the final profile save.
func (s *InputSystem) handleDisconnect(clientID uint64) {
	s.deps.Gateway.Drop(clientID)

	player := s.deps.World.RemovePlayer(clientID)
	if player == nil {
		return // connection never joined
	}

	// Their health indicators die with the session; stop tracking them.
	s.deps.World.EachCombat(func(_ int64, cs *world.CombatState) {
		delete(cs.Tracking, player.PlayerID)
		delete(cs.UIShown, player.PlayerID)
	})

	s.deps.Log.Info("player left",
		zap.Int64("player", player.PlayerID),
		zap.String("name", player.Name),
	)

	if !player.Guest && player.Loaded && player.Dirty && s.deps.Profiles != nil {
		saveProfileAsync(player, s.deps)
	}
}
