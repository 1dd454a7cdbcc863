package handler

import (
	"github.com/rotclick/server/internal/config"
	"github.com/rotclick/server/internal/core/event"
	"github.com/rotclick/server/internal/data"
	gonet "github.com/rotclick/server/internal/net"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/persist"
	"github.com/rotclick/server/internal/scripting"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all message handlers and
// systems. One value is built at boot and shared for the process lifetime;
// tests build a reduced one (nil Gateway, recorder Notifier).
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Notifier  notify.Notifier
	Gateway   *gonet.Gateway
	Tickets   *gonet.TicketVerifier
	Scripting *scripting.Engine
	Brainrots *data.BrainrotTable
	Areas     *data.AreaTable
	Profiles  persist.ProfileStore
	Bus       *event.Bus
	Combat    CombatQueue

	// Loads delivers completed async profile fetches back to the game loop.
	Loads chan ProfileLoad
}

// ClickRequest is one queued click awaiting combat dispatch.
type ClickRequest struct {
	PlayerID   int64
	InstanceID int64
}

// CombatQueue is implemented by the combat system. Handlers queue clicks
// here instead of resolving them inline, so all damage runs in one phase.
type CombatQueue interface {
	QueueClick(req ClickRequest)
}

// ProfileLoad is a completed async profile fetch. Row is nil when the store
// had no record for the player yet.
type ProfileLoad struct {
	PlayerID int64
	Row      *persist.ProfileRow
	Err      error
}
