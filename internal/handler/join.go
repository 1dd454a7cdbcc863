package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	gonet "github.com/rotclick/server/internal/net"
	"github.com/rotclick/server/internal/notify"
	"github.com/rotclick/server/internal/world"
	"go.uber.org/zap"
)

const maxNameLen = 24

// HandleJoin processes a "join" message: authenticate, register the player
// in world state, bind the connection and reply with the welcome snapshot.
// Stored progress arrives later via the Loads channel.
func HandleJoin(c *gonet.Client, raw json.RawMessage, deps *Deps) {
	if c.PlayerID != 0 {
		deps.Log.Debug("duplicate join ignored", zap.Uint64("client", c.ID))
		return
	}

	var msg gonet.JoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		deps.Log.Warn("malformed join", zap.Uint64("client", c.ID), zap.Error(err))
		c.Close()
		return
	}

	playerID, name, guest, err := resolveIdentity(&msg, deps)
	if err != nil {
		deps.Log.Warn("join rejected",
			zap.Uint64("client", c.ID),
			zap.String("ip", c.IP),
			zap.Error(err),
		)
		rejectJoin(c, "invalid ticket")
		return
	}

	if deps.World.GetByPlayerID(playerID) != nil {
		deps.Log.Warn("join rejected: already online",
			zap.Int64("player", playerID), zap.String("name", name))
		rejectJoin(c, "already connected")
		return
	}

	player := &world.PlayerInfo{
		SessionID: c.ID,
		PlayerID:  playerID,
		Name:      name,
		Guest:     guest,
		Profile:   world.NewProfile(),
	}
	deps.World.AddPlayer(player)
	deps.Gateway.BindPlayer(c, playerID, name)

	deps.Log.Info("player joined",
		zap.Int64("player", playerID),
		zap.String("name", name),
		zap.Bool("guest", guest),
		zap.String("ip", c.IP),
	)

	// Guests never touch the store; everyone else gets their saved row
	// fetched off-loop and merged when it lands.
	if !guest && deps.Profiles != nil && deps.Loads != nil {
		go loadProfile(playerID, deps)
	}

	c.SendEnvelope(notify.KindWelcome, notify.Welcome{
		PlayerID:  playerID,
		Name:      name,
		Guest:     guest,
		Instances: liveInstances(deps),
	})
	c.SendEnvelope(notify.KindProfile, SnapshotProfile(player.Profile))
}

// rejectJoin sends the reason and closes. The envelope is flushed to the
// send queue immediately since the per-tick flush will not see this client
// again.
func rejectJoin(c *gonet.Client, reason string) {
	c.SendEnvelope(notify.KindError, notify.ErrorInfo{Msg: reason})
	c.FlushOutput()
	c.Close()
}

func resolveIdentity(msg *gonet.JoinMsg, deps *Deps) (playerID int64, name string, guest bool, err error) {
	if deps.Tickets != nil {
		if msg.Ticket == "" {
			return 0, "", false, fmt.Errorf("ticket required")
		}
		pid, ticketName, verr := deps.Tickets.Verify(msg.Ticket)
		if verr != nil {
			return 0, "", false, verr
		}
		name = sanitizeName(ticketName)
		if name == "" {
			name = fmt.Sprintf("Player-%d", pid)
		}
		return pid, name, false, nil
	}

	// No ticket secret configured: guest mode for local play.
	id := world.NextGuestID()
	name = sanitizeName(msg.Name)
	if name == "" {
		name = fmt.Sprintf("Guest-%d", id)
	}
	return id, name, true, nil
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= maxNameLen {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

// liveInstances snapshots every active instance for the welcome message so
// a late joiner sees the field as it stands.
func liveInstances(deps *Deps) []notify.Spawned {
	insts := deps.World.Instances()
	out := make([]notify.Spawned, 0, len(insts))
	for _, inst := range insts {
		if !inst.Active {
			continue
		}
		out = append(out, notify.Spawned{
			Instance: inst.ID,
			Template: inst.Template,
			Area:     inst.Area,
			X:        inst.Pos.X,
			Y:        inst.Pos.Y,
			Z:        inst.Pos.Z,
		})
	}
	return out
}

// SnapshotProfile flattens a profile into its wire form.
func SnapshotProfile(p *world.Profile) notify.ProfileSnapshot {
	stats := make(map[string]float64, len(p.Stats))
	for k, v := range p.Stats {
		stats[k] = v
	}
	rewards := make(map[string]int64, len(p.Rewards))
	for tmpl, r := range p.Rewards {
		rewards[tmpl] = r.Count
	}
	return notify.ProfileSnapshot{
		Stats:      stats,
		Rewards:    rewards,
		Gems:       p.Gems,
		BestReward: p.BestReward,
	}
}

func loadProfile(playerID int64, deps *Deps) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := deps.Profiles.Load(ctx, playerID)
	select {
	case deps.Loads <- ProfileLoad{PlayerID: playerID, Row: row, Err: err}:
	default:
		deps.Log.Warn("profile load result dropped, queue full",
			zap.Int64("player", playerID))
	}
}
