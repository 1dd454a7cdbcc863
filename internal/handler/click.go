package handler

import (
	"encoding/json"

	gonet "github.com/rotclick/server/internal/net"
	"go.uber.org/zap"
)

// HandleClick queues one click for combat resolution. Clicks from unbound
// connections are dropped — the client has to join first.
func HandleClick(c *gonet.Client, raw json.RawMessage, deps *Deps) {
	if c.PlayerID == 0 {
		return
	}

	var msg gonet.ClickMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		deps.Log.Debug("malformed click", zap.Uint64("client", c.ID), zap.Error(err))
		return
	}
	if msg.Instance == 0 {
		return
	}

	deps.Combat.QueueClick(ClickRequest{
		PlayerID:   c.PlayerID,
		InstanceID: msg.Instance,
	})
}
