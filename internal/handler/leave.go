package handler

import (
	"encoding/json"

	gonet "github.com/rotclick/server/internal/net"
	"go.uber.org/zap"
)

// HandleLeave processes an explicit "leave". It only closes the connection;
// cleanup runs in the input system's disconnect path so network drops and
// polite leaves share one code path.
func HandleLeave(c *gonet.Client, _ json.RawMessage, deps *Deps) {
	deps.Log.Info("player leaving",
		zap.Uint64("client", c.ID),
		zap.Int64("player", c.PlayerID),
	)
	c.Close()
}
