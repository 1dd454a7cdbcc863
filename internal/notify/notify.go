// Package notify defines the fire-and-forget notification seam between the
// lifecycle engine and the transport. The gateway implements Notifier over
// WebSocket; tests substitute a recorder. Delivery is best-effort: dropped
// messages have no gameplay consequence because the broadcast sweep re-syncs
// attacker views on its next pass.
package notify

// Notification kinds (the "t" field on the wire).
const (
	KindHealthCreate  = "hp_create"
	KindHealthUpdate  = "hp_update"
	KindHealthDestroy = "hp_destroy"
	KindHighlightOn   = "highlight_on"
	KindHighlightOff  = "highlight_off"
	KindShake         = "shake"
	KindCrit          = "crit"
	KindReward        = "reward"
	KindFocus         = "focus"
	KindSpawn         = "spawn"
	KindDeath         = "death"

	// Session-level kinds.
	KindWelcome = "welcome"
	KindProfile = "profile"
	KindError   = "error"
)

// Shake kinds.
const (
	ShakeClick = "click"
	ShakeDeath = "death"
)

// Notifier delivers per-player and world-wide notifications without blocking
// the game loop and without acknowledgment.
type Notifier interface {
	SendTo(playerID int64, kind string, data any)
	Broadcast(kind string, data any)
}

// Health accompanies hp_create/hp_update: current and required damage for
// one instance, sent only to players who have damaged it.
type Health struct {
	Instance int64   `json:"i"`
	Clicks   float64 `json:"c"`
	Required float64 `json:"r"`
}

// Target identifies an instance for hp_destroy, highlight and focus events.
type Target struct {
	Instance int64 `json:"i"`
}

// Shake asks the client to shake the camera.
type Shake struct {
	Kind string `json:"k"`
}

// Crit flashes the crit indicator for one hit.
type Crit struct {
	Instance int64   `json:"i"`
	Damage   float64 `json:"d"`
}

// Reward is the kill payout popup.
type Reward struct {
	Template string  `json:"tpl"`
	Count    int64   `json:"n"`
	Coins    float64 `json:"cps"`
	Gems     int64   `json:"g,omitempty"`
}

// Spawned announces a new live instance to the world.
type Spawned struct {
	Instance int64   `json:"i"`
	Template string  `json:"tpl"`
	Area     string  `json:"a"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

// Died announces an instance death to the world.
type Died struct {
	Instance int64  `json:"i"`
	Template string `json:"tpl"`
	Area     string `json:"a"`
	Killer   int64  `json:"k"`
}

// Welcome confirms a join and carries the current live-instance snapshot so
// the client starts from a consistent world view.
type Welcome struct {
	PlayerID  int64     `json:"pid"`
	Name      string    `json:"n"`
	Guest     bool      `json:"guest,omitempty"`
	Instances []Spawned `json:"instances"`
}

// ProfileSnapshot mirrors the player's upgrade profile and holdings. Sent on
// join with defaults and again once the async store load completes.
type ProfileSnapshot struct {
	Stats      map[string]float64 `json:"stats"`
	Rewards    map[string]int64   `json:"rewards"` // template -> count
	Gems       int64              `json:"g"`
	BestReward float64            `json:"best"`
}

// ErrorInfo reports a rejected request to one client.
type ErrorInfo struct {
	Msg string `json:"msg"`
}
