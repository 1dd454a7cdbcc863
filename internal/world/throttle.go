package world

import "time"

// Throttle rate-limits a per-player notification kind (shake feedback) by
// remembering the last time each player was allowed through.
// Accessed only from the game loop goroutine — no locks.
type Throttle struct {
	last map[int64]time.Time
}

func NewThrottle() *Throttle {
	return &Throttle{last: make(map[int64]time.Time)}
}

// Allow reports whether the player may receive the notification now, and
// stamps the time when it does.
func (t *Throttle) Allow(playerID int64, now time.Time, interval time.Duration) bool {
	if prev, ok := t.last[playerID]; ok && now.Sub(prev) < interval {
		return false
	}
	t.last[playerID] = now
	return true
}

// Forget drops a player's throttle record (on disconnect).
func (t *Throttle) Forget(playerID int64) {
	delete(t.last, playerID)
}
