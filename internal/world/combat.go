package world

import "time"

// CombatState is the per-live-instance mutable damage record, keyed by
// instance ID in State. Exactly one exists per live, non-dead instance.
// Dead=true is a one-way transition: Clicks and Tracking are frozen once set.
// Accessed only from the game loop goroutine — no locks.
type CombatState struct {
	Template string
	Area     string
	Pos      Vec3

	ClicksRequired float64
	Clicks         float64
	Dead           bool

	LastClick           time.Time
	LastHealthBroadcast time.Time

	// Tracking holds players who have dealt damage since the last reset;
	// UIShown holds players currently shown a health indicator.
	Tracking map[int64]struct{}
	UIShown  map[int64]struct{}

	// RespawnTime is resolved at spawn from the template (global fallback
	// when unset), in seconds.
	RespawnTime float64
}

// NewCombatState returns a fresh state with zero damage and empty tracking.
func NewCombatState(template, area string, pos Vec3, required, respawn float64) *CombatState {
	return &CombatState{
		Template:       template,
		Area:           area,
		Pos:            pos,
		ClicksRequired: required,
		RespawnTime:    respawn,
		Tracking:       make(map[int64]struct{}),
		UIShown:        make(map[int64]struct{}),
	}
}

// TrackedPlayers snapshots the tracking set. Death and idle-reset notify the
// snapshot after clearing the live sets so the one-way invariants hold.
func (c *CombatState) TrackedPlayers() []int64 {
	ids := make([]int64, 0, len(c.Tracking))
	for id := range c.Tracking {
		ids = append(ids, id)
	}
	return ids
}

// ClearTracking empties both tracking sets.
func (c *CombatState) ClearTracking() {
	clear(c.Tracking)
	clear(c.UIShown)
}
