package world

import (
	"math"
	"sync/atomic"
)

// instanceIDCounter generates unique instance IDs.
// Starts at 100_000_000 to keep instance IDs visually distinct from player IDs.
var instanceIDCounter atomic.Int64

func init() {
	instanceIDCounter.Store(100_000_000)
}

// NextInstanceID returns a unique ID for a live instance.
func NextInstanceID() int64 {
	return instanceIDCounter.Add(1)
}

// Vec3 is a world position. Y is vertical; spawn areas extend in X/Z.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// HorizontalDist returns the Euclidean distance between two positions
// ignoring the vertical axis.
func HorizontalDist(a, b Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Instance is a spawned, world-placed creature derived from a template.
// Owned by the lifecycle engine while Active; by the pool after release.
// Accessed only from the game loop goroutine — no locks.
type Instance struct {
	ID       int64
	Template string
	Area     string
	Pos      Vec3
	Radius   float64 // from template geometry, copied at construction

	Active bool

	// Static-target physics flags: a placed instance is anchored and does
	// not collide. Reset on every spawn since pooled reuse keeps old values.
	Anchored bool
	Collides bool

	// Idempotence flags: feedback sounds are attached once per instance,
	// and the click trigger is bound at most once per instance identity.
	SoundsAttached bool
	ClickBound     bool
}
