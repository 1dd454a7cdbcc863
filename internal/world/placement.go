package world

import (
	"math/rand"

	"github.com/rotclick/server/internal/data"
)

const (
	// areaMargin shrinks the sampling extent on each axis so instances never
	// hug area walls.
	areaMargin = 0.08

	// spawnHeightOffset lifts instances above the area floor so the model
	// base sits on it rather than in it.
	spawnHeightOffset = 3.0
)

// SpawnRecord tracks one live instance for spatial collision-avoidance.
// It exists exactly while the instance is alive and is removed atomically
// during death handling.
type SpawnRecord struct {
	InstanceID int64
	Template   string
	Area       string
	Pos        Vec3
	Radius     float64
}

// PickPosition samples a position for a new spawn inside the area's
// horizontal extent (shrunk by the margin), at a fixed offset above the
// floor. Candidates closer to any neighbor than
// minDist+radius+neighbor.Radius are rejected and resampled, up to attempts
// tries. When the budget is exhausted it returns a clamped random point
// without the separation guarantee — placement never fails outright.
// The returned bool reports whether separation was satisfied.
//
// O(attempts × neighbors); areas hold tens of instances, so no index.
func PickPosition(rng *rand.Rand, area *data.Area, radius float64, neighbors []*SpawnRecord, minDist float64, attempts int) (Vec3, bool) {
	loX, hiX := marginRange(area.MinX, area.MaxX)
	loZ, hiZ := marginRange(area.MinZ, area.MaxZ)
	y := area.FloorY + spawnHeightOffset

	for i := 0; i < attempts; i++ {
		cand := Vec3{X: sampleRange(rng, loX, hiX), Y: y, Z: sampleRange(rng, loZ, hiZ)}
		if separated(cand, radius, neighbors, minDist) {
			return cand, true
		}
	}

	// Exhausted: give up on separation, stay in bounds.
	fallback := Vec3{
		X: clamp(sampleRange(rng, loX, hiX), loX, hiX),
		Y: y,
		Z: clamp(sampleRange(rng, loZ, hiZ), loZ, hiZ),
	}
	return fallback, false
}

func separated(cand Vec3, radius float64, neighbors []*SpawnRecord, minDist float64) bool {
	for _, n := range neighbors {
		if HorizontalDist(cand, n.Pos) < minDist+radius+n.Radius {
			return false
		}
	}
	return true
}

// marginRange shrinks [lo,hi] by the margin fraction on each side. Degenerate
// extents collapse to their midpoint.
func marginRange(lo, hi float64) (float64, float64) {
	if hi < lo {
		lo, hi = hi, lo
	}
	inset := (hi - lo) * areaMargin
	mlo, mhi := lo+inset, hi-inset
	if mhi < mlo {
		mid := (lo + hi) / 2
		return mid, mid
	}
	return mlo, mhi
}

func sampleRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
