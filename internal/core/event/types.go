package event

// Lifecycle events consumed by the broadcast system one tick after emission.

// InstanceSpawned fires when a live instance is placed in the world.
type InstanceSpawned struct {
	InstanceID int64
	Template   string
	Area       string
	X, Y, Z    float64
}

// InstanceKilled fires when accumulated damage crosses an instance's
// threshold. KillerID is the player whose click crossed it.
type InstanceKilled struct {
	InstanceID int64
	Template   string
	Area       string
	KillerID   int64
}
