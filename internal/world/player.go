package world

import "sync/atomic"

// guestIDCounter allocates identities for connections joining without a
// ticket. Starts high to stay clear of platform-issued player IDs.
var guestIDCounter atomic.Int64

func init() {
	guestIDCounter.Store(900_000_000)
}

// NextGuestID returns a player identity for a guest join.
func NextGuestID() int64 {
	return guestIDCounter.Add(1)
}

// PlayerInfo holds runtime data for a connected player.
// Accessed only from the game loop goroutine — no locks.
type PlayerInfo struct {
	SessionID uint64 // gateway connection ID
	PlayerID  int64  // durable identity (ticket) or guest ID
	Name      string
	Guest     bool

	Profile *Profile

	// Dirty marks unsaved profile changes for the autosave pass. Loaded
	// turns true once the stored row has been merged (or confirmed absent);
	// saves are withheld until then so a default profile never overwrites
	// real stored progress.
	Dirty  bool
	Loaded bool
}
