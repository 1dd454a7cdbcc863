package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain gateway queues, dispatch handlers
	PhaseUpdate                  // 1: clicks, deaths, due respawns
	PhasePostUpdate              // 2: idle decay + throttled health broadcast
	PhaseOutput                  // 3: world announcements from last tick's events
	PhasePersist                 // 4: batch profile saves
)

// System is the interface every game system implements. Update runs on the
// game loop goroutine; systems never need locks on world state.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
