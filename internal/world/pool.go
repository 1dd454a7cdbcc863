package world

import "github.com/rotclick/server/internal/data"

// Pool recycles instances per template so heavyweight world objects are not
// rebuilt on every respawn. Free lists grow without bound; the pool never
// resets combat state — callers reset transient state before reuse.
// Accessed only from the game loop goroutine — no locks.
type Pool struct {
	free map[string][]*Instance
}

func NewPool() *Pool {
	return &Pool{free: make(map[string][]*Instance)}
}

// Acquire pops a released instance for the template, or constructs a fresh
// one from the template definition.
func (p *Pool) Acquire(tmpl *data.BrainrotTemplate) *Instance {
	list := p.free[tmpl.Name]
	if n := len(list); n > 0 {
		inst := list[n-1]
		p.free[tmpl.Name] = list[:n-1]
		return inst
	}
	return &Instance{
		ID:       NextInstanceID(),
		Template: tmpl.Name,
		Radius:   tmpl.Radius(),
	}
}

// Release marks the instance inactive and returns it to its template's free
// list for future reuse.
func (p *Pool) Release(inst *Instance) {
	inst.Active = false
	inst.Area = ""
	p.free[inst.Template] = append(p.free[inst.Template], inst)
}

// FreeCount returns the number of pooled instances for a template.
func (p *Pool) FreeCount(template string) int {
	return len(p.free[template])
}
