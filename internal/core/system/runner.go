package system

import (
	"sort"
	"time"
)

// Runner executes tick functions in group order each tick. Within a group,
// registration order is preserved.
type Runner struct {
	funcs  []TickFunction
	sorted bool
}

func NewRunner() *Runner {
	return &Runner{
		funcs: make([]TickFunction, 0, 16),
	}
}

// Register adds fn. Registering the same function twice is a no-op.
func (r *Runner) Register(fn TickFunction) {
	if r.Has(fn) {
		return
	}
	r.funcs = append(r.funcs, fn)
	r.sorted = false
}

// Unregister removes fn if present.
func (r *Runner) Unregister(fn TickFunction) {
	for i, f := range r.funcs {
		if f == fn {
			r.funcs = append(r.funcs[:i], r.funcs[i+1:]...)
			return
		}
	}
}

func (r *Runner) Has(fn TickFunction) bool {
	for _, f := range r.funcs {
		if f == fn {
			return true
		}
	}
	return false
}

func (r *Runner) Len() int { return len(r.funcs) }

// Tick runs every registered function. Functions registered or removed during
// the tick take effect next tick.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	funcs := append([]TickFunction(nil), r.funcs...)
	for _, f := range funcs {
		f.Tick(dt)
	}
}

// TickGroup runs only the functions in group g.
func (r *Runner) TickGroup(g Group, dt time.Duration) {
	r.ensureSorted()
	funcs := append([]TickFunction(nil), r.funcs...)
	for _, f := range funcs {
		if f.TickGroup() == g {
			f.Tick(dt)
		}
	}
}

// Clear drops every registered function.
func (r *Runner) Clear() {
	r.funcs = r.funcs[:0]
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.funcs, func(i, j int) bool {
			return r.funcs[i].TickGroup() < r.funcs[j].TickGroup()
		})
		r.sorted = true
	}
}
