package world

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/subsystem"
	"go.uber.org/zap/zaptest"
)

// trace records lifecycle calls in order.
type trace struct{ calls []string }

func (t *trace) add(format string, args ...any) { t.calls = append(t.calls, fmt.Sprintf(format, args...)) }

func (t *trace) count(s string) int {
	n := 0
	for _, c := range t.calls {
		if c == s {
			n++
		}
	}
	return n
}

// hooks implements every entity hook and always calls base.
type hooks struct {
	tr    *trace
	ticks int
}

func (h *hooks) PreRegisterAllComponents(e *Entity, base Base) {
	h.tr.add("%s:preRegister", e.Name())
	base()
}

func (h *hooks) PostRegisterAllComponents(e *Entity, base Base) {
	h.tr.add("%s:postRegister", e.Name())
	base()
}

func (h *hooks) OnConstruction(e *Entity, base Base) {
	h.tr.add("%s:construct", e.Name())
	base()
}

func (h *hooks) PreInitializeComponents(e *Entity, base Base) {
	h.tr.add("%s:preInit", e.Name())
	base()
}

func (h *hooks) PostInitializeComponents(e *Entity, base Base) {
	h.tr.add("%s:postInit", e.Name())
	base()
}

func (h *hooks) BeginPlay(e *Entity, base Base) {
	h.tr.add("%s:beginPlay", e.Name())
	base()
}

func (h *hooks) EndPlay(e *Entity, _ EndPlayReason, base Base) {
	h.tr.add("%s:endPlay", e.Name())
	base()
}

func (h *hooks) Tick(*Entity, time.Duration) { h.ticks++ }

// part is a component behavior that records what happens to it.
type part struct {
	tr      *trace
	fail    error
	ticks   int
	grouped system.Group
}

func (p *part) OnRegister(c *Component, _ RegisterContext) error {
	p.tr.add("%s.%s:register", c.Owner().Name(), c.Name())
	return p.fail
}

func (p *part) OnActivate(c *Component) {
	p.tr.add("%s.%s:activate", c.Owner().Name(), c.Name())
}

func (p *part) InitializeComponent(c *Component) {
	p.tr.add("%s.%s:initialize", c.Owner().Name(), c.Name())
}

func (p *part) TickGroup() system.Group                { return p.grouped }
func (p *part) TickComponent(*Component, time.Duration) { p.ticks++ }

var errBackend = errors.New("backend unavailable")

func newTestWorld(t *testing.T, kind Kind) *World {
	t.Helper()
	return New(Options{
		Kind:     kind,
		Name:     t.Name(),
		Logger:   zaptest.NewLogger(t),
		Settings: &Settings{Optimize: OptimizeOn},
	})
}

func newCatalogWorld(t *testing.T, kind Kind, cat *subsystem.Catalog) *World {
	t.Helper()
	return New(Options{
		Kind:    kind,
		Name:    t.Name(),
		Logger:  zaptest.NewLogger(t),
		Catalog: cat,
	})
}

// populate adds n entities with m components each to l.
func populate(t *testing.T, l *Level, tr *trace, n, m int) []*Entity {
	t.Helper()
	var out []*Entity
	for i := 0; i < n; i++ {
		e := l.World().NewEntity(fmt.Sprintf("e%d", i), &hooks{tr: tr})
		for j := 0; j < m; j++ {
			c := e.AddComponent(fmt.Sprintf("c%d", j), &part{tr: tr})
			c.AutoActivate = true
			c.WantsInitialize = true
		}
		if err := l.AddEntity(e); err != nil {
			t.Fatal(err)
		}
		out = append(out, e)
	}
	return out
}
