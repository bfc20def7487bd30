package engine

import (
	"github.com/scenecore/scenecore/internal/world"
	"go.uber.org/zap"
)

// WorldContext tracks which world one logical track of the engine (the
// editor, a play session, a preview) currently points at.
type WorldContext struct {
	handle string
	kind   world.Kind
	world  *world.World
	log    *zap.Logger

	onWorldChanged func(old, cur *world.World)
}

func (c *WorldContext) Handle() string      { return c.handle }
func (c *WorldContext) Kind() world.Kind    { return c.kind }
func (c *WorldContext) World() *world.World { return c.world }

// OnWorldChanged sets the observer called by SetCurrentWorld, typically the
// game instance that owns the context.
func (c *WorldContext) OnWorldChanged(fn func(old, cur *world.World)) {
	c.onWorldChanged = fn
}

// SetCurrentWorld points the context at w, which may be nil.
func (c *WorldContext) SetCurrentWorld(w *world.World) {
	old := c.world
	if old == w {
		return
	}
	c.world = w
	name := ""
	if w != nil {
		name = w.Name()
	}
	c.log.Debug("context world changed", zap.String("context", c.handle), zap.String("world", name))
	if c.onWorldChanged != nil {
		c.onWorldChanged(old, w)
	}
}
