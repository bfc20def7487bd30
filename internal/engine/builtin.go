package engine

import (
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/subsystem"
	"github.com/scenecore/scenecore/internal/world"
	"go.uber.org/zap"
)

// NavigationSystem rebuilds navigation data for every level that finishes a
// registration pass. Created for worlds whose InitValues ask for navigation.
type NavigationSystem struct {
	w     *world.World
	built map[string]int
	stop  func()
}

func (n *NavigationSystem) Initialize(c *subsystem.Collection) error {
	n.w = c.Outer().(*world.World)
	n.built = make(map[string]int)
	n.stop = event.Subscribe(n.w.Bus(), func(ev event.RegistrationComplete) {
		n.built[ev.Level]++
		n.w.Logger().Debug("navigation rebuilt", zap.String("level", ev.Level), zap.Int("entities", ev.Entities))
	})
	return nil
}

func (n *NavigationSystem) Deinitialize() { n.stop() }

// Builds returns how many times the level's navigation data was rebuilt.
func (n *NavigationSystem) Builds(level string) int { return n.built[level] }

// AISystem drives AI for a world. It needs navigation.
type AISystem struct {
	Nav *NavigationSystem
}

func (a *AISystem) Initialize(c *subsystem.Collection) error {
	a.Nav = subsystem.MustGet[*NavigationSystem](c)
	return nil
}

func (a *AISystem) Deinitialize() { a.Nav = nil }

// RegisterBuiltins adds the world subsystems the engine ships with to cat.
func RegisterBuiltins(cat *subsystem.Catalog) error {
	if err := subsystem.Register(cat, subsystem.ScopeWorld, func() *NavigationSystem { return &NavigationSystem{} },
		subsystem.WithShouldCreate(func(outer any) bool {
			w, ok := outer.(*world.World)
			return ok && w.InitValues().CreateNavigation
		})); err != nil {
		return err
	}
	return subsystem.Register(cat, subsystem.ScopeWorld, func() *AISystem { return &AISystem{} },
		subsystem.DependsOn[*NavigationSystem](),
		subsystem.WithShouldCreate(func(outer any) bool {
			w, ok := outer.(*world.World)
			return ok && w.InitValues().CreateAISystem && w.InitValues().CreateNavigation
		}))
}
