package engine

import (
	"errors"
	"fmt"

	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/world"
	"go.uber.org/zap"
)

var ErrShutdown = errors.New("engine is shut down")

// CreateWorldParams are the inputs of CreateWorld.
type CreateWorldParams struct {
	Kind         world.Kind
	Name         string
	Package      string            // "" creates a fresh untitled package
	InformEngine bool              // track the world and publish WorldAdded
	AddToRoot    bool              // keep the world until DestroyWorld
	InitValues   *world.InitValues // nil applies the defaults for Kind
}

// CreateWorld makes a new world backed by a content package.
func (e *Engine) CreateWorld(p CreateWorldParams) (*world.World, error) {
	if e.shutdown {
		return nil, ErrShutdown
	}
	var pkg *content.Package
	if p.Package == "" {
		var err error
		if pkg, err = e.packages.Create(""); err != nil {
			return nil, fmt.Errorf("create world: %w", err)
		}
	} else {
		pkg = e.packages.FindOrCreate(p.Package)
	}
	if pkg != e.packages.Transient() {
		pkg.SetFlag(content.FlagContainsMap)
	}
	if p.Kind == world.KindPIE {
		pkg.SetFlag(content.FlagPlayInEditor)
	}

	iv := world.DefaultInitValues(p.Kind)
	if p.InitValues != nil {
		iv = *p.InitValues
	}
	settings := e.settings
	w := world.New(world.Options{
		Name:       p.Name,
		Kind:       p.Kind,
		InitValues: &iv,
		Package:    pkg,
		Settings:   &settings,
		Backends:   e.backends,
		Catalog:    e.catalog,
		Logger:     e.log,
	})
	pkg.ClearFlag(content.FlagDirty)

	if p.AddToRoot {
		e.AddToRoot(w)
	}
	if p.InformEngine {
		e.worlds = append(e.worlds, w)
		event.Emit(e.bus, event.WorldAdded{World: w.Name(), Kind: w.Kind().String()})
		e.log.Info("world added",
			zap.String("world", w.Name()),
			zap.String("kind", w.Kind().String()),
			zap.String("package", pkg.Name()))
	}
	return w, nil
}

// DestroyWorld tears w down, detaches it from any context and releases its
// package. Destroying a torn down world is a no-op.
func (e *Engine) DestroyWorld(w *world.World) {
	if w == nil || w.IsTornDown() {
		return
	}
	if c, ok := e.ContextFor(w); ok {
		c.SetCurrentWorld(nil)
	}
	w.Destroy()
	e.RemoveFromRoot(w)
	if pkg, ok := w.Package().(*content.Package); ok {
		e.packages.Remove(pkg)
	}

	for i, x := range e.worlds {
		if x == w {
			e.worlds = append(e.worlds[:i], e.worlds[i+1:]...)
			event.Emit(e.bus, event.WorldDestroyed{World: w.Name()})
			e.log.Info("world destroyed", zap.String("world", w.Name()))
			break
		}
	}
}
