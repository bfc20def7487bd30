package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// BehaviorResolver maps a component definition to its behavior.
type BehaviorResolver interface {
	Behavior(cd content.ComponentDef) (any, error)
}

// Engine wraps a single gopher-lua VM that runs construction scripts.
// Single-goroutine access only (engine loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	resolver BehaviorResolver
}

// NewEngine creates a Lua engine and loads every script under scriptsDir:
// the "core" directory first, then the remaining directories in name order.
// A missing directory loads nothing.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	if scriptsDir == "" {
		return e, nil
	}
	if err := e.loadDir(filepath.Join(scriptsDir, "core")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load core scripts: %w", err)
	}
	subdirs, err := listSubdirs(scriptsDir)
	if err != nil {
		vm.Close()
		return nil, err
	}
	for _, sub := range subdirs {
		if sub == "core" {
			continue
		}
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// SetResolver lets scripts create components of registered types.
func (e *Engine) SetResolver(r BehaviorResolver) { e.resolver = r }

func listSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list scripts %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, typically function definitions.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// HasFunction reports whether a global Lua function called name exists.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Construct calls the Lua function fn with an entity handle. Components the
// script adds are owned by e and registered by the caller.
func (e *Engine) Construct(ent *world.Entity, fn string) error {
	f, ok := e.vm.GetGlobal(fn).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("lua function %s not found", fn)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    0,
		Protect: true,
	}, e.entityTable(ent)); err != nil {
		return fmt.Errorf("lua %s: %w", fn, err)
	}
	return nil
}

// entityTable builds the table a construction script receives.
func (e *Engine) entityTable(ent *world.Entity) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ent.Name()))
	t.RawSetString("id", lua.LNumber(ent.ID()))

	comps := e.vm.NewTable()
	for _, c := range ent.Components() {
		comps.Append(lua.LString(c.Name()))
	}
	t.RawSetString("components", comps)

	t.RawSetString("add_component", e.vm.NewFunction(func(L *lua.LState) int {
		opts := L.CheckTable(1)
		cd := componentDef(opts)
		if cd.Name == "" {
			L.ArgError(1, "component name required")
			return 0
		}
		if ent.FindComponent(cd.Name) != nil {
			L.RaiseError("entity %s already has component %s", ent.Name(), cd.Name)
			return 0
		}
		var behavior any
		if e.resolver != nil {
			b, err := e.resolver.Behavior(cd)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			behavior = b
		} else if cd.Type != "" && cd.Type != "scene" {
			L.RaiseError("component type %s needs a resolver", cd.Type)
			return 0
		}
		c := ent.AddComponent(cd.Name, behavior)
		content.ApplyFlags(c, cd)
		if cd.Parent != "" {
			if err := c.AttachTo(ent.FindComponent(cd.Parent)); err != nil {
				L.RaiseError("attach %s to %s: %s", cd.Name, cd.Parent, err.Error())
				return 0
			}
		}
		L.Push(lua.LString(c.Name()))
		return 1
	}))

	t.RawSetString("attach", e.vm.NewFunction(func(L *lua.LState) int {
		child := ent.FindComponent(L.CheckString(1))
		parent := ent.FindComponent(L.CheckString(2))
		if child == nil || parent == nil {
			L.Push(lua.LFalse)
			return 1
		}
		if err := child.AttachTo(parent); err != nil {
			L.Push(lua.LFalse)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LTrue)
		return 1
	}))

	t.RawSetString("set_tick", e.vm.NewFunction(func(L *lua.LState) int {
		ent.SetTickEnabled(L.ToBool(1))
		return 0
	}))
	return t
}

func componentDef(t *lua.LTable) content.ComponentDef {
	cd := content.ComponentDef{
		Name:            lua.LVAsString(t.RawGetString("name")),
		Type:            lua.LVAsString(t.RawGetString("type")),
		Parent:          lua.LVAsString(t.RawGetString("parent")),
		AutoActivate:    lua.LVAsBool(t.RawGetString("auto_activate")),
		WantsInitialize: lua.LVAsBool(t.RawGetString("wants_initialize")),
		Visual:          lua.LVAsBool(t.RawGetString("visual")),
		Collision:       lua.LVAsBool(t.RawGetString("collision")),
	}
	if v := t.RawGetString("auto_register"); v != lua.LNil {
		b := lua.LVAsBool(v)
		cd.AutoRegister = &b
	}
	return cd
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
