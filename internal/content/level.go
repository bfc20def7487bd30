package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LevelFile is the on-disk description of a level: an ordered list of
// entities with their components.
type LevelFile struct {
	Level           string      `yaml:"level" json:"level"`
	RunConstruction bool        `yaml:"run_construction" json:"run_construction"`
	Entities        []EntityDef `yaml:"entities" json:"entities"`
}

// EntityDef describes one entity.
type EntityDef struct {
	Name       string         `yaml:"name" json:"name"`
	Tick       bool           `yaml:"tick" json:"tick,omitempty"`
	Replicated bool           `yaml:"replicated" json:"replicated,omitempty"`
	Script     string         `yaml:"script" json:"script,omitempty"` // construction function
	Root       string         `yaml:"root" json:"root,omitempty"`     // defaults to the first component
	AttachTo   *AttachRef     `yaml:"attach_to" json:"attach_to,omitempty"`
	Components []ComponentDef `yaml:"components" json:"components"`
}

// ComponentDef describes one component of an entity.
type ComponentDef struct {
	Name            string `yaml:"name" json:"name"`
	Type            string `yaml:"type" json:"type,omitempty"`
	Parent          string `yaml:"parent" json:"parent,omitempty"` // component of the same entity
	AutoActivate    bool   `yaml:"auto_activate" json:"auto_activate,omitempty"`
	AutoRegister    *bool  `yaml:"auto_register" json:"auto_register,omitempty"`
	WantsInitialize bool   `yaml:"wants_initialize" json:"wants_initialize,omitempty"`
	Visual          bool   `yaml:"visual" json:"visual,omitempty"`
	Collision       bool   `yaml:"collision" json:"collision,omitempty"`
}

// AttachRef points at a component of another entity in the same level.
type AttachRef struct {
	Entity    string `yaml:"entity" json:"entity"`
	Component string `yaml:"component" json:"component"`
}

// LoadLevelFile reads and validates a level file.
func LoadLevelFile(path string) (*LevelFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	lf, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lf, nil
}

// ParseLevel decodes and validates level YAML.
func ParseLevel(raw []byte) (*LevelFile, error) {
	var lf LevelFile
	if err := yaml.Unmarshal(raw, &lf); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := lf.Validate(); err != nil {
		return nil, err
	}
	return &lf, nil
}

// Validate checks names and references.
func (lf *LevelFile) Validate() error {
	if lf.Level == "" {
		return fmt.Errorf("level name is empty")
	}
	entities := make(map[string]*EntityDef, len(lf.Entities))
	for i := range lf.Entities {
		ed := &lf.Entities[i]
		if ed.Name == "" {
			return fmt.Errorf("entity %d has no name", i)
		}
		if _, dup := entities[ed.Name]; dup {
			return fmt.Errorf("duplicate entity %q", ed.Name)
		}
		entities[ed.Name] = ed

		comps := make(map[string]bool, len(ed.Components))
		for j, cd := range ed.Components {
			if cd.Name == "" {
				return fmt.Errorf("entity %q: component %d has no name", ed.Name, j)
			}
			if comps[cd.Name] {
				return fmt.Errorf("entity %q: duplicate component %q", ed.Name, cd.Name)
			}
			comps[cd.Name] = true
		}
		for _, cd := range ed.Components {
			if cd.Parent != "" && !comps[cd.Parent] {
				return fmt.Errorf("entity %q: component %q has unknown parent %q", ed.Name, cd.Name, cd.Parent)
			}
		}
		if ed.Root != "" && !comps[ed.Root] {
			return fmt.Errorf("entity %q: unknown root %q", ed.Name, ed.Root)
		}
	}
	for _, ed := range lf.Entities {
		if ed.AttachTo == nil {
			continue
		}
		target, ok := entities[ed.AttachTo.Entity]
		if !ok || target.Name == ed.Name {
			return fmt.Errorf("entity %q: bad attach target %q", ed.Name, ed.AttachTo.Entity)
		}
		if !target.hasComponent(ed.AttachTo.Component) {
			return fmt.Errorf("entity %q: attach target %q has no component %q",
				ed.Name, ed.AttachTo.Entity, ed.AttachTo.Component)
		}
	}
	return nil
}

func (ed *EntityDef) hasComponent(name string) bool {
	for _, cd := range ed.Components {
		if cd.Name == name {
			return true
		}
	}
	return false
}

// ComponentCount returns the number of components across all entities.
func (lf *LevelFile) ComponentCount() int {
	n := 0
	for _, ed := range lf.Entities {
		n += len(ed.Components)
	}
	return n
}
