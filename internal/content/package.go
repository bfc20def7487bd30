package content

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// PackageFlags describe a content package.
type PackageFlags uint32

const (
	FlagContainsMap  PackageFlags = 1 << iota // holds a world
	FlagPlayInEditor                          // created for a play-in-editor session
	FlagTransient                             // never saved
	FlagDirty                                 // modified since load
)

var ErrPackageExists = errors.New("package already exists")

// Package is the unit content is loaded from and saved to.
type Package struct {
	ID    uuid.UUID
	name  string
	flags PackageFlags
}

func (p *Package) Name() string                { return p.name }
func (p *Package) Flags() PackageFlags         { return p.flags }
func (p *Package) HasFlag(f PackageFlags) bool { return p.flags&f == f }
func (p *Package) SetFlag(f PackageFlags)      { p.flags |= f }
func (p *Package) ClearFlag(f PackageFlags)    { p.flags &^= f }

// NormalizePackageName turns user input into a canonical package path:
// NFC-normalized, rooted and cleaned.
func NormalizePackageName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	return path.Clean("/" + strings.TrimPrefix(name, "/"))
}

// MapPackageName is the package that holds the level of the given name.
func MapPackageName(level string) string {
	return NormalizePackageName("/Game/Maps/" + level)
}

// Registry owns every package known to an engine, including the transient
// package. Accessed only from the engine loop goroutine.
type Registry struct {
	byName    map[string]*Package
	transient *Package
	untitled  int
}

func NewRegistry(transientName string) *Registry {
	if transientName == "" {
		transientName = "/Engine/Transient"
	}
	r := &Registry{byName: make(map[string]*Package)}
	r.transient = &Package{ID: uuid.New(), name: NormalizePackageName(transientName), flags: FlagTransient}
	r.byName[r.transient.name] = r.transient
	return r
}

// Transient returns the package for objects that are never saved.
func (r *Registry) Transient() *Package { return r.transient }

// Create makes a new package. An empty name yields a fresh /Temp/Untitled_N.
func (r *Registry) Create(name string) (*Package, error) {
	name = NormalizePackageName(name)
	if name == "" {
		for {
			r.untitled++
			name = fmt.Sprintf("/Temp/Untitled_%d", r.untitled)
			if _, ok := r.byName[name]; !ok {
				break
			}
		}
	}
	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("create %s: %w", name, ErrPackageExists)
	}
	p := &Package{ID: uuid.New(), name: name}
	r.byName[name] = p
	return p, nil
}

func (r *Registry) Find(name string) (*Package, bool) {
	p, ok := r.byName[NormalizePackageName(name)]
	return p, ok
}

// FindOrCreate returns the named package, creating it if needed.
func (r *Registry) FindOrCreate(name string) *Package {
	if p, ok := r.Find(name); ok {
		return p
	}
	p, _ := r.Create(name)
	return p
}

// Remove forgets a package. The transient package cannot be removed.
func (r *Registry) Remove(p *Package) {
	if p == nil || p == r.transient {
		return
	}
	delete(r.byName, p.name)
}

func (r *Registry) Count() int { return len(r.byName) }
