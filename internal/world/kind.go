package world

import (
	"fmt"
	"strings"
)

// Kind tags what a world is used for.
type Kind int

const (
	KindNone Kind = iota
	KindGame
	KindEditor
	KindPIE           // play in editor
	KindEditorPreview // editor asset preview
	KindGamePreview
	KindGameRPC
	KindInactive // loaded but not running
)

var kindNames = [...]string{"None", "Game", "Editor", "PIE", "EditorPreview", "GamePreview", "GameRPC", "Inactive"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return KindNone, fmt.Errorf("unknown world kind %q", s)
}

// IsGame reports whether gameplay runs in worlds of this kind.
func (k Kind) IsGame() bool {
	switch k {
	case KindGame, KindPIE, KindGamePreview, KindGameRPC:
		return true
	}
	return false
}

func (k Kind) IsPreview() bool {
	return k == KindEditorPreview || k == KindGamePreview
}

// InitializesEntities reports whether entities in this kind of world run the
// initialization phases after registration. Plain editor worlds only register.
func (k Kind) InitializesEntities() bool {
	return k.IsGame() || k == KindEditorPreview
}

// InitValues controls what a new world sets up.
type InitValues struct {
	InitializeScenes      bool
	CreatePhysicsScene    bool
	ShouldSimulatePhysics bool
	EnableTraceCollision  bool
	CreateNavigation      bool
	CreateAISystem        bool
}

// DefaultInitValues returns the defaults the world factory applies for k.
func DefaultInitValues(k Kind) InitValues {
	tools := k == KindEditor || k.IsPreview()
	return InitValues{
		InitializeScenes:      true,
		CreatePhysicsScene:    k != KindInactive,
		ShouldSimulatePhysics: false,
		EnableTraceCollision:  true,
		CreateNavigation:      tools,
		CreateAISystem:        tools,
	}
}
