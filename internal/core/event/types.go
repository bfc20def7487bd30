package event

import "github.com/scenecore/scenecore/internal/core/ecs"

// AttachmentChanged fires on every successful attach and detach.
// NewParent is zero for a detach.
type AttachmentChanged struct {
	Component ecs.ObjectID
	Entity    ecs.ObjectID
	OldParent ecs.ObjectID
	NewParent ecs.ObjectID
}

// ComponentDegraded reports a component that failed to create its backend
// state and was left registered without it.
type ComponentDegraded struct {
	Component ecs.ObjectID
	Entity    ecs.ObjectID
	Name      string
	Reason    string
}

// RegistrationComplete fires once per completed registration pass of a level.
type RegistrationComplete struct {
	Level    string
	Entities int
}

type EntityBegunPlay struct {
	Entity ecs.ObjectID
	Name   string
}

type EntityDestroyed struct {
	Entity ecs.ObjectID
	Name   string
}

// WorldAdded and WorldDestroyed are published by the engine on its own bus.
type WorldAdded struct {
	World string
	Kind  string
}

type WorldDestroyed struct {
	World string
}
