package world

import "github.com/scenecore/scenecore/internal/core/event"

// AttachTo makes parent the attach parent of c. It fails without touching
// either side when the link would close a cycle, when either side is
// destroyed or mid-registration, or when they live in different worlds.
// Re-attaching to the current parent is a no-op.
func (c *Component) AttachTo(parent *Component) error {
	if c == nil || parent == nil {
		return ErrInvalidComponent
	}
	if c == parent {
		return ErrAttachCycle
	}
	if c.destroyed || parent.destroyed || c.owner.pendingKill || parent.owner.pendingKill {
		return ErrAttachConflict
	}
	if c.state == Registering || parent.state == Registering {
		return ErrAttachConflict
	}
	if c.owner.world != parent.owner.world {
		return ErrAttachConflict
	}
	if c.parent == parent {
		return nil
	}
	if c.isAncestorOf(parent) {
		return ErrAttachCycle
	}

	old := c.parent
	if old != nil {
		old.removeChild(c)
	}
	c.parent = parent
	parent.children = append(parent.children, c)
	c.notifyAttachment(old, parent)
	return nil
}

// Detach clears c's attach parent. It always succeeds.
func (c *Component) Detach() {
	if c == nil || c.parent == nil {
		return
	}
	old := c.parent
	old.removeChild(c)
	c.parent = nil
	c.notifyAttachment(old, nil)
}

// isAncestorOf walks other's parent chain. The walk is bounded by the number
// of live objects in the world; running past it means the graph already has
// a cycle.
func (c *Component) isAncestorOf(other *Component) bool {
	limit := c.owner.world.arena.Pool().Live()
	steps := 0
	for p := other; p != nil; p = p.parent {
		if p == c {
			return true
		}
		steps++
		invariant(steps <= limit, "attachment cycle through component %q", other.name)
	}
	return false
}

func (c *Component) removeChild(child *Component) {
	for i, ch := range c.children {
		if ch == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

func (c *Component) notifyAttachment(oldParent, newParent *Component) {
	ev := event.AttachmentChanged{Component: c.id, Entity: c.owner.id}
	if oldParent != nil {
		ev.OldParent = oldParent.id
	}
	if newParent != nil {
		ev.NewParent = newParent.id
	}
	event.Emit(c.owner.world.bus, ev)
	if o, ok := c.behavior.(AttachmentObserver); ok {
		o.OnAttachmentChanged(c, oldParent, newParent)
	}
}

// AttachParentEntity walks up from the root component to the first
// component owned by a different entity and returns its owner.
func (e *Entity) AttachParentEntity() *Entity {
	if e.root == nil {
		return nil
	}
	limit := e.world.arena.Pool().Live()
	steps := 0
	for p := e.root.parent; p != nil; p = p.parent {
		if p.owner != e {
			return p.owner
		}
		steps++
		invariant(steps <= limit, "attachment cycle above entity %q", e.name)
	}
	return nil
}

// detachForeignChildren detaches components of other entities that hang off
// e's components, so they do not outlive their parent by reference.
func (e *Entity) detachForeignChildren() {
	for _, c := range e.components {
		for _, ch := range c.AttachChildren() {
			if ch.owner != e {
				ch.Detach()
			}
		}
	}
}
