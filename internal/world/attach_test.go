package world

import (
	"testing"

	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attachLog struct{ changes int }

func (a *attachLog) OnAttachmentChanged(*Component, *Component, *Component) { a.changes++ }

func TestAttachRejectsCyclesWithoutMutation(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	e := w.NewEntity("e", nil)
	a := e.AddComponent("a", nil)
	b := e.AddComponent("b", nil)
	c := e.AddComponent("c", nil)

	require.NoError(t, b.AttachTo(a))
	require.NoError(t, c.AttachTo(b))

	assert.ErrorIs(t, a.AttachTo(c), ErrAttachCycle)
	assert.ErrorIs(t, a.AttachTo(a), ErrAttachCycle)
	assert.Nil(t, a.AttachParent())
	assert.Equal(t, []*Component{b}, a.AttachChildren())
	assert.Equal(t, []*Component{c}, b.AttachChildren())

	assert.ErrorIs(t, a.AttachTo(nil), ErrInvalidComponent)
}

func TestAttachConflicts(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	other := newTestWorld(t, KindEditor)
	e := w.NewEntity("e", nil)
	a := e.AddComponent("a", nil)
	b := e.AddComponent("b", nil)
	x := other.NewEntity("x", nil).AddComponent("x", nil)

	assert.ErrorIs(t, b.AttachTo(x), ErrAttachConflict)

	b.state = Registering
	assert.ErrorIs(t, b.AttachTo(a), ErrAttachConflict)
	b.state = Unregistered

	w.DestroyEntity(e)
	assert.ErrorIs(t, b.AttachTo(a), ErrAttachConflict)
	assert.Nil(t, b.AttachParent())
}

func TestReattachMovesChild(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	e := w.NewEntity("e", nil)
	a := e.AddComponent("a", nil)
	b := e.AddComponent("b", nil)
	obs := &attachLog{}
	c := e.AddComponent("c", obs)

	require.NoError(t, c.AttachTo(a))
	require.NoError(t, c.AttachTo(a))
	require.NoError(t, c.AttachTo(b))
	assert.Empty(t, a.AttachChildren())
	assert.Equal(t, b, c.AttachParent())

	c.Detach()
	c.Detach()
	assert.Nil(t, c.AttachParent())
	assert.Equal(t, 3, obs.changes, "attach, re-attach and detach each notify once")
	assert.Equal(t, 3, event.Pending[event.AttachmentChanged](w.Bus()))
}

func TestAttachParentEntity(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	vehicle := w.NewEntity("vehicle", nil)
	body := vehicle.AddComponent("body", nil)
	seat := vehicle.AddComponent("seat", nil)
	require.NoError(t, seat.AttachTo(body))

	driver := w.NewEntity("driver", nil)
	root := driver.AddComponent("root", nil)
	hand := driver.AddComponent("hand", nil)
	require.NoError(t, hand.AttachTo(root))

	assert.Nil(t, driver.AttachParentEntity())
	require.NoError(t, root.AttachTo(seat))
	assert.Equal(t, vehicle, driver.AttachParentEntity())
	assert.Nil(t, vehicle.AttachParentEntity())

	root.Detach()
	assert.Nil(t, driver.AttachParentEntity())
}

func TestDestroyDetachesForeignChildren(t *testing.T) {
	w := newTestWorld(t, KindEditor)
	parent := w.NewEntity("parent", nil)
	anchor := parent.AddComponent("anchor", nil)
	child := w.NewEntity("child", nil)
	root := child.AddComponent("root", nil)
	require.NoError(t, root.AttachTo(anchor))

	w.DestroyEntity(parent)
	assert.Nil(t, root.AttachParent())
	assert.Nil(t, child.AttachParentEntity())
}
