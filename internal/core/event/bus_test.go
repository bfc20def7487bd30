package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextFlush(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e EntityBegunPlay) { got = append(got, e.Name) })

	Emit(b, EntityBegunPlay{Name: "a"})
	Emit(b, EntityBegunPlay{Name: "b"})
	assert.Equal(t, 2, Pending[EntityBegunPlay](b))
	assert.Empty(t, got, "events are not delivered before a flush")

	b.Flush()
	assert.Equal(t, []string{"a", "b"}, got)

	b.Flush()
	assert.Equal(t, []string{"a", "b"}, got, "front buffer is not replayed")
}

func TestBusTypesAreIsolated(t *testing.T) {
	b := NewBus()
	var attach, degraded int
	Subscribe(b, func(AttachmentChanged) { attach++ })
	Subscribe(b, func(ComponentDegraded) { degraded++ })

	Emit(b, AttachmentChanged{})
	b.Flush()

	assert.Equal(t, 1, attach)
	assert.Equal(t, 0, degraded)
}

func TestEmitOnNilBusIsNoop(t *testing.T) {
	assert.NotPanics(t, func() { Emit[WorldAdded](nil, WorldAdded{World: "w"}) })
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	var first, second int
	stop := Subscribe(b, func(RegistrationComplete) { first++ })
	Subscribe(b, func(RegistrationComplete) { second++ })

	Emit(b, RegistrationComplete{Level: "L"})
	b.Flush()
	stop()
	stop()
	Emit(b, RegistrationComplete{Level: "L"})
	b.Flush()

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestDeliveredAndReentrantEmit(t *testing.T) {
	b := NewBus()
	Subscribe(b, func(e EntityDestroyed) { Emit(b, WorldDestroyed{World: e.Name}) })

	Emit(b, EntityDestroyed{Name: "crate"})
	b.Flush()
	assert.Equal(t, []EntityDestroyed{{Name: "crate"}}, Delivered[EntityDestroyed](b))
	assert.Equal(t, 1, Pending[WorldDestroyed](b), "handler emits wait for the next flush")

	b.Flush()
	assert.Empty(t, Delivered[EntityDestroyed](b))
	assert.Equal(t, []WorldDestroyed{{World: "crate"}}, Delivered[WorldDestroyed](b))
}
