package event

import (
	"reflect"
	"sync"
)

// Bus carries lifecycle notifications. It is double-buffered: events emitted
// during frame N are delivered by the Flush that starts frame N+1, so
// handlers never run inside the lifecycle step that raised the event.
type Bus struct {
	mu      sync.Mutex // guards subs only; queues belong to the loop goroutine
	queued  map[reflect.Type][]any
	ready   map[reflect.Type][]any
	subs    map[reflect.Type][]*subscription
	nextSub uint64
}

type subscription struct {
	id      uint64
	deliver func(any)
}

func NewBus() *Bus {
	return &Bus{
		queued: make(map[reflect.Type][]any),
		ready:  make(map[reflect.Type][]any),
		subs:   make(map[reflect.Type][]*subscription),
	}
}

func keyOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// Emit queues ev for the next flush. A nil bus drops it.
func Emit[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	k := keyOf[T]()
	b.queued[k] = append(b.queued[k], ev)
}

// Subscribe adds fn for events of type T and returns a func that removes it.
func Subscribe[T any](b *Bus, fn func(T)) (unsubscribe func()) {
	k := keyOf[T]()
	b.mu.Lock()
	b.nextSub++
	s := &subscription{id: b.nextSub, deliver: func(ev any) { fn(ev.(T)) }}
	b.subs[k] = append(b.subs[k], s)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[k]
		for i, x := range list {
			if x.id == s.id {
				b.subs[k] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Pending returns how many events of type T wait for the next flush.
func Pending[T any](b *Bus) int {
	return len(b.queued[keyOf[T]()])
}

// Delivered returns the events of type T handed out by the last flush, for
// consumers that poll instead of subscribing.
func Delivered[T any](b *Bus) []T {
	evs := b.ready[keyOf[T]()]
	out := make([]T, len(evs))
	for i, ev := range evs {
		out[i] = ev.(T)
	}
	return out
}

// Flush makes the queued events current and delivers them. Events emitted by
// handlers wait for the following flush.
func (b *Bus) Flush() {
	b.ready, b.queued = b.queued, b.ready
	for k := range b.queued {
		b.queued[k] = b.queued[k][:0]
	}

	b.mu.Lock()
	subs := make(map[reflect.Type][]*subscription, len(b.subs))
	for k, list := range b.subs {
		subs[k] = list
	}
	b.mu.Unlock()

	for k, evs := range b.ready {
		for _, ev := range evs {
			for _, s := range subs[k] {
				s.deliver(ev)
			}
		}
	}
}
