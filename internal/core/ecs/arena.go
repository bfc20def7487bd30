package ecs

// Arena owns an id pool, the stores indexed by it and a deferred release
// queue flushed at the end of each world tick.
type Arena struct {
	pool         *Pool
	stores       []Removable
	destroyQueue []ObjectID
	queued       map[ObjectID]struct{}
}

func NewArena() *Arena {
	return &Arena{
		pool:         NewPool(),
		destroyQueue: make([]ObjectID, 0, 64),
		queued:       make(map[ObjectID]struct{}),
	}
}

func (a *Arena) Pool() *Pool { return a.pool }

// Track makes Release drop ids from s.
func (a *Arena) Track(s Removable) {
	a.stores = append(a.stores, s)
}

func (a *Arena) Create() ObjectID {
	return a.pool.Create()
}

func (a *Arena) Alive(id ObjectID) bool {
	return a.pool.Alive(id)
}

// Release drops id from every store and invalidates it immediately.
func (a *Arena) Release(id ObjectID) {
	for _, s := range a.stores {
		s.Remove(id)
	}
	a.pool.Release(id)
}

// MarkForDestruction queues an object for end-of-tick release.
// Queuing the same id twice is a no-op.
func (a *Arena) MarkForDestruction(id ObjectID) {
	if _, ok := a.queued[id]; ok {
		return
	}
	a.queued[id] = struct{}{}
	a.destroyQueue = append(a.destroyQueue, id)
}

// Pending reports whether id is waiting in the destroy queue.
func (a *Arena) Pending(id ObjectID) bool {
	_, ok := a.queued[id]
	return ok
}

// FlushDestroyQueue calls fn for every queued id in queue order, then releases
// it. Ids queued by fn are handled in the same flush.
func (a *Arena) FlushDestroyQueue(fn func(ObjectID)) {
	for i := 0; i < len(a.destroyQueue); i++ {
		id := a.destroyQueue[i]
		if fn != nil {
			fn(id)
		}
		a.Release(id)
		delete(a.queued, id)
	}
	a.destroyQueue = a.destroyQueue[:0]
}
