package ecs

// ObjectID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on release to invalidate stale refs.
// Index 0 is never handed out so the zero ObjectID always means "none".
type ObjectID uint64

func NewObjectID(index uint32, generation uint32) ObjectID {
	return ObjectID(uint64(generation)<<32 | uint64(index))
}

func (id ObjectID) Index() uint32      { return uint32(id) }
func (id ObjectID) Generation() uint32 { return uint32(id >> 32) }
func (id ObjectID) IsZero() bool       { return id == 0 }

// Pool hands out generational object ids with a free list.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	live        int
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
}

func (p *Pool) Create() ObjectID {
	p.live++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewObjectID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewObjectID(idx, p.generations[idx])
}

func (p *Pool) Alive(id ObjectID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Release invalidates id. Releasing a stale id is a no-op.
func (p *Pool) Release(id ObjectID) {
	if !p.Alive(id) {
		return
	}
	idx := id.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
	p.live--
}

// Live reports the number of ids currently alive.
func (p *Pool) Live() int { return p.live }
