package ecs

// Removable is a store an Arena can clear on release.
type Removable interface {
	Remove(id ObjectID)
}

// Store is a generic typed map from object id to object pointer.
type Store[T any] struct {
	data map[ObjectID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[ObjectID]*T, 256),
	}
}

func (s *Store[T]) Set(id ObjectID, v *T) {
	s.data[id] = v
}

func (s *Store[T]) Get(id ObjectID) (*T, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *Store[T]) Remove(id ObjectID) {
	delete(s.data, id)
}

func (s *Store[T]) Has(id ObjectID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits every stored object. Iteration order is unspecified.
func (s *Store[T]) Each(fn func(ObjectID, *T)) {
	for id, v := range s.data {
		fn(id, v)
	}
}
