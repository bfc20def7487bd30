package world

// CollectionType names one of a world's disjoint level collections.
type CollectionType int

const (
	CollectionDynamicSource     CollectionType = iota // persistent and streamed levels
	CollectionDynamicDuplicated                       // levels duplicated for a play session
	CollectionStatic                                  // shared levels that never change
	numCollections
)

// Valid reports whether t names one of the collections.
func (t CollectionType) Valid() bool { return t >= 0 && t < numCollections }

func (t CollectionType) String() string {
	switch t {
	case CollectionDynamicSource:
		return "DynamicSource"
	case CollectionDynamicDuplicated:
		return "DynamicDuplicated"
	case CollectionStatic:
		return "Static"
	}
	return "Unknown"
}

// LevelCollection is an ordered set of levels.
type LevelCollection struct {
	Type   CollectionType
	levels []*Level
}

func (c *LevelCollection) Levels() []*Level { return append([]*Level(nil), c.levels...) }
func (c *LevelCollection) Len() int         { return len(c.levels) }

func (c *LevelCollection) add(l *Level) {
	c.levels = append(c.levels, l)
}

func (c *LevelCollection) remove(l *Level) bool {
	for i, x := range c.levels {
		if x == l {
			c.levels = append(c.levels[:i], c.levels[i+1:]...)
			return true
		}
	}
	return false
}
