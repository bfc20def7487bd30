package system

import "time"

// Group defines execution ordering of tick functions within a single level tick.
type Group int

const (
	GroupPrePhysics     Group = iota // 0: gameplay before the physics step
	GroupDuringPhysics               // 1: runs alongside the physics step
	GroupPostPhysics                 // 2: reads physics results
	GroupPostUpdateWork              // 3: late work, camera and attachments
)

var groupNames = [...]string{"PrePhysics", "DuringPhysics", "PostPhysics", "PostUpdateWork"}

func (g Group) String() string {
	if g < 0 || int(g) >= len(groupNames) {
		return "Unknown"
	}
	return groupNames[g]
}

// TickFunction is anything the level ticks once per frame.
type TickFunction interface {
	TickGroup() Group
	Tick(dt time.Duration)
}
