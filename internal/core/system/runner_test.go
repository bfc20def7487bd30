package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	group Group
	log   *[]string
}

func (r *recorder) TickGroup() Group { return r.group }
func (r *recorder) Tick(time.Duration) {
	*r.log = append(*r.log, r.name)
}

func TestRunnerOrdersByGroupStable(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"late", GroupPostUpdateWork, &log})
	r.Register(&recorder{"pre-a", GroupPrePhysics, &log})
	r.Register(&recorder{"post", GroupPostPhysics, &log})
	r.Register(&recorder{"pre-b", GroupPrePhysics, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"pre-a", "pre-b", "post", "late"}, log)
}

func TestRunnerRegisterUnregister(t *testing.T) {
	var log []string
	r := NewRunner()
	a := &recorder{"a", GroupPrePhysics, &log}
	r.Register(a)
	r.Register(a)
	assert.Equal(t, 1, r.Len())

	r.Unregister(a)
	assert.False(t, r.Has(a))
	r.Tick(time.Millisecond)
	assert.Empty(t, log)
}

func TestRunnerTickGroup(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recorder{"pre", GroupPrePhysics, &log})
	r.Register(&recorder{"during", GroupDuringPhysics, &log})

	r.TickGroup(GroupDuringPhysics, time.Millisecond)
	assert.Equal(t, []string{"during"}, log)
	assert.Equal(t, "DuringPhysics", GroupDuringPhysics.String())
}
