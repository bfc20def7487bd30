package world

import (
	"time"

	"github.com/google/uuid"
)

// LevelSnapshot is a copy of a level's registration progress.
type LevelSnapshot struct {
	Name            string
	Collection      string
	Entities        int
	Cursor          Cursor
	FullyRegistered bool
	Completions     int
	TickFunctions   int
}

// Snapshot is a copy of world state that is safe to hand to other goroutines.
type Snapshot struct {
	ID          uuid.UUID
	Name        string
	Kind        Kind
	Frame       uint64
	Elapsed     time.Duration
	BegunPlay   bool
	LiveObjects int
	Pending     int
	Levels      []LevelSnapshot
}

// Snapshot copies the world's counters. Call it from the world's goroutine.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		ID:          w.id,
		Name:        w.name,
		Kind:        w.kind,
		Frame:       w.frame,
		Elapsed:     w.elapsed,
		BegunPlay:   w.begunPlay,
		LiveObjects: w.arena.Pool().Live(),
		Pending:     len(w.pendingBeginPlay),
	}
	for _, l := range w.Levels() {
		s.Levels = append(s.Levels, LevelSnapshot{
			Name:            l.name,
			Collection:      l.collection.String(),
			Entities:        len(l.entities),
			Cursor:          l.cursor,
			FullyRegistered: l.IsFullyRegistered(),
			Completions:     l.completions,
			TickFunctions:   l.runner.Len(),
		})
	}
	return s
}
