package world

import (
	"fmt"

	"github.com/scenecore/scenecore/internal/core/event"
	"go.uber.org/zap"
)

// RegistrationStep is the state of a level's incremental registration pass.
type RegistrationStep int

const (
	StepInit RegistrationStep = iota
	StepPreRegisterInitial
	StepRegisterInitial
	StepRunConstruction
	StepFinalize
)

var stepNames = [...]string{"Init", "PreRegisterInitial", "RegisterInitial", "RunConstruction", "Finalize"}

func (s RegistrationStep) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "Unknown"
	}
	return stepNames[s]
}

// Cursor is the resumable position of a registration pass.
type Cursor struct {
	Step  RegistrationStep `yaml:"step" json:"step"`
	Index int              `yaml:"index" json:"index"`
}

// Optimization selects how registration treats entities that already
// registered everything.
type Optimization int

const (
	OptimizeOff    Optimization = iota // walk every entity
	OptimizeOn                         // skip entities known to be registered
	OptimizeVerify                     // skip, but check the cached state against reality
)

// ParseOptimization accepts "off", "on" and "verify".
func ParseOptimization(s string) (Optimization, error) {
	switch s {
	case "off":
		return OptimizeOff, nil
	case "on":
		return OptimizeOn, nil
	case "verify":
		return OptimizeVerify, nil
	}
	return OptimizeOff, fmt.Errorf("unknown registration optimization %q", s)
}

// RestoreCursor resumes a pass from a previously saved cursor.
func (l *Level) RestoreCursor(c Cursor) {
	invariant(c.Index >= 0 && c.Index <= len(l.entities), "cursor %d out of range for level %q (%d entities)",
		c.Index, l.name, len(l.entities))
	l.cursor = c
	if c.Step != StepInit {
		l.dirty = true
	}
}

// IncrementalRegister advances the registration pass. With budget > 0 at most
// budget components are registered and the call returns after the current
// entity's unit of work; with budget 0 the pass runs to completion. It
// returns true when the pass completed in this call.
func (l *Level) IncrementalRegister(budget int) bool {
	l.mustBeLive()
	for {
		switch l.cursor.Step {
		case StepInit:
			l.cursor = Cursor{Step: StepPreRegisterInitial}
		case StepPreRegisterInitial:
			l.world.log.Debug("level registration started",
				zap.String("level", l.name),
				zap.Int("entities", len(l.entities)),
				zap.Int("budget", budget))
			l.cursor.Step = StepRegisterInitial
		case StepRegisterInitial:
			if !l.registerEntities(budget) {
				return false
			}
			l.cursor.Index = 0
			if l.runConstruction {
				l.cursor.Step = StepRunConstruction
			} else {
				l.cursor.Step = StepFinalize
			}
		case StepRunConstruction:
			ctx := l.registerContext()
			for _, e := range l.Entities() {
				if e.IsValid() && e.level == l && e.HasPhase(PhaseComponentsRegistered) {
					e.runConstruction(ctx)
				}
			}
			l.cursor.Step = StepFinalize
		case StepFinalize:
			l.finalize()
			return true
		default:
			Fatalf("level %q in unknown registration step %d", l.name, l.cursor.Step)
		}
	}
}

// UpdateComponents registers everything in one go.
func (l *Level) UpdateComponents() {
	for !l.IncrementalRegister(0) {
	}
}

func (l *Level) registerEntities(budget int) bool {
	ctx := l.registerContext()
	for l.cursor.Index < len(l.entities) {
		e := l.entities[l.cursor.Index]
		if e.IsValid() && l.needsRegistration(e) {
			if !e.preRegistered {
				e.preRegisterAllComponents()
			}
			if e.level == l && !e.registerComponents(budget, ctx) {
				return false
			}
			if e.level == l {
				e.postRegisterAllComponents()
			}
		}
		// A hook may have removed e, leaving its successor at the cursor.
		if l.cursor.Index < len(l.entities) && l.entities[l.cursor.Index] == e {
			l.cursor.Index++
		}
		if budget > 0 {
			break
		}
	}
	return l.cursor.Index >= len(l.entities)
}

func (l *Level) needsRegistration(e *Entity) bool {
	switch l.world.settings.Optimize {
	case OptimizeOn:
		return !e.registeredAll || !e.postRegistered
	case OptimizeVerify:
		if e.registeredAll && e.postRegistered {
			if e.AllComponentsRegistered() {
				return false
			}
			l.world.log.Error("entity claims all components registered but some are not",
				zap.String("level", l.name),
				zap.String("entity", e.name))
		}
		return true
	}
	return true
}

// finalize runs construction and initialization for entities that have not
// had them, begins play where the world is playing, and fires the
// completion notification.
func (l *Level) finalize() {
	w := l.world
	ctx := l.registerContext()
	for _, e := range l.Entities() {
		if !e.IsValid() || e.level != l || !e.HasPhase(PhaseComponentsRegistered) {
			continue
		}
		e.runConstruction(ctx)
		if w.kind.InitializesEntities() {
			e.initialize()
		}
		if !w.begunPlay {
			continue
		}
		if e.HasBegunPlay() {
			if !e.ticking && !e.endedPlay {
				e.registerTickFunctions(true)
			}
			continue
		}
		w.dispatchBeginPlay(e)
	}

	l.cursor = Cursor{}
	l.dirty = false
	l.completions++
	w.log.Info("level registration complete",
		zap.String("level", l.name),
		zap.Int("entities", len(l.entities)))
	event.Emit(w.bus, event.RegistrationComplete{Level: l.name, Entities: len(l.entities)})
}
