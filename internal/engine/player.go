package engine

import (
	"github.com/scenecore/scenecore/internal/subsystem"
	"go.uber.org/zap"
)

// LocalPlayer is a player on this machine. It owns a subsystem collection
// for per-player services.
type LocalPlayer struct {
	name       string
	ctx        *WorldContext
	subsystems *subsystem.Collection
}

func (p *LocalPlayer) Name() string                      { return p.name }
func (p *LocalPlayer) Context() *WorldContext            { return p.ctx }
func (p *LocalPlayer) Subsystems() *subsystem.Collection { return p.subsystems }

// AddLocalPlayer creates a player bound to ctx and initializes its
// subsystems.
func (e *Engine) AddLocalPlayer(name string, ctx *WorldContext) *LocalPlayer {
	p := &LocalPlayer{
		name:       name,
		ctx:        ctx,
		subsystems: subsystem.NewCollection(subsystem.ScopeLocalPlayer, e.catalog, e.log.With(zap.String("player", name))),
	}
	p.subsystems.Initialize(p)
	e.players = append(e.players, p)
	e.log.Debug("local player added", zap.String("player", name), zap.String("context", ctx.Handle()))
	return p
}

// RemoveLocalPlayer deinitializes the player's subsystems.
func (e *Engine) RemoveLocalPlayer(p *LocalPlayer) {
	for i, q := range e.players {
		if q == p {
			e.players = append(e.players[:i], e.players[i+1:]...)
			p.subsystems.Deinitialize()
			return
		}
	}
}

func (e *Engine) LocalPlayers() []*LocalPlayer {
	return append([]*LocalPlayer(nil), e.players...)
}
