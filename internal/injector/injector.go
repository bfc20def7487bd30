//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"
	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/engine"
	"go.uber.org/zap"
)

// InitializeEngine builds an engine with its content pipeline and, when
// enabled, the database level store.
func InitializeEngine(cfg *config.Config, log *zap.Logger) (*engine.Engine, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
