package injector

import (
	"context"
	"time"

	"github.com/google/wire"
	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/engine"
	"github.com/scenecore/scenecore/internal/persist"
	"github.com/scenecore/scenecore/internal/scripting"
	"github.com/scenecore/scenecore/internal/subsystem"
	"go.uber.org/zap"
)

var ProviderSet = wire.NewSet(
	ProvideCatalog,
	ProvideScripts,
	ProvideBuilder,
	ProvideLoader,
	ProvideDB,
	ProvideLevelSources,
	ProvideEngine,
)

// ProvideCatalog returns a catalog with the built-in world subsystems.
func ProvideCatalog() (*subsystem.Catalog, error) {
	cat := subsystem.NewCatalog()
	if err := engine.RegisterBuiltins(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func ProvideScripts(cfg *config.Config, log *zap.Logger) (*scripting.Engine, func(), error) {
	s, err := scripting.NewEngine(cfg.Content.ScriptsDir, log)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// ProvideBuilder also lets construction scripts resolve component types
// through the builder.
func ProvideBuilder(scripts *scripting.Engine, log *zap.Logger) *content.Builder {
	b := content.NewBuilder(scripts, log)
	scripts.SetResolver(b)
	return b
}

func ProvideLoader(cfg *config.Config, log *zap.Logger) *content.Loader {
	return content.NewLoader(cfg.Content.LevelDir, cfg.Content.LoadWorkers, log)
}

// ProvideDB connects and migrates the level store. It returns nil when the
// database is disabled.
func ProvideDB(cfg *config.Config, log *zap.Logger) (*persist.DB, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, db.Close, nil
}

// ProvideLevelSources puts the database ahead of the level directory.
func ProvideLevelSources(db *persist.DB, loader *content.Loader) []engine.LevelSource {
	var sources []engine.LevelSource
	if db != nil {
		sources = append(sources, persist.NewPackageRepo(db))
	}
	return append(sources, loader)
}

func ProvideEngine(cfg *config.Config, log *zap.Logger, cat *subsystem.Catalog, b *content.Builder, sources []engine.LevelSource) (*engine.Engine, error) {
	return engine.New(cfg, log, cat, b, sources...)
}
