package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/core/event"
	"github.com/scenecore/scenecore/internal/injector"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printSection(title string) {
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", max(3, 44-len(title))))
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func run() error {
	// 1. Load config
	cfgPath := "config/scenecore.toml"
	if p := os.Getenv("SCENECORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if cfg.Profiling.Enabled {
		defer profile.Start(profileMode(cfg.Profiling.Mode), profile.ProfilePath(cfg.Profiling.Path), profile.Quiet).Stop()
	}

	// 3. Build the engine and its content pipeline
	printSection("engine")
	eng, cleanup, err := injector.InitializeEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}
	defer cleanup()
	if cfg.Database.Enabled {
		printOK("level store connected")
	}
	event.Subscribe(eng.Bus(), func(ev event.WorldAdded) {
		printOK(fmt.Sprintf("world %s (%s)", ev.World, ev.Kind))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Init(ctx); err != nil {
		return fmt.Errorf("boot %s mode: %w", eng.Mode(), err)
	}
	printOK(fmt.Sprintf("%s mode, tick %s", eng.Mode(), cfg.Engine.TickRate))
	fmt.Println()

	log.Info("engine running", zap.String("name", cfg.Engine.Name), zap.Duration("tick_rate", cfg.Engine.TickRate))
	err = eng.Run(ctx)
	log.Info("shutdown complete")
	return err
}

func profileMode(mode string) func(*profile.Profile) {
	switch mode {
	case "mem":
		return profile.MemProfile
	case "block":
		return profile.BlockProfile
	case "mutex":
		return profile.MutexProfile
	case "trace":
		return profile.TraceProfile
	}
	return profile.CPUProfile
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
