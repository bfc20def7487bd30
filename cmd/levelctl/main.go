// levelctl moves level content between the level directory and the
// database level store.
//
// Usage:
//
//	go run ./cmd/levelctl <command> [-config path] [-dir path]
//
// Commands: import, export, list, delete <name>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/content"
	"github.com/scenecore/scenecore/internal/persist"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func printUsage() {
	fmt.Println("Usage: levelctl <command> [-config path] [-dir path]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import        store every level file of the level directory")
	fmt.Println("  export        write every stored level to the level directory")
	fmt.Println("  list          list stored level packages")
	fmt.Println("  delete NAME   remove a stored level")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	cfgPath := fs.String("config", "config/scenecore.toml", "config file")
	dir := fs.String("dir", "", "level directory (default: content.level_dir)")
	_ = fs.Parse(os.Args[2:])

	if err := run(cmd, *cfgPath, *dir, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR [%s]: %v\n", cmd, err)
		os.Exit(1)
	}
}

func run(cmd, cfgPath, dir string, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Content.LevelDir
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(ctx); err != nil {
		return err
	}
	repo := persist.NewPackageRepo(db)

	switch cmd {
	case "import":
		return importLevels(ctx, repo, content.NewLoader(dir, cfg.Content.LoadWorkers, log))
	case "export":
		return exportLevels(ctx, repo, dir)
	case "list":
		names, err := repo.List(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("delete takes one level name")
		}
		return repo.Delete(ctx, content.MapPackageName(args[0]))
	}
	printUsage()
	return fmt.Errorf("unknown command %q", cmd)
}

func importLevels(ctx context.Context, repo *persist.PackageRepo, loader *content.Loader) error {
	levels, err := loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	packages := content.NewRegistry("")
	for _, lf := range levels {
		pkg := packages.FindOrCreate(content.MapPackageName(lf.Level))
		if stored, err := repo.Load(ctx, pkg.Name()); err != nil {
			return err
		} else if stored != nil {
			pkg.ID = stored.PackageID
		}
		pkg.SetFlag(content.FlagContainsMap)
		if err := repo.Save(ctx, pkg, lf); err != nil {
			return err
		}
		fmt.Printf("  %-32s %4d entities %5d components\n", pkg.Name(), len(lf.Entities), lf.ComponentCount())
	}
	fmt.Printf("Imported %d levels from %s\n", len(levels), loader.Dir())
	return nil
}

func exportLevels(ctx context.Context, repo *persist.PackageRepo, dir string) error {
	names, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range names {
		stored, err := repo.Load(ctx, name)
		if err != nil {
			return err
		}
		if stored == nil {
			continue
		}
		raw, err := yaml.Marshal(stored.Level)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		path := filepath.Join(dir, stored.Level.Level+content.LevelExt)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return err
		}
		fmt.Printf("  %s -> %s\n", name, path)
	}
	fmt.Printf("Exported %d levels to %s\n", len(names), dir)
	return nil
}
