package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LevelExt is the extension of level files.
const LevelExt = ".yaml"

type cachedLevel struct {
	sum  uint64
	file *LevelFile
}

// Loader reads level files from a directory and caches them by content
// checksum, so an unchanged file is parsed once. Safe for concurrent use.
type Loader struct {
	dir     string
	workers int
	log     *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedLevel
}

func NewLoader(dir string, workers int, log *zap.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	return &Loader{
		dir:     dir,
		workers: workers,
		log:     log,
		cache:   make(map[string]cachedLevel),
	}
}

func (l *Loader) Dir() string { return l.dir }

// Load reads the level called name (without extension).
func (l *Loader) Load(name string) (*LevelFile, error) {
	path := filepath.Join(l.dir, name+LevelExt)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	sum := xxhash.Sum64(raw)

	l.mu.Lock()
	c, ok := l.cache[name]
	l.mu.Unlock()
	if ok && c.sum == sum {
		return c.file, nil
	}

	lf, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	l.mu.Lock()
	l.cache[name] = cachedLevel{sum: sum, file: lf}
	l.mu.Unlock()
	l.log.Debug("level file parsed", zap.String("file", path), zap.Uint64("xxhash", sum))
	return lf, nil
}

// FindLevel is Load, except that a missing file yields nil, nil.
func (l *Loader) FindLevel(_ context.Context, name string) (*LevelFile, error) {
	lf, err := l.Load(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return lf, err
}

// Checksum returns the xxhash of the last parsed version of name.
func (l *Loader) Checksum(name string) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.cache[name]
	return c.sum, ok
}

// Names lists the level files in the directory, sorted.
func (l *Loader) Names() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list levels %s: %w", l.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != LevelExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), LevelExt))
	}
	sort.Strings(names)
	return names, nil
}

// LoadAll decodes every level file in parallel and returns them in name
// order. The first error cancels the rest.
func (l *Loader) LoadAll(ctx context.Context) ([]*LevelFile, error) {
	names, err := l.Names()
	if err != nil {
		return nil, err
	}
	out := make([]*LevelFile, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lf, err := l.Load(name)
			if err != nil {
				return err
			}
			out[i] = lf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
