package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/scenecore/scenecore/internal/content"
	"go.uber.org/zap"
)

// ErrDigestMismatch means stored entity rows no longer hash to the digest
// saved with their package.
var ErrDigestMismatch = errors.New("level digest mismatch")

// StoredLevel is a level file as saved in the content store.
type StoredLevel struct {
	PackageID uuid.UUID
	Package   string
	Flags     content.PackageFlags
	Level     *content.LevelFile
	Digest    []byte
	SavedAt   time.Time
}

// PackageRepo saves and loads level content by package name.
type PackageRepo struct {
	db *DB
}

func NewPackageRepo(db *DB) *PackageRepo {
	return &PackageRepo{db: db}
}

// Save replaces the stored content of pkg with lf (delete + insert).
func (r *PackageRepo) Save(ctx context.Context, pkg *content.Package, lf *content.LevelFile) error {
	digest, err := Digest(lf)
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO content_packages (id, name, flags, level_name, run_construction, digest, saved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name, flags = EXCLUDED.flags, level_name = EXCLUDED.level_name,
		     run_construction = EXCLUDED.run_construction, digest = EXCLUDED.digest, saved_at = now()`,
		pkg.ID, pkg.Name(), int32(pkg.Flags()&^content.FlagDirty), lf.Level, lf.RunConstruction, digest,
	); err != nil {
		return fmt.Errorf("save package %s: %w", pkg.Name(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM package_entities WHERE package_id = $1`, pkg.ID); err != nil {
		return err
	}
	for i, ed := range lf.Entities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO package_entities (package_id, seq, name, def) VALUES ($1, $2, $3, $4)`,
			pkg.ID, i, ed.Name, ed,
		); err != nil {
			return fmt.Errorf("save entity %s: %w", ed.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	pkg.ClearFlag(content.FlagDirty)
	r.db.log.Debug("package saved",
		zap.String("package", pkg.Name()),
		zap.Int("entities", len(lf.Entities)))
	return nil
}

// Load returns the stored level of the named package, or nil if there is none.
func (r *PackageRepo) Load(ctx context.Context, name string) (*StoredLevel, error) {
	name = content.NormalizePackageName(name)
	sl := &StoredLevel{Level: &content.LevelFile{}}
	var flags int32
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, flags, level_name, run_construction, digest, saved_at
		 FROM content_packages WHERE name = $1`, name,
	).Scan(&sl.PackageID, &sl.Package, &flags, &sl.Level.Level, &sl.Level.RunConstruction, &sl.Digest, &sl.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sl.Flags = content.PackageFlags(flags)

	rows, err := r.db.Pool.Query(ctx,
		`SELECT def FROM package_entities WHERE package_id = $1 ORDER BY seq`, sl.PackageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ed content.EntityDef
		if err := rows.Scan(&ed); err != nil {
			return nil, err
		}
		sl.Level.Entities = append(sl.Level.Entities, ed)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := sl.Verify(); err != nil {
		return nil, fmt.Errorf("load package %s: %w", name, err)
	}
	return sl, nil
}

// FindLevel loads the level stored in the map package of name.
func (r *PackageRepo) FindLevel(ctx context.Context, name string) (*content.LevelFile, error) {
	sl, err := r.Load(ctx, content.MapPackageName(name))
	if err != nil || sl == nil {
		return nil, err
	}
	return sl.Level, nil
}

// Verify recomputes the digest and validates the level.
func (sl *StoredLevel) Verify() error {
	digest, err := Digest(sl.Level)
	if err != nil {
		return err
	}
	if !bytes.Equal(digest, sl.Digest) {
		return ErrDigestMismatch
	}
	return sl.Level.Validate()
}

// List returns stored package names in name order.
func (r *PackageRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM content_packages ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Delete removes a package and its entities.
func (r *PackageRepo) Delete(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM content_packages WHERE name = $1`,
		content.NormalizePackageName(name))
	return err
}
