package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema files in name order. Every statement in
// them is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read %s", name)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return errors.Wrapf(err, "apply %s", name)
		}
	}
	return nil
}
