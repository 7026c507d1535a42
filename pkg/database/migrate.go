package database

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	errs "builder-maps/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent, so running it on an existing database is safe.
func (db *DB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return errs.NewDB("database.Migrate", "failed to list migrations", err)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrationsFS.ReadFile(name)
		if err != nil {
			return errs.NewDB("database.Migrate", "failed to read "+name, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			ctx, cancel := db.withWriteTimeout(ctx)
			_, err := db.conn.ExecContext(ctx, stmt)
			cancel()
			if err != nil {
				return errs.NewDB("database.Migrate", "failed to apply "+name, err)
			}
		}
	}
	return nil
}

// splitStatements splits a schema file on semicolons that end a line.
func splitStatements(sql string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";")
			out = append(out, stmt)
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
