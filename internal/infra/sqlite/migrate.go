package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// migrations embeds all *.up.sql files so the binary has no runtime file
// dependencies.
//
//go:embed migrations/*.up.sql
var migrations embed.FS

// MigrateUp applies all pending *.up.sql migrations in filename order.
// Applied versions are tracked in schema_migrations, so running it again is
// a no-op. Each migration runs in its own transaction.
func MigrateUp(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("migrate: ensure migrations table: %w", err)
	}

	files, err := loadMigrationFiles()
	if err != nil {
		return fmt.Errorf("migrate: load files: %w", err)
	}

	for _, f := range files {
		version := versionFromFilename(f.name)

		applied, checkErr := isMigrationApplied(db, version)
		if checkErr != nil {
			return fmt.Errorf("migrate: check applied %d: %w", version, checkErr)
		}
		if applied {
			continue
		}

		if applyErr := applyMigration(db, version, f.name, f.sql); applyErr != nil {
			return fmt.Errorf("migrate: apply %s: %w", f.name, applyErr)
		}
	}

	return nil
}

// MigrationVersion returns the highest applied migration version, 0 when
// none have been applied.
func MigrationVersion(db *sql.DB) (int, error) {
	if err := ensureMigrationsTable(db); err != nil {
		return 0, fmt.Errorf("migrate: ensure migrations table: %w", err)
	}

	var version int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("migrate: query version: %w", err)
	}

	return version, nil
}

// --- internal ---

type migrationFile struct {
	name string // e.g. "001_init_schema.up.sql"
	sql  string
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER NOT NULL PRIMARY KEY,
			name        TEXT    NOT NULL,
			applied_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func loadMigrationFiles() ([]migrationFile, error) {
	var files []migrationFile

	err := fs.WalkDir(migrations, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return nil
		}

		content, err := migrations.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		files = append(files, migrationFile{name: d.Name(), sql: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Lexicographic order is numeric order for the 001_, 002_, ... prefix.
	sort.Slice(files, func(i, j int) bool {
		return files[i].name < files[j].name
	})

	return files, nil
}

// versionFromFilename extracts the numeric prefix, "001_init_schema.up.sql" → 1.
func versionFromFilename(name string) int {
	var version int
	if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
		return 0
	}
	return version
}

func isMigrationApplied(db *sql.DB, version int) (bool, error) {
	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func applyMigration(db *sql.DB, version int, name, sqlContent string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is a no-op
	}()

	if _, execErr := tx.Exec(sqlContent); execErr != nil {
		return fmt.Errorf("exec SQL: %w", execErr)
	}

	if _, execErr := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		version, name,
	); execErr != nil {
		return fmt.Errorf("record migration: %w", execErr)
	}

	return tx.Commit()
}
