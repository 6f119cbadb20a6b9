// Package sqlite provides the SQLite connection factory and migration runner
// for the sobot trace store. Uses modernc.org/sqlite, a pure-Go driver, so
// the binary builds without CGO.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// NewDB opens (or creates) a SQLite database at path configured for a
// write-mostly trace log:
//   - WAL journal mode (readers do not block the writer)
//   - foreign key enforcement (generations reference traces)
//   - 5-second busy timeout
//   - synchronous=NORMAL (safe with WAL, cheaper than FULL)
//
// Use ":memory:" as path for in-memory databases in tests. The parent
// directory must already exist for file-backed paths.
func NewDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	// PRAGMAs are applied per connection via DSN query parameters, which
	// modernc.org/sqlite supports as _pragma=name(value).
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// WAL allows concurrent readers; SQLite serializes writers itself.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}
