package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/policy-store/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// DatabaseFile is the database file name under the storage root.
const DatabaseFile = "artifacts.db"

// Store is a SQLite-backed artifact store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens, or creates, the database under root and applies
// pending migrations.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	dbPath := filepath.Join(root, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Put replaces the payload at loc inside one transaction.
func (s *Store) Put(ctx context.Context, loc domain.Location, data []byte) error {
	if data == nil {
		data = []byte{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.IOError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO artifacts (namespace, record_id, kind, data, size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, record_id, kind) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, loc.Namespace.String(), loc.ID, loc.Kind.String(), data, len(data), time.Now().UTC())
	if err != nil {
		return domain.IOError("saving artifact "+loc.Path(), err)
	}

	if err := tx.Commit(); err != nil {
		return domain.IOError("committing artifact "+loc.Path(), err)
	}
	return nil
}

// Get returns the payload at loc.
func (s *Store) Get(ctx context.Context, loc domain.Location) ([]byte, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM artifacts WHERE namespace = ? AND record_id = ? AND kind = ?
	`, loc.Namespace.String(), loc.ID, loc.Kind.String())

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.IOError("scanning artifact "+loc.Path(), err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Exists reports whether a payload is stored at loc.
func (s *Store) Exists(ctx context.Context, loc domain.Location) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM artifacts WHERE namespace = ? AND record_id = ? AND kind = ?
	`, loc.Namespace.String(), loc.ID, loc.Kind.String())

	var count int
	if err := row.Scan(&count); err != nil {
		return false, domain.IOError("checking artifact "+loc.Path(), err)
	}
	return count > 0, nil
}

// List returns the sorted identifiers of every record in ns.
func (s *Store) List(ctx context.Context, ns domain.Namespace) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT record_id FROM artifacts WHERE namespace = ? ORDER BY record_id
	`, ns.String())
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", ns, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	// SQLite collation may differ from byte order for non-ASCII input.
	sort.Strings(ids)
	return ids, nil
}

// DeleteRecord removes every artifact of a record. Deleting an absent
// record returns domain.ErrNotFound.
func (s *Store) DeleteRecord(ctx context.Context, ns domain.Namespace, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM artifacts WHERE namespace = ? AND record_id = ?
	`, ns.String(), id)
	if err != nil {
		return fmt.Errorf("deleting record %s/%s: %w", ns, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted artifacts: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_artifacts.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}
