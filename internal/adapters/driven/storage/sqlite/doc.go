// Package sqlite provides a SQLite-backed implementation of driven.BlobStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Every artifact is one row of the
// artifacts table keyed by (namespace, record_id, kind); a write replaces the
// row in a single transaction, so readers see either the previous payload or
// the new one.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <storage root>/artifacts.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
