// Package history persists one row per extraction run in SQLite.
//
// The database lives at history.path (default <state_dir>/history.db). The
// layout version is kept in PRAGMA user_version. A file stamped with another
// version fails to open with ErrSchemaMismatch and is never migrated.
package history
