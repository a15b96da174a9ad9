// Package store provides the SQLite-backed versioned local archive store.
//
// One database file holds two collections, assets and history, mirroring the
// two record kinds. The store is the durable source of truth for "what the
// user has"; remote validation is advisory and never deletes local rows.
//
// # Schema versioning
//
// Schema evolution uses PRAGMA user_version as a monotonically increasing
// integer. Each migration step runs exactly once per upgrade and is
// idempotent, so an interrupted upgrade is safe to re-run. The v2 migration
// changed the asset key from file_name to id; a key-path change cannot be
// done in place, so that step drops and recreates the assets table. Data
// loss across that one schema break is a documented policy, not an accident.
//
// # Corruption recovery
//
// Any read failure is treated as store corruption and recovered in two
// stages: first the affected table is cleared; if clearing itself fails, the
// whole database file is deleted and recreated. Both stages log and neither
// propagates - after a corruption event callers receive an empty list, never
// an error, and subsequent writes succeed against the fresh store. The
// recovery path is safe to invoke any number of times. CheckAndFix runs a
// lightweight probe so startup can trigger recovery before a user-visible
// read does.
//
// # Concurrency
//
// The archive subsystem is single-threaded by design; Store methods are not
// safe for concurrent use from multiple goroutines.
package store
