// Package journal persists conversion runs and per-file outcomes in SQLite.
//
// The Store manages the database connection, schema initialization with a
// version guard, and busy retries. The journal is a record of what happened,
// not pipeline state: conversions never depend on it, and a journal write
// failure downgrades to a warning in the pipeline.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package journal
